// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, репозитории, сервисы, обработчики,
// бота, планировщик и HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habit-bot/internal/api"
	"serotonyl.ru/habit-bot/internal/bot"
	"serotonyl.ru/habit-bot/internal/bot/filters"
	"serotonyl.ru/habit-bot/internal/config"
	"serotonyl.ru/habit-bot/internal/db/postgres"
	"serotonyl.ru/habit-bot/internal/features/economy"
	"serotonyl.ru/habit-bot/internal/features/habits"
	"serotonyl.ru/habit-bot/internal/features/members"
	"serotonyl.ru/habit-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot        *bot.Bot
	Scheduler  *jobs.Scheduler
	DB         *pgxpool.Pool
	BotAPI     *telego.Bot
	HTTPServer *http.Server // nil, если HTTP_ENABLED=false
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Профили сложности (до БД: ошибка в файле не должна ждать Postgres) ===
	profiles, err := habits.LoadProfiles(cfg.HabitsProfilesFile, cfg.HabitsDefaultDifficulty)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки профилей сложности: %w", err)
	}

	// === 2. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 3. Telegram Bot API ===
	var opts []telego.BotOption
	if cfg.AppEnv == "development" {
		opts = append(opts, telego.WithDefaultDebugLogger())
	}
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, opts...)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// === 4. Репозитории ===
	memberRepo := members.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	habitRepo := habits.NewRepository(pool)

	// === 5. Сервисы ===
	economyService := economy.NewService(economyRepo)
	memberService := members.NewService(memberRepo, economyService)
	habitService := habits.NewService(habitRepo, economyService, profiles, cfg)

	// === 6. Обработчики ===
	messenger := bot.NewMessenger(botAPI)
	memberHandler := members.NewHandler(memberService)
	habitHandler := habits.NewHandler(habitService, messenger, cfg)
	economyHandler := economy.NewHandler(economyService, messenger, cfg.IsAdmin)

	// === 7. Фильтры и бот ===
	chatFilter := filters.NewChatFilter(cfg.HabitsChatID)
	b := bot.New(
		botAPI, cfg, messenger,
		memberService, memberHandler,
		habitHandler, economyHandler,
		chatFilter,
	)

	// === 8. Планировщик задач ===
	scheduler := jobs.NewScheduler(habitService, messenger.Notify, cfg.Location())

	// === 9. HTTP API ===
	var httpServer *http.Server
	if cfg.HTTPEnabled {
		srv := api.NewServer(habitService, economyService, habitService.Rules())
		if cfg.MetricsEnabled {
			srv.EnableMetrics()
		}
		srv.RequireToken(cfg.HTTPTokenHash)
		httpServer = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	log.WithFields(log.Fields{
		"profiles":       len(profiles.List()),
		"default":        profiles.Default(),
		"habits_chat_id": cfg.HabitsChatID,
		"http":           cfg.HTTPEnabled,
	}).Info("Компоненты инициализированы")

	return &App{
		Bot:        b,
		Scheduler:  scheduler,
		DB:         pool,
		BotAPI:     botAPI,
		HTTPServer: httpServer,
	}, nil
}

// ServeHTTP запускает HTTP API и блокируется до остановки сервера.
func (a *App) ServeHTTP() {
	if a.HTTPServer == nil {
		return
	}
	log.WithField("addr", a.HTTPServer.Addr).Info("HTTP API запущен")
	if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("HTTP API остановлен с ошибкой")
	}
}

// Shutdown останавливает компоненты в обратном порядке запуска.
func (a *App) Shutdown(ctx context.Context) {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Ошибка остановки HTTP API")
		}
	}
	a.Scheduler.Stop()

	done := make(chan struct{})
	go func() {
		a.Bot.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("Не дождались завершения обработчиков апдейтов")
	}
	a.Bot.Close()
	a.DB.Close()
}
