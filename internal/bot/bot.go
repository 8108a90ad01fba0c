// Package bot содержит главный модуль бота: long polling, маршрутизацию команд
// и отправку сообщений.
package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habit-bot/internal/bot/filters"
	"serotonyl.ru/habit-bot/internal/bot/middleware"
	"serotonyl.ru/habit-bot/internal/config"
	"serotonyl.ru/habit-bot/internal/features/economy"
	"serotonyl.ru/habit-bot/internal/features/habits"
	"serotonyl.ru/habit-bot/internal/features/members"
)

// helpText — ответ на /start и /help.
const helpText = `Я помогаю держать привычки и не рвать серии 🔥

Привычки:
!новая <название> [интервал=N] [сложность=...] [тип=numeric|custom]
!привычки — список привычек и серий
!отметить <id> [значение|заметка] [дата=ГГГГ-ММ-ДД]
!огонек <id> — подробности серии
!удалить <id>
!сложности — профили сложности

Очки:
!очки — баланс
!история — последние начисления`

// route — обработчик одной команды.
type route func(ctx context.Context, msg *telego.Message, args []string)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter
	messenger   *Messenger

	memberService  *members.Service
	memberHandler  *members.Handler
	habitHandler   *habits.Handler
	economyHandler *economy.Handler

	parser *CommandParser
	routes map[string]route

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	messenger *Messenger,
	memberService *members.Service,
	memberHandler *members.Handler,
	habitHandler *habits.Handler,
	economyHandler *economy.Handler,
	chatFilter *filters.ChatFilter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	b := &Bot{
		api:            api,
		cfg:            cfg,
		chatFilter:     chatFilter,
		rateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		messenger:      messenger,
		memberService:  memberService,
		memberHandler:  memberHandler,
		habitHandler:   habitHandler,
		economyHandler: economyHandler,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
	b.routes = b.buildRoutes()
	return b
}

// buildRoutes связывает команды (с синонимами) с обработчиками.
func (b *Bot) buildRoutes() map[string]route {
	help := func(ctx context.Context, msg *telego.Message, _ []string) {
		b.sendMessage(ctx, msg.Chat.ID, helpText)
	}
	newHabit := func(ctx context.Context, msg *telego.Message, args []string) {
		b.habitHandler.HandleNew(ctx, msg.Chat.ID, msg.From.ID, args)
	}
	list := func(ctx context.Context, msg *telego.Message, _ []string) {
		b.habitHandler.HandleList(ctx, msg.Chat.ID, msg.From.ID)
	}
	logActivity := func(ctx context.Context, msg *telego.Message, args []string) {
		b.habitHandler.HandleLog(ctx, msg.Chat.ID, msg.From.ID, args)
	}
	streak := func(ctx context.Context, msg *telego.Message, args []string) {
		b.habitHandler.HandleStreak(ctx, msg.Chat.ID, msg.From.ID, args)
	}
	archive := func(ctx context.Context, msg *telego.Message, args []string) {
		b.habitHandler.HandleArchive(ctx, msg.Chat.ID, msg.From.ID, args)
	}
	difficulties := func(ctx context.Context, msg *telego.Message, _ []string) {
		b.habitHandler.HandleDifficulties(ctx, msg.Chat.ID)
	}
	recalc := func(ctx context.Context, msg *telego.Message, args []string) {
		b.habitHandler.HandleRecalculate(ctx, msg.Chat.ID, msg.From.ID, args)
	}
	balance := func(ctx context.Context, msg *telego.Message, _ []string) {
		b.economyHandler.HandleBalance(ctx, msg.Chat.ID, msg.From.ID)
	}
	history := func(ctx context.Context, msg *telego.Message, _ []string) {
		b.economyHandler.HandleTransactions(ctx, msg.Chat.ID, msg.From.ID)
	}
	adjust := func(ctx context.Context, msg *telego.Message, args []string) {
		b.economyHandler.HandleAdjust(ctx, msg.Chat.ID, msg.From.ID, args)
	}

	return map[string]route{
		"start":     help,
		"help":      help,
		"помощь":    help,
		"новая":     newHabit,
		"new":       newHabit,
		"привычки":  list,
		"habits":    list,
		"отметить":  logActivity,
		"log":       logActivity,
		"огонек":    streak,
		"streak":    streak,
		"удалить":   archive,
		"archive":   archive,
		"сложности": difficulties,
		"пересчет":  recalc,
		"очки":      balance,
		"balance":   balance,
		"история":   history,
		"начислить": adjust,
	}
}

// Commands возвращает отсортированный список известных команд.
func (b *Bot) Commands() []string {
	out := make([]string, 0, len(b.routes))
	for name := range b.routes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Start запускает long polling и обрабатывает апдейты до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		return fmt.Errorf("ошибка запуска long polling: %w", err)
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for update := range updates {
		// лимит параллелизма
		select {
		case b.inflight <- struct{}{}:
		case <-ctx.Done():
			return nil
		}
		go func(upd telego.Update) {
			defer func() { <-b.inflight }()
			b.handleUpdate(ctx, upd)
		}(update)
	}

	log.Info("Канал updates закрыт, бот остановлен")
	return nil
}

// Wait дожидается завершения всех обработчиков, запущенных Start.
func (b *Bot) Wait() {
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
}

// Close освобождает фоновые ресурсы.
func (b *Bot) Close() {
	b.rateLimiter.Close()
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(log.Fields{"update_id": update.UpdateID})

	message := update.Message
	if message == nil {
		return
	}

	// Вступление в групповой чат
	if len(message.NewChatMembers) > 0 {
		if b.chatFilter.IsHabitsChat(message.Chat.ID) {
			b.memberHandler.HandleNewChatMembers(ctx, message.NewChatMembers)
		}
		return
	}

	if message.Text == "" {
		return
	}

	middleware.LogMessage(message)

	if !b.chatFilter.CheckAccess(message) {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}
	handler, ok := b.routes[cmd]
	if !ok {
		log.WithField("cmd", cmd).Debug("unknown command")
		return
	}

	userID := message.From.ID
	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	if err := b.memberService.EnsureMember(ctx, userID,
		message.From.Username, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")
	handler(ctx, message, args)
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if err := b.messenger.SendText(ctx, chatID, strings.TrimSpace(text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
