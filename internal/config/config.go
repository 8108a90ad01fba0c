// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Групповой чат, в котором тоже принимаются команды (0 = только личка)
	HabitsChatID int64   `envconfig:"HABITS_CHAT_ID" default:"0"`
	AdminIDsRaw  string  `envconfig:"ADMIN_IDS" default:""`
	AdminIDs     []int64 `envconfig:"-"` // заполним вручную

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"habit_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`
	// Пустое значение: пишем только в stdout
	AppLogFile string `envconfig:"APP_LOG_FILE" default:""`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- HTTP API ---
	HTTPEnabled    bool   `envconfig:"HTTP_ENABLED" default:"true"`
	HTTPAddr       string `envconfig:"HTTP_ADDR" default:"127.0.0.1:8080"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	// Argon2id-хеш токена для /api/* (go run ./cmd/hashtoken). Пусто: без авторизации
	HTTPTokenHash string `envconfig:"HTTP_TOKEN_HASH" default:""`

	// --- Habits ---
	HabitsDefaultDifficulty string `envconfig:"HABITS_DEFAULT_DIFFICULTY" default:"determined"`
	HabitsProfilesFile      string `envconfig:"HABITS_PROFILES_FILE" default:""`
	HabitsMaxPerUser        int    `envconfig:"HABITS_MAX_PER_USER" default:"20"`

	// --- Rewards ---
	RewardBasePoints    int64              `envconfig:"REWARD_BASE_POINTS" default:"10"`
	RewardStreakBonus   int64              `envconfig:"REWARD_STREAK_BONUS" default:"5"`
	RewardMilestonesRaw string             `envconfig:"REWARD_MILESTONES" default:"7:50,30:200,90:500,180:1000,365:2500"`
	RewardMilestones    []MilestoneSetting `envconfig:"-"`

	// --- Reminders ---
	ReminderMinStreak int `envconfig:"REMINDER_MIN_STREAK" default:"3"`
	ReminderAfterHour int `envconfig:"REMINDER_AFTER_HOUR" default:"18"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureRewardsEnabled   bool `envconfig:"FEATURE_REWARDS_ENABLED" default:"true"`
	FeatureRemindersEnabled bool `envconfig:"FEATURE_REMINDERS_ENABLED" default:"true"`
}

// MilestoneSetting — одна ступень бонуса за длину серии (дни → очки).
type MilestoneSetting struct {
	Days  int
	Bonus int64
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс приложения.
// Если зона не загрузилась, берём UTC, чтобы календарные дни хотя бы были стабильными.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsAdmin проверяет, входит ли пользователь в ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if _, err := time.LoadLocation(c.AppTimezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.AppTimezone, err)
	}
	if c.HabitsMaxPerUser <= 0 {
		return fmt.Errorf("HABITS_MAX_PER_USER должен быть > 0")
	}
	if c.RewardBasePoints < 0 || c.RewardStreakBonus < 0 {
		return fmt.Errorf("REWARD_BASE_POINTS/REWARD_STREAK_BONUS не могут быть отрицательными")
	}
	if c.ReminderAfterHour < 0 || c.ReminderAfterHour > 23 {
		return fmt.Errorf("REMINDER_AFTER_HOUR должен быть в диапазоне 0..23")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.parseRaw(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseRaw разбирает CSV-поля, которые envconfig не умеет сам.
func (c *Config) parseRaw() error {
	ids, err := parseInt64CSV(c.AdminIDsRaw)
	if err != nil {
		return fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	c.AdminIDs = ids

	milestones, err := parseMilestones(c.RewardMilestonesRaw)
	if err != nil {
		return fmt.Errorf("REWARD_MILESTONES parse: %w", err)
	}
	c.RewardMilestones = milestones
	return nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseMilestones разбирает строку вида "7:50,30:200".
// Результат отсортирован по дням, дубли запрещены.
func parseMilestones(s string) ([]MilestoneSetting, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	seen := make(map[int]struct{})
	var out []MilestoneSetting
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		days, bonus, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("bad milestone %q: expected days:bonus", p)
		}
		d, err := strconv.Atoi(strings.TrimSpace(days))
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("bad milestone days %q", days)
		}
		b, err := strconv.ParseInt(strings.TrimSpace(bonus), 10, 64)
		if err != nil || b < 0 {
			return nil, fmt.Errorf("bad milestone bonus %q", bonus)
		}
		if _, dup := seen[d]; dup {
			return nil, fmt.Errorf("duplicate milestone %d", d)
		}
		seen[d] = struct{}{}
		out = append(out, MilestoneSetting{Days: d, Bonus: b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Days < out[j].Days })
	return out, nil
}
