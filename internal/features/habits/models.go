// Package habits управляет привычками, их отметками и расчётом серий (стриков).
// models.go описывает структуры данных привычки, отметки и результата расчёта.
package habits

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty — уровень сложности привычки. Определяет допустимые пропуски
// и множитель очков (см. difficulty.go).
type Difficulty string

const (
	DifficultyCasual     Difficulty = "casual"
	DifficultyDetermined Difficulty = "determined"
	DifficultyHero       Difficulty = "hero"
)

// DefaultDifficulty — профиль по умолчанию для неизвестных значений.
const DefaultDifficulty = DifficultyDetermined

// InputType — как пользователь отмечает выполнение.
type InputType string

const (
	// InputNumeric — числовое значение (километры, страницы); засчитывается при value > 0
	InputNumeric InputType = "numeric"
	// InputCustom — текстовая заметка; засчитывается при непустой заметке
	InputCustom InputType = "custom"
)

// ParseInputType разбирает тип отметки. Пустая строка — numeric.
func ParseInputType(s string) (InputType, bool) {
	switch InputType(s) {
	case "", InputNumeric:
		return InputNumeric, true
	case InputCustom:
		return InputCustom, true
	}
	return "", false
}

// Habit представляет привычку пользователя.
type Habit struct {
	ID           int64      `db:"id"`
	UserID       int64      `db:"user_id"`
	Name         string     `db:"name"`
	IntervalDays int        `db:"interval_days"` // Ожидаемый интервал между отметками (0 = ежедневно)
	Difficulty   Difficulty `db:"difficulty"`
	InputType    InputType  `db:"input_type"`
	IsArchived   bool       `db:"is_archived"`
	// Дата последнего напоминания, чтобы не слать дважды за день
	LastReminderOn *time.Time `db:"last_reminder_on"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`

	// Activity заполняется репозиторием отдельным запросом
	Activity []ActivityEntry `db:"-"`
}

// Interval возвращает нормализованный интервал: 0 трактуется как ежедневно.
func (h *Habit) Interval() int {
	if h.IntervalDays <= 0 {
		return 1
	}
	return h.IntervalDays
}

// ActivityEntry — одна отметка привычки за календарный день.
type ActivityEntry struct {
	ID        uuid.UUID `db:"id"`
	HabitID   int64     `db:"habit_id"`
	Date      time.Time `db:"logged_on"`
	Value     float64   `db:"value"`
	Notes     string    `db:"notes"`
	Rewarded  bool      `db:"rewarded"` // Очки за эту отметку уже начислены
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// StreakResult — производные данные о серии. Никогда не сохраняется в БД,
// всегда пересчитывается из текущего списка отметок.
type StreakResult struct {
	Current          int        `json:"current"`
	Longest          int        `json:"longest"`
	Total            int        `json:"total"`
	LastActivity     *time.Time `json:"last_activity"`
	MissedIntervals  int        `json:"missed_intervals"`
	Difficulty       Difficulty `json:"difficulty"`
	PointsMultiplier float64    `json:"points_multiplier"`
}

// HabitInput — поля для создания привычки.
type HabitInput struct {
	Name         string
	IntervalDays int
	Difficulty   string
	InputType    string
}

// ActivityInput — данные одной отметки.
type ActivityInput struct {
	Date  *time.Time // nil = сегодня
	Value float64
	Notes string
}

// HabitWithStreak — привычка вместе с рассчитанной серией.
type HabitWithStreak struct {
	Habit  *Habit
	Streak StreakResult
}

// LogResult — итог отметки: запись, новая серия и начисленные очки.
type LogResult struct {
	Entry          *ActivityEntry
	Streak         StreakResult
	Counted        bool  // Отметка засчитана (валидна)
	PointsAwarded  int64 // Очки за выполнение (без бонуса за рубеж)
	MilestoneDays  int   // 0, если рубеж не достигнут
	MilestoneBonus int64
}
