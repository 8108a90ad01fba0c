// Package economy ведёт журнал очков: балансы и транзакции начислений.
// models.go описывает структуры для балансов и транзакций.
package economy

import (
	"time"

	"github.com/google/uuid"
)

// Balance представляет баланс пользователя.
// Каждый участник имеет ровно одну запись в таблице balances.
type Balance struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`      // Telegram user ID
	Balance     int64     `db:"balance"`      // Текущий баланс (начинается с 0)
	TotalEarned int64     `db:"total_earned"` // Сколько всего начислено
	TotalSpent  int64     `db:"total_spent"`  // Сколько всего списано админом
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction представляет одну операцию с очками.
type Transaction struct {
	ID              int64     `db:"id"`
	Reference       uuid.UUID `db:"reference"`    // Внешний id операции
	FromUserID      *int64    `db:"from_user_id"` // Заполнен для списаний
	ToUserID        *int64    `db:"to_user_id"`   // Заполнен для начислений
	Amount          int64     `db:"amount"`       // Сумма (всегда положительная)
	TransactionType string    `db:"transaction_type"`
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Типы транзакций
const (
	TxTypeHabitCompletion = "habit_completion" // Очки за выполнение привычки
	TxTypeStreakMilestone = "streak_milestone" // Бонус за рубеж серии
	TxTypeAdminAdjust     = "admin_adjust"     // Ручная корректировка админом
)

// Stats — баланс вместе с начислениями за последние 7 дней.
type Stats struct {
	UserID      int64 `json:"user_id"`
	Balance     int64 `json:"balance"`
	TotalEarned int64 `json:"total_earned"`
	TotalSpent  int64 `json:"total_spent"`
	WeekEarned  int64 `json:"week_earned"`
}
