// Package economy — service.go содержит бизнес-логику журнала очков.
// Валидация сумм, корректировки админом, статистика и история транзакций.
package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habit-bot/internal/common"
)

// historyLimit — сколько последних транзакций показывает !история.
const historyLimit = 10

// Store — хранилище балансов. Реализуется Repository.
type Store interface {
	CreateBalance(ctx context.Context, userID int64) error
	GetBalance(ctx context.Context, userID int64) (int64, error)
	AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error
	DeductBalance(ctx context.Context, userID int64, amount int64, txType, description string) error
	GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error)
	GetTransactionsByPeriod(ctx context.Context, userID int64, since time.Time) ([]*Transaction, error)
	GetTotalStats(ctx context.Context, userID int64) (*Balance, error)
}

// Service управляет очками пользователей.
type Service struct {
	repo Store
	now  func() time.Time
}

// NewService создаёт новый сервис журнала очков.
func NewService(repo Store) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetBalance возвращает текущий баланс пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// AddBalance начисляет очки пользователю.
// Через этот метод привычки начисляют очки за выполнение и рубежи.
func (s *Service) AddBalance(ctx context.Context, userID int64, amount int64, txType, description string) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repo.AddBalance(ctx, userID, amount, txType, description)
}

// AdjustBalance — ручная корректировка админом: плюс начисляет, минус списывает.
func (s *Service) AdjustBalance(ctx context.Context, adminID, userID, delta int64, reason string) error {
	if delta == 0 {
		return common.ErrInvalidAmount
	}
	description := fmt.Sprintf("Корректировка админом %d", adminID)
	if reason = strings.TrimSpace(reason); reason != "" {
		description += ": " + reason
	}

	var err error
	if delta > 0 {
		err = s.repo.AddBalance(ctx, userID, delta, TxTypeAdminAdjust, description)
	} else {
		err = s.repo.DeductBalance(ctx, userID, -delta, TxTypeAdminAdjust, description)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  userID,
		"delta":    delta,
	}).Info("Баланс скорректирован")
	return nil
}

// GetStats возвращает баланс и начисления за последние 7 дней.
func (s *Service) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	b, err := s.repo.GetTotalStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		UserID:      b.UserID,
		Balance:     b.Balance,
		TotalEarned: b.TotalEarned,
		TotalSpent:  b.TotalSpent,
	}

	txs, err := s.repo.GetTransactionsByPeriod(ctx, userID, s.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		if tx.ToUserID != nil && *tx.ToUserID == userID {
			stats.WeekEarned += tx.Amount
		}
	}
	return stats, nil
}

// GetTransactionHistory возвращает отформатированные последние транзакции.
func (s *Service) GetTransactionHistory(ctx context.Context, userID int64) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, userID, historyLimit)
	if err != nil {
		return "", err
	}

	if len(transactions) == 0 {
		return "📋 У вас пока нет начислений", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние операции (%d):\n\n", len(transactions)))
	for i, tx := range transactions {
		// Списание показываем с минусом
		amount := tx.Amount
		if tx.FromUserID != nil && *tx.FromUserID == userID {
			amount = -amount
		}
		sb.WriteString(fmt.Sprintf("%d. %s | %s | %s\n",
			i+1,
			common.FormatDateTime(tx.CreatedAt),
			common.FormatPointsAmount(amount),
			tx.Description,
		))
	}
	return sb.String(), nil
}

// CreateBalance создаёт нулевой баланс для нового участника.
func (s *Service) CreateBalance(ctx context.Context, userID int64) error {
	return s.repo.CreateBalance(ctx, userID)
}
