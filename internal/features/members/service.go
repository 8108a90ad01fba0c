// Package members — service.go регистрирует пользователей при первом обращении
// и держит имя/username в актуальном состоянии.
package members

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habit-bot/internal/common"
)

// Store — хранилище участников. Реализуется Repository.
type Store interface {
	Create(ctx context.Context, m *Member) error
	GetByUserID(ctx context.Context, userID int64) (*Member, error)
	UpdateInfo(ctx context.Context, userID int64, info UpdateInfo) error
}

// BalanceCreator заводит нулевой баланс новому участнику.
type BalanceCreator interface {
	CreateBalance(ctx context.Context, userID int64) error
}

// Service управляет участниками.
type Service struct {
	repo     Store
	balances BalanceCreator

	// known — кто уже проверен в этом процессе, чтобы не ходить в БД на каждое сообщение
	mu    sync.RWMutex
	known map[int64]UpdateInfo
}

// NewService создаёт новый сервис участников.
func NewService(repo Store, balances BalanceCreator) *Service {
	return &Service{repo: repo, balances: balances, known: make(map[int64]UpdateInfo)}
}

// EnsureMember гарантирует, что пользователь есть в базе и у него есть баланс.
// Если имя или username поменялись, обновляет запись.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	info := UpdateInfo{Username: username, FirstName: firstName, LastName: lastName}

	s.mu.RLock()
	cached, ok := s.known[userID]
	s.mu.RUnlock()
	if ok && cached == info {
		return nil
	}

	existing, err := s.repo.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		if existing.Changed(info) {
			if err := s.repo.UpdateInfo(ctx, userID, info); err != nil {
				return err
			}
			log.WithField("user_id", userID).Debug("Данные участника обновлены")
		}
	case errors.Is(err, common.ErrUserNotFound):
		if err := s.register(ctx, userID, info); err != nil {
			return err
		}
	default:
		return err
	}

	s.mu.Lock()
	s.known[userID] = info
	s.mu.Unlock()
	return nil
}

func (s *Service) register(ctx context.Context, userID int64, info UpdateInfo) error {
	member := &Member{
		UserID:    userID,
		Username:  info.Username,
		FirstName: info.FirstName,
		LastName:  info.LastName,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("ошибка регистрации нового участника: %w", err)
	}
	if s.balances != nil {
		if err := s.balances.CreateBalance(ctx, userID); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": info.Username,
	}).Info("Новый участник зарегистрирован")
	return nil
}

// GetByUserID возвращает участника по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}
