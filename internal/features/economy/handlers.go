// Package economy — handlers.go обрабатывает команды:
// !очки (баланс), !история (транзакции), !начислить (корректировка админом).
package economy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/habit-bot/internal/common"
)

// Sender отправляет текст в чат.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Handler обрабатывает команды журнала очков.
type Handler struct {
	service *Service
	sender  Sender
	isAdmin func(userID int64) bool
}

// NewHandler создаёт новый обработчик команд очков.
func NewHandler(service *Service, sender Sender, isAdmin func(userID int64) bool) *Handler {
	return &Handler{service: service, sender: sender, isAdmin: isAdmin}
}

// HandleBalance обрабатывает команду !очки — показывает баланс.
//
// Формат ответа:
//
//	💰 Баланс: 150 очков
//	За неделю: +40 очков
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, userID int64) {
	stats, err := h.service.GetStats(ctx, userID)
	if errors.Is(err, common.ErrUserNotFound) {
		h.sendMessage(ctx, chatID, "💰 Баланс: "+common.FormatBalance(0))
		return
	}
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения баланса")
		return
	}

	text := fmt.Sprintf("💰 Баланс: %s\nЗа неделю: %s\nВсего заработано: %s",
		common.FormatBalance(stats.Balance),
		common.FormatPointsAmount(stats.WeekEarned),
		common.FormatBalance(stats.TotalEarned))
	h.sendMessage(ctx, chatID, text)
}

// HandleTransactions обрабатывает команду !история.
func (h *Handler) HandleTransactions(ctx context.Context, chatID int64, userID int64) {
	history, err := h.service.GetTransactionHistory(ctx, userID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения истории")
		return
	}
	h.sendMessage(ctx, chatID, history)
}

// HandleAdjust обрабатывает !начислить <user_id> <±сумма> [причина]. Только для ADMIN_IDS.
func (h *Handler) HandleAdjust(ctx context.Context, chatID, adminID int64, args []string) {
	if h.isAdmin == nil || !h.isAdmin(adminID) {
		h.sendMessage(ctx, chatID, "❌ "+common.ErrNotAdmin.Error())
		return
	}
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !начислить <user_id> <±сумма> [причина]")
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Некорректный user_id")
		return
	}
	delta, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || delta == 0 {
		h.sendMessage(ctx, chatID, "❌ Сумма должна быть ненулевым целым числом")
		return
	}

	err = h.service.AdjustBalance(ctx, adminID, userID, delta, strings.Join(args[2:], " "))
	switch {
	case err == nil:
	case errors.Is(err, common.ErrInsufficientBalance):
		h.sendMessage(ctx, chatID, "❌ Недостаточно очков для списания")
		return
	case errors.Is(err, common.ErrUserNotFound):
		h.sendMessage(ctx, chatID, "❌ Пользователь не найден")
		return
	default:
		log.WithError(err).Error("Ошибка корректировки баланса")
		h.sendMessage(ctx, chatID, "❌ Ошибка корректировки баланса")
		return
	}

	balance, _ := h.service.GetBalance(ctx, userID)
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ %s пользователю %d\nБаланс: %s",
		common.FormatPointsAmount(delta), userID, common.FormatBalance(balance)))
}

// sendMessage — вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
