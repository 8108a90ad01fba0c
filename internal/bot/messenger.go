package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// messageAPI — часть telego.Bot, которая нужна для отправки сообщений.
type messageAPI interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// Messenger отправляет сообщения через Telegram.
// Реализует Sender для обработчиков и отдаёт Notify для фоновых задач.
type Messenger struct {
	api     messageAPI
	timeout time.Duration
}

// NewMessenger создаёт отправителя поверх telego.Bot.
func NewMessenger(api messageAPI) *Messenger {
	return &Messenger{api: api, timeout: 15 * time.Second}
}

// SendText отправляет текстовое сообщение в чат.
func (m *Messenger) SendText(ctx context.Context, chatID int64, text string) error {
	if text == "" {
		return nil
	}
	if _, err := m.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		return fmt.Errorf("отправка в чат %d: %w", chatID, err)
	}
	return nil
}

// Notify отправляет сообщение пользователю в личку (напоминания, уведомления о сбросе серии).
// Пользователь мог заблокировать бота, поэтому ошибка только логируется.
func (m *Messenger) Notify(userID int64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.SendText(ctx, userID, text); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
		return
	}
	log.WithField("user_id", userID).Debug("message sent")
}
