// Package filters решает, в каких чатах бот отвечает на команды.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает личные сообщения и, если задан, общий чат привычек (HABITS_CHAT_ID).
type ChatFilter struct {
	habitsChatID int64
}

func NewChatFilter(habitsChatID int64) *ChatFilter {
	return &ChatFilter{habitsChatID: habitsChatID}
}

// IsHabitsChat проверяет, что это настроенный групповой чат.
func (f *ChatFilter) IsHabitsChat(chatID int64) bool {
	return f.habitsChatID != 0 && chatID == f.habitsChatID
}

func (f *ChatFilter) CheckAccess(message *telego.Message) bool {
	if message == nil {
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("nil message.From (service/channel message?)")
		return false
	}
	if message.From.IsBot {
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	if message.Chat.Type == telego.ChatTypePrivate {
		return true
	}
	if f.IsHabitsChat(message.Chat.ID) {
		return true
	}

	logger.Debug("deny: not habits chat and not private")
	return false
}
