package telegram

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"compliment-bot/internal/domain"
	"compliment-bot/internal/infra/metrics"
)

// Messenger отправляет сообщения подписчикам через Bot API.
type Messenger struct {
	bot *tgbotapi.BotAPI
}

var _ domain.Messenger = (*Messenger)(nil)

// NewMessenger создаёт отправителя.
func NewMessenger(bot *tgbotapi.BotAPI) *Messenger {
	return &Messenger{bot: bot}
}

// Send отправляет текст в чат, разбивая слишком длинные сообщения.
func (m *Messenger) Send(chatID int64, text string) error {
	for _, part := range SplitMessage(text) {
		start := time.Now()
		_, err := m.bot.Send(tgbotapi.NewMessage(chatID, part))
		metrics.ObserveNetworkRequest("telegram", "send_message", "bot_api", start, err)
		if err != nil {
			metrics.IncSendError()
			return fmt.Errorf("отправка сообщения: %w", err)
		}
	}
	return nil
}
