package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"compliment-bot/internal/domain"
	"compliment-bot/internal/i18n"
	"compliment-bot/internal/infra/metrics"
)

// Service отправляет подписчику комплимент дня. Подписчик всегда получает
// текст: при любом сбое — запасной комплимент на его языке.
type Service struct {
	subscribers domain.SubscriberRepo
	messages    domain.MessageRepo
	messenger   domain.Messenger
	texts       *i18n.Bundle
	now         func() time.Time
	log         zerolog.Logger
}

// NewService создаёт сервис доставки.
func NewService(subscribers domain.SubscriberRepo, messages domain.MessageRepo, messenger domain.Messenger, texts *i18n.Bundle, log zerolog.Logger) *Service {
	return &Service{
		subscribers: subscribers,
		messages:    messages,
		messenger:   messenger,
		texts:       texts,
		now:         time.Now,
		log:         log,
	}
}

// Deliver отправляет комплимент за сегодня на языке подписчика. Ошибки
// транспорта логируются и не всплывают: доставки других подписчиков
// независимы.
func (s *Service) Deliver(ctx context.Context, chatID int64) {
	lang, err := s.subscribers.GetLanguage(ctx, chatID)
	if err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("не удалось получить язык подписчика")
		lang = domain.DefaultLanguage
	}

	today := domain.Day(s.now())
	source := "cached"
	text, err := s.messages.GetMessage(ctx, today, lang)
	if err != nil {
		if !errors.Is(err, domain.ErrMessageNotFound) {
			s.log.Warn().Err(err).Int64("chat", chatID).Msg("не удалось прочитать комплимент дня")
		}
		source = "fallback"
		text = s.texts.Text(lang, "messages.fallback_compliment")
	}

	if err := s.messenger.Send(chatID, text); err != nil {
		s.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось отправить комплимент")
		return
	}
	metrics.IncDelivery(string(lang), source)
}
