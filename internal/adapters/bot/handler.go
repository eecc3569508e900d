package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"compliment-bot/internal/domain"
	"compliment-bot/internal/i18n"
	"compliment-bot/internal/usecase/jobs"
)

// Handler обслуживает команды подписчиков.
type Handler struct {
	messenger   domain.Messenger
	log         zerolog.Logger
	subscribers domain.SubscriberRepo
	jobs        *jobs.Service
	texts       *i18n.Bundle
}

// NewHandler создаёт обработчик.
func NewHandler(messenger domain.Messenger, log zerolog.Logger, subscribers domain.SubscriberRepo, jobsUC *jobs.Service, texts *i18n.Bundle) *Handler {
	return &Handler{
		messenger:   messenger,
		log:         log,
		subscribers: subscribers,
		jobs:        jobsUC,
		texts:       texts,
	}
}

// HandleUpdate обрабатывает входящий апдейт.
func (h *Handler) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		h.handleStart(ctx, chatID)
	case strings.HasPrefix(text, "/stop"):
		h.handleStop(ctx, chatID)
	case strings.HasPrefix(text, "/settime"):
		h.handleSetTime(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/settime")))
	case strings.HasPrefix(text, "/setlanguage"):
		h.handleSetLanguage(ctx, chatID, strings.ToLower(strings.TrimSpace(strings.TrimPrefix(text, "/setlanguage"))))
	default:
		h.handleHelp(ctx, chatID)
	}
}

func (h *Handler) handleStart(ctx context.Context, chatID int64) {
	sub, err := h.subscribers.GetSubscriber(ctx, chatID)
	if errors.Is(err, domain.ErrSubscriberNotFound) {
		sub = domain.Subscriber{ChatID: chatID, Hour: domain.DefaultHour, Language: domain.DefaultLanguage}
		if err := h.subscribers.SetHour(ctx, chatID, sub.Hour); err != nil {
			h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось сохранить час по умолчанию")
		}
		if err := h.subscribers.SetLanguage(ctx, chatID, sub.Language); err != nil {
			h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось сохранить язык по умолчанию")
		}
	} else if err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось прочитать подписчика")
		sub = domain.Subscriber{ChatID: chatID, Hour: domain.DefaultHour, Language: domain.DefaultLanguage}
	}

	if err := h.subscribers.SetActivated(ctx, chatID, true); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось активировать подписку")
	}
	sub.Activated = true
	h.jobs.ScheduleSubscriber(sub, true)
	h.reply(chatID, h.texts.Text(sub.Language, "messages.start"))
}

func (h *Handler) handleStop(ctx context.Context, chatID int64) {
	lang := h.lang(ctx, chatID)
	removed := h.jobs.CancelSubscriber(chatID)
	if err := h.subscribers.SetActivated(ctx, chatID, false); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось деактивировать подписку")
	}
	key := "messages.not_running"
	if removed {
		key = "messages.stopping"
	}
	h.reply(chatID, h.texts.Text(lang, key))
}

func (h *Handler) handleSetTime(ctx context.Context, chatID int64, arg string) {
	lang := h.lang(ctx, chatID)
	if arg == "" {
		h.reply(chatID, h.texts.Text(lang, "messages.settime_usage"))
		return
	}
	hour, err := strconv.Atoi(arg)
	if err != nil || hour < 0 || hour > 23 {
		h.reply(chatID, h.texts.Text(lang, "messages.settime_invalid"))
		return
	}
	if err := h.subscribers.SetHour(ctx, chatID, hour); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось сохранить час доставки")
		h.reply(chatID, h.texts.Text(lang, "messages.settime_invalid"))
		return
	}
	if err := h.subscribers.SetActivated(ctx, chatID, true); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось активировать подписку")
	}
	h.jobs.ScheduleSubscriber(domain.Subscriber{ChatID: chatID, Hour: hour, Language: lang, Activated: true}, false)

	h.reply(chatID, h.texts.Textf(lang, "messages.settime_success", map[string]string{
		"hour_display": fmt.Sprintf("%02d:00", hour),
		"display_time": displayTime(hour),
	}))
}

func (h *Handler) handleSetLanguage(ctx context.Context, chatID int64, arg string) {
	current := h.lang(ctx, chatID)
	if arg == "" {
		h.reply(chatID, h.texts.Text(current, "messages.setlanguage_usage"))
		return
	}
	lang, err := domain.ParseLanguage(arg)
	if err != nil {
		h.reply(chatID, h.texts.Text(current, "messages.setlanguage_invalid"))
		return
	}
	if err := h.subscribers.SetLanguage(ctx, chatID, lang); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось сохранить язык")
		h.reply(chatID, h.texts.Text(current, "messages.setlanguage_invalid"))
		return
	}
	h.reply(chatID, h.texts.Textf(lang, "messages.setlanguage_success", map[string]string{
		"language_name": h.texts.Text(lang, "language_names."+string(lang)),
	}))
}

func (h *Handler) handleHelp(ctx context.Context, chatID int64) {
	h.reply(chatID, h.texts.Text(h.lang(ctx, chatID), "messages.help"))
}

func (h *Handler) lang(ctx context.Context, chatID int64) domain.Language {
	lang, err := h.subscribers.GetLanguage(ctx, chatID)
	if err != nil {
		return domain.DefaultLanguage
	}
	return lang
}

func (h *Handler) reply(chatID int64, text string) {
	if err := h.messenger.Send(chatID, text); err != nil {
		h.log.Error().Err(err).Int64("chat", chatID).Msg("не удалось ответить подписчику")
	}
}

// displayTime переводит час в 12-часовой вид для подтверждения /settime.
func displayTime(hour int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:00 %s", hour12, period)
}
