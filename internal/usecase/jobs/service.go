package jobs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"compliment-bot/internal/domain"
	"compliment-bot/internal/usecase/generation"
)

// Generator запускает конвейер генерации комплимента.
type Generator interface {
	Generate(ctx context.Context, date time.Time, lang domain.Language) (generation.Outcome, error)
}

// Deliverer отправляет комплимент подписчику.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64)
}

// Config задаёт времена запуска задач.
type Config struct {
	// GenerateAt — время суток UTC для генерации первого языка.
	GenerateAt domain.TimeOfDay
	// Stagger — сдвиг запуска между языками, чтобы прогоны не толкались
	// за лимиты модели.
	Stagger time.Duration
	// FirstRunDelay — задержка ближайшего разового запуска после старта
	// процесса или подписки.
	FirstRunDelay time.Duration
}

// Service регистрирует триггеры генерации и доставки в планировщике.
type Service struct {
	cfg         Config
	sched       domain.Scheduler
	subscribers domain.SubscriberRepo
	generator   Generator
	deliverer   Deliverer
	locker      domain.Locker
	now         func() time.Time
	log         zerolog.Logger
}

// NewService создаёт сервис расписаний. locker может быть nil — тогда
// межпроцессной блокировки нет и от дублей защищает только первичный ключ.
func NewService(cfg Config, sched domain.Scheduler, subscribers domain.SubscriberRepo, generator Generator, deliverer Deliverer, locker domain.Locker, log zerolog.Logger) *Service {
	return &Service{
		cfg:         cfg,
		sched:       sched,
		subscribers: subscribers,
		generator:   generator,
		deliverer:   deliverer,
		locker:      locker,
		now:         time.Now,
		log:         log,
	}
}

// ScheduleGeneration регистрирует разовый запуск после старта и ежедневный
// запуск генерации для каждого языка со сдвигом.
func (s *Service) ScheduleGeneration() {
	for i, lang := range domain.Languages() {
		lang := lang
		offset := time.Duration(i) * s.cfg.Stagger
		run := func(ctx context.Context) { s.runGeneration(ctx, lang) }
		s.sched.Once("generate:init:"+string(lang), s.cfg.FirstRunDelay+offset, run)
		s.sched.Daily("generate:daily:"+string(lang), shift(s.cfg.GenerateAt, offset), run)
	}
}

// ScheduleSubscriber регистрирует доставку подписчику: ежедневно в его час и,
// при immediate, почти сразу. Существующие триггеры подписчика снимаются,
// чтобы не было двойных отправок.
func (s *Service) ScheduleSubscriber(sub domain.Subscriber, immediate bool) {
	s.CancelSubscriber(sub.ChatID)
	deliver := func(ctx context.Context) { s.deliverer.Deliver(ctx, sub.ChatID) }
	if immediate {
		s.sched.Once(deliverOnceKey(sub.ChatID), s.cfg.FirstRunDelay, deliver)
	}
	s.sched.Daily(deliverDailyKey(sub.ChatID), domain.TimeOfDay{Hour: sub.Hour}, deliver)
}

// CancelSubscriber снимает триггеры подписчика. Возвращает, был ли хоть один.
func (s *Service) CancelSubscriber(chatID int64) bool {
	daily := s.sched.Cancel(deliverDailyKey(chatID))
	once := s.sched.Cancel(deliverOnceKey(chatID))
	return daily || once
}

// Restore заново регистрирует доставку всем активным подписчикам после
// рестарта процесса.
func (s *Service) Restore(ctx context.Context) error {
	subs, err := s.subscribers.ListActivated(ctx)
	if err != nil {
		return fmt.Errorf("список активных подписчиков: %w", err)
	}
	for _, sub := range subs {
		s.ScheduleSubscriber(sub, false)
	}
	s.log.Info().Int("count", len(subs)).Msg("восстановлены расписания подписчиков")
	return nil
}

func (s *Service) runGeneration(ctx context.Context, lang domain.Language) {
	day := domain.Day(s.now())
	work := func() error {
		_, err := s.generator.Generate(ctx, day, lang)
		return err
	}
	if s.locker == nil {
		if err := work(); err != nil {
			s.log.Error().Err(err).Str("language", string(lang)).Msg("генерация комплимента завершилась ошибкой")
		}
		return
	}
	key := "compliment:generate:" + day.Format("2006-01-02") + ":" + string(lang)
	if err := s.locker.Once(key, time.Hour, work); err != nil {
		s.log.Error().Err(err).Str("language", string(lang)).Msg("генерация комплимента завершилась ошибкой")
	}
}

func deliverOnceKey(chatID int64) string {
	return "deliver:once:" + strconv.FormatInt(chatID, 10)
}

func deliverDailyKey(chatID int64) string {
	return "deliver:daily:" + strconv.FormatInt(chatID, 10)
}

func shift(at domain.TimeOfDay, by time.Duration) domain.TimeOfDay {
	total := time.Duration(at.Hour)*time.Hour + time.Duration(at.Minute)*time.Minute + by
	total %= 24 * time.Hour
	return domain.TimeOfDay{
		Hour:   int(total / time.Hour),
		Minute: int(total % time.Hour / time.Minute),
	}
}
