package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"compliment-bot/internal/domain"
)

// Scheduler — фасад над таймерами процесса: одноразовые и ежедневные задачи
// по строковому ключу. Каждое срабатывание выполняет обработчик в отдельной
// горутине, чтобы долгий вызов модели не задерживал остальные задачи.
type Scheduler struct {
	log  zerolog.Logger
	now  func() time.Time
	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	stop chan struct{}
}

var _ domain.Scheduler = (*Scheduler)(nil)

// New создаёт планировщик.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{log: log, now: time.Now, jobs: make(map[string]*job)}
}

// Once планирует одноразовый запуск через delay. Существующая задача с тем же
// ключом снимается.
func (s *Scheduler) Once(key string, delay time.Duration, fn func(context.Context)) {
	j := s.register(key)
	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			s.forget(key, j)
			s.invoke(key, fn)
		case <-j.stop:
		}
	}()
}

// Daily планирует ежедневный запуск в указанное время UTC.
func (s *Scheduler) Daily(key string, at domain.TimeOfDay, fn func(context.Context)) {
	j := s.register(key)
	go func() {
		for {
			timer := time.NewTimer(untilNext(s.now().UTC(), at))
			select {
			case <-timer.C:
				go s.invoke(key, fn)
			case <-j.stop:
				timer.Stop()
				return
			}
		}
	}()
}

// Cancel снимает задачу по ключу. Уже запущенный обработчик не прерывается.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[key]
	if !ok {
		return false
	}
	close(j.stop)
	delete(s.jobs, key)
	return true
}

// Exists сообщает, зарегистрирована ли задача.
func (s *Scheduler) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[key]
	return ok
}

// Stop снимает все задачи. Запущенные обработчики дорабатывают до конца.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, j := range s.jobs {
		close(j.stop)
		delete(s.jobs, key)
	}
}

func (s *Scheduler) register(key string) *job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.jobs[key]; ok {
		close(old.stop)
	}
	j := &job{stop: make(chan struct{})}
	s.jobs[key] = j
	return j
}

// forget убирает одноразовую задачу из реестра, если её не успели заменить.
func (s *Scheduler) forget(key string, j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.jobs[key]; ok && cur == j {
		delete(s.jobs, key)
	}
}

func (s *Scheduler) invoke(key string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("job", key).Msg("обработчик задачи упал")
		}
	}()
	fn(context.Background())
}

func untilNext(now time.Time, at domain.TimeOfDay) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
