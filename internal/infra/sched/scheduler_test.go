package sched

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"compliment-bot/internal/domain"
)

func TestOnceFires(t *testing.T) {
	s := New(zerolog.Nop())
	fired := make(chan struct{})
	s.Once("k", 10*time.Millisecond, func(context.Context) { close(fired) })

	if !s.Exists("k") {
		t.Fatalf("задача должна быть зарегистрирована")
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatalf("задача не сработала")
	}

	deadline := time.Now().Add(time.Second)
	for s.Exists("k") {
		if time.Now().After(deadline) {
			t.Fatalf("одноразовая задача должна исчезнуть после срабатывания")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCancelPreventsFire(t *testing.T) {
	s := New(zerolog.Nop())
	fired := make(chan struct{}, 1)
	s.Once("k", 50*time.Millisecond, func(context.Context) { fired <- struct{}{} })

	if !s.Cancel("k") {
		t.Fatalf("ожидали снятие существующей задачи")
	}
	if s.Cancel("k") {
		t.Fatalf("повторное снятие должно вернуть false")
	}
	select {
	case <-fired:
		t.Fatalf("снятая задача не должна срабатывать")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestOnceReplaced(t *testing.T) {
	s := New(zerolog.Nop())
	which := make(chan string, 2)
	s.Once("k", 50*time.Millisecond, func(context.Context) { which <- "первая" })
	s.Once("k", 50*time.Millisecond, func(context.Context) { which <- "вторая" })

	select {
	case got := <-which:
		if got != "вторая" {
			t.Fatalf("должна сработать только замена, сработала %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("замена не сработала")
	}
	select {
	case got := <-which:
		t.Fatalf("не ожидали второго срабатывания: %q", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDailyCancelAndExists(t *testing.T) {
	s := New(zerolog.Nop())
	s.Daily("daily", domain.TimeOfDay{Hour: 3}, func(context.Context) {})

	if !s.Exists("daily") {
		t.Fatalf("ежедневная задача должна быть зарегистрирована")
	}
	if !s.Cancel("daily") {
		t.Fatalf("ожидали снятие задачи")
	}
	if s.Exists("daily") {
		t.Fatalf("после снятия задачи быть не должно")
	}
}

func TestStopClearsAll(t *testing.T) {
	s := New(zerolog.Nop())
	s.Once("a", time.Hour, func(context.Context) {})
	s.Daily("b", domain.TimeOfDay{Hour: 1}, func(context.Context) {})

	s.Stop()

	if s.Exists("a") || s.Exists("b") {
		t.Fatalf("после Stop задач быть не должно")
	}
}

func TestUntilNext(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

	if got := untilNext(now, domain.TimeOfDay{Hour: 11, Minute: 0}); got != 30*time.Minute {
		t.Fatalf("ожидали 30 минут, получили %v", got)
	}
	// Время уже прошло — следующий запуск завтра.
	if got := untilNext(now, domain.TimeOfDay{Hour: 10, Minute: 30}); got != 24*time.Hour {
		t.Fatalf("ожидали сутки, получили %v", got)
	}
	if got := untilNext(now, domain.TimeOfDay{Hour: 8, Minute: 0}); got != 21*time.Hour+30*time.Minute {
		t.Fatalf("ожидали 21ч30м, получили %v", got)
	}
}
