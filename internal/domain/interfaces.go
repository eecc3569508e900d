package domain

import (
	"context"
	"time"
)

// HeadlineSource возвращает свежие новости для указанной даты.
type HeadlineSource interface {
	Headlines(ctx context.Context, date time.Time) ([]NewsItem, error)
}

// Composer строит один вариант комплимента по новости.
type Composer interface {
	Compose(ctx context.Context, lang Language, item NewsItem) (Candidate, error)
}

// Selector выбирает лучший комплимент из собранных вариантов.
type Selector interface {
	Select(ctx context.Context, lang Language, candidates []Candidate) (string, error)
}

// MessageRepo хранит комплименты дня.
type MessageRepo interface {
	// GetMessage возвращает текст комплимента или ErrMessageNotFound.
	GetMessage(ctx context.Context, date time.Time, lang Language) (string, error)
	// SaveMessage вставляет комплимент. Повторная вставка по тому же ключу
	// возвращает ErrDuplicateMessage.
	SaveMessage(ctx context.Context, msg DailyMessage) error
}

// SubscriberRepo управляет настройками подписчиков.
type SubscriberRepo interface {
	GetSubscriber(ctx context.Context, chatID int64) (Subscriber, error)
	// GetLanguage возвращает язык подписчика; для неизвестного чата — DefaultLanguage.
	GetLanguage(ctx context.Context, chatID int64) (Language, error)
	SetHour(ctx context.Context, chatID int64, hour int) error
	SetLanguage(ctx context.Context, chatID int64, lang Language) error
	SetActivated(ctx context.Context, chatID int64, activated bool) error
	ListActivated(ctx context.Context) ([]Subscriber, error)
}

// Messenger отправляет текст подписчику.
type Messenger interface {
	Send(chatID int64, text string) error
}

// Scheduler — фасад над таймерами процесса. Регистрация по занятому ключу
// заменяет прежнюю задачу; Cancel не прерывает уже запущенный обработчик.
type Scheduler interface {
	Once(key string, delay time.Duration, fn func(context.Context))
	Daily(key string, at TimeOfDay, fn func(context.Context))
	Cancel(key string) bool
	Exists(key string) bool
}

// Locker ограничивает повторный запуск работы между процессами.
type Locker interface {
	// Once выполняет fn, если ключ ещё не занят, и держит ключ ttl.
	// Занятый ключ — не ошибка: работа уже идёт в другом месте.
	Once(key string, ttl time.Duration, fn func() error) error
}
