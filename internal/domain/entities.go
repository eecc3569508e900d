package domain

import "time"

// Language — язык комплиментов и сообщений бота.
type Language string

const (
	// LanguageEN — английский.
	LanguageEN Language = "en"
	// LanguageRU — русский.
	LanguageRU Language = "ru"
)

// DefaultLanguage используется, пока подписчик не выбрал язык.
const DefaultLanguage = LanguageEN

// DefaultHour — час доставки по умолчанию (GMT).
const DefaultHour = 8

// Languages перечисляет поддерживаемые языки в порядке запуска генерации.
func Languages() []Language {
	return []Language{LanguageEN, LanguageRU}
}

// ParseLanguage проверяет код языка.
func ParseLanguage(raw string) (Language, error) {
	switch Language(raw) {
	case LanguageEN, LanguageRU:
		return Language(raw), nil
	}
	return "", ErrUnsupportedLanguage
}

// NewsItem — один свежий заголовок новости. Не сохраняется.
type NewsItem struct {
	Title       string
	Description string
}

// Candidate — вариант комплимента, построенный по одной новости.
type Candidate struct {
	Item NewsItem
	Text string
}

// DailyMessage — комплимент дня для конкретного языка. Ключ (date, language).
type DailyMessage struct {
	Date     time.Time
	Language Language
	Text     string
}

// Subscriber хранит настройки подписчика.
type Subscriber struct {
	ChatID    int64
	Hour      int
	Language  Language
	Activated bool
}

// TimeOfDay — время суток в UTC.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Day обрезает время до календарной даты в UTC.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
