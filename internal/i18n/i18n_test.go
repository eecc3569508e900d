package i18n

import (
	"strings"
	"testing"

	"compliment-bot/internal/domain"
)

func TestLoad(t *testing.T) {
	texts, err := Load()
	if err != nil {
		t.Fatalf("загрузка переводов: %v", err)
	}

	keys := []string{
		"messages.start",
		"messages.stopping",
		"messages.not_running",
		"messages.help",
		"messages.fallback_compliment",
		"messages.settime_usage",
		"messages.settime_invalid",
		"messages.settime_success",
		"messages.setlanguage_usage",
		"messages.setlanguage_invalid",
		"messages.setlanguage_success",
		"prompts.compose_system",
		"prompts.compose_user",
		"prompts.select_system",
		"prompts.select_user",
	}
	for _, lang := range domain.Languages() {
		for _, key := range keys {
			if got := texts.Text(lang, key); got == key || strings.TrimSpace(got) == "" {
				t.Fatalf("нет перевода %s для языка %s", key, lang)
			}
		}
		for _, other := range domain.Languages() {
			if texts.Text(lang, "language_names."+string(other)) == "" {
				t.Fatalf("нет названия языка %s в %s", other, lang)
			}
		}
	}
}

func TestTextFallsBackToEnglish(t *testing.T) {
	texts, err := Load()
	if err != nil {
		t.Fatalf("загрузка переводов: %v", err)
	}
	want := texts.Text(domain.LanguageEN, "messages.start")
	if got := texts.Text(domain.Language("de"), "messages.start"); got != want {
		t.Fatalf("неизвестный язык должен падать на английский: %q", got)
	}
	if got := texts.Text(domain.LanguageEN, "messages.no_such_key"); got != "messages.no_such_key" {
		t.Fatalf("отсутствующий ключ возвращается как есть: %q", got)
	}
}

func TestTextf(t *testing.T) {
	texts, err := Load()
	if err != nil {
		t.Fatalf("загрузка переводов: %v", err)
	}
	got := texts.Textf(domain.LanguageEN, "prompts.compose_user", map[string]string{
		"title":       "Rocket launch",
		"description": "all good",
	})
	if !strings.Contains(got, "Rocket launch") || !strings.Contains(got, "all good") {
		t.Fatalf("плейсхолдеры не подставились: %q", got)
	}
	if strings.Contains(got, "{title}") || strings.Contains(got, "{description}") {
		t.Fatalf("остались сырые плейсхолдеры: %q", got)
	}
}
