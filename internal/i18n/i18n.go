package i18n

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"compliment-bot/internal/domain"
)

//go:embed translations/*.yaml
var translationsFS embed.FS

// Bundle хранит переводы по языкам плоским словарём с ключами вида "messages.start".
type Bundle struct {
	byLang map[domain.Language]map[string]string
}

// Load читает встроенные файлы переводов для всех поддерживаемых языков.
func Load() (*Bundle, error) {
	byLang := make(map[domain.Language]map[string]string, len(domain.Languages()))
	for _, lang := range domain.Languages() {
		data, err := translationsFS.ReadFile("translations/" + string(lang) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("чтение переводов %s: %w", lang, err)
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("разбор переводов %s: %w", lang, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		byLang[lang] = flat
	}
	return &Bundle{byLang: byLang}, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Text возвращает перевод по ключу. При отсутствии — английский вариант,
// затем сам ключ.
func (b *Bundle) Text(lang domain.Language, key string) string {
	if m, ok := b.byLang[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := b.byLang[domain.DefaultLanguage]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Textf подставляет значения в плейсхолдеры вида {name}.
func (b *Bundle) Textf(lang domain.Language, key string, args map[string]string) string {
	text := b.Text(lang, key)
	for name, value := range args {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return text
}
