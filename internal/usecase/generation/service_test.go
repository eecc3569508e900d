package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"compliment-bot/internal/domain"
)

type stubMessages struct {
	mu       sync.Mutex
	existing map[string]string
	saved    []domain.DailyMessage
	saveErr  error
	getCalls int
}

func msgKey(date time.Time, lang domain.Language) string {
	return date.Format("2006-01-02") + ":" + string(lang)
}

func (s *stubMessages) GetMessage(_ context.Context, date time.Time, lang domain.Language) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if text, ok := s.existing[msgKey(date, lang)]; ok {
		return text, nil
	}
	return "", domain.ErrMessageNotFound
}

func (s *stubMessages) SaveMessage(_ context.Context, msg domain.DailyMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, msg)
	return nil
}

type stubSource struct {
	items []domain.NewsItem
	err   error
	calls int
}

func (s *stubSource) Headlines(context.Context, time.Time) ([]domain.NewsItem, error) {
	s.calls++
	return s.items, s.err
}

type stubComposer struct {
	mu         sync.Mutex
	failTitles map[string]bool
	calls      int
}

func (s *stubComposer) Compose(_ context.Context, _ domain.Language, item domain.NewsItem) (domain.Candidate, error) {
	s.mu.Lock()
	s.calls++
	fail := s.failTitles[item.Title]
	s.mu.Unlock()
	if fail {
		return domain.Candidate{}, errors.New("модель недоступна")
	}
	return domain.Candidate{Item: item, Text: "вариант: " + item.Title}, nil
}

type stubSelector struct {
	mu    sync.Mutex
	got   [][]domain.Candidate
	text  string
	err   error
	calls int
}

func (s *stubSelector) Select(_ context.Context, _ domain.Language, candidates []domain.Candidate) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.got = append(s.got, candidates)
	return s.text, s.err
}

func newTestService(messages *stubMessages, source *stubSource, composer *stubComposer, selector *stubSelector) *Service {
	if messages.existing == nil {
		messages.existing = map[string]string{}
	}
	return NewService(messages, source, composer, selector, zerolog.Nop())
}

var testDay = time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

func TestGenerateIdempotent(t *testing.T) {
	messages := &stubMessages{existing: map[string]string{msgKey(testDay, domain.LanguageEN): "готово"}}
	source := &stubSource{}
	composer := &stubComposer{}
	selector := &stubSelector{text: "лучший"}
	service := newTestService(messages, source, composer, selector)

	outcome, err := service.Generate(context.Background(), testDay, domain.LanguageEN)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if outcome != OutcomeCached {
		t.Fatalf("ожидали OutcomeCached, получили %q", outcome)
	}
	if source.calls != 0 {
		t.Fatalf("не ожидали обращения к новостям")
	}
	if composer.calls != 0 || selector.calls != 0 {
		t.Fatalf("не ожидали вызовов модели")
	}
	if len(messages.saved) != 0 {
		t.Fatalf("не ожидали новых сохранений")
	}
}

func TestGeneratePersistsSelected(t *testing.T) {
	messages := &stubMessages{}
	source := &stubSource{items: []domain.NewsItem{
		{Title: "первая"},
		{Title: "вторая"},
		{Title: "третья"},
	}}
	composer := &stubComposer{failTitles: map[string]bool{"вторая": true}}
	selector := &stubSelector{text: "лучший комплимент"}
	service := newTestService(messages, source, composer, selector)

	outcome, err := service.Generate(context.Background(), testDay, domain.LanguageRU)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if outcome != OutcomeGenerated {
		t.Fatalf("ожидали OutcomeGenerated, получили %q", outcome)
	}
	if selector.calls != 1 {
		t.Fatalf("ожидали один вызов выбора, получили %d", selector.calls)
	}
	if len(selector.got[0]) != 2 {
		t.Fatalf("ожидали 2 кандидата после отказа по одной новости, получили %d", len(selector.got[0]))
	}
	for _, cand := range selector.got[0] {
		if cand.Item.Title == "вторая" {
			t.Fatalf("кандидат по неудачной новости не должен попасть в выбор")
		}
	}
	if len(messages.saved) != 1 {
		t.Fatalf("ожидали одну сохранённую запись, получили %d", len(messages.saved))
	}
	saved := messages.saved[0]
	if saved.Text != "лучший комплимент" || saved.Language != domain.LanguageRU || !saved.Date.Equal(testDay) {
		t.Fatalf("сохранена неожиданная запись: %+v", saved)
	}
}

func TestGenerateAllCandidatesFail(t *testing.T) {
	messages := &stubMessages{}
	source := &stubSource{items: []domain.NewsItem{{Title: "а"}, {Title: "б"}}}
	composer := &stubComposer{failTitles: map[string]bool{"а": true, "б": true}}
	selector := &stubSelector{text: "лучший"}
	service := newTestService(messages, source, composer, selector)

	outcome, err := service.Generate(context.Background(), testDay, domain.LanguageEN)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if outcome != OutcomeNoCandidates {
		t.Fatalf("ожидали OutcomeNoCandidates, получили %q", outcome)
	}
	if selector.calls != 0 {
		t.Fatalf("выбор не должен вызываться без кандидатов")
	}
	if len(messages.saved) != 0 {
		t.Fatalf("ничего не должно сохраняться")
	}
}

func TestGenerateNoHeadlines(t *testing.T) {
	for name, source := range map[string]*stubSource{
		"пустой список": {},
		"ошибка сети":   {err: errors.New("таймаут")},
	} {
		messages := &stubMessages{}
		composer := &stubComposer{}
		selector := &stubSelector{text: "лучший"}
		service := newTestService(messages, source, composer, selector)

		outcome, err := service.Generate(context.Background(), testDay, domain.LanguageEN)
		if err != nil {
			t.Fatalf("%s: не ожидали ошибку: %v", name, err)
		}
		if outcome != OutcomeNoHeadlines {
			t.Fatalf("%s: ожидали OutcomeNoHeadlines, получили %q", name, outcome)
		}
		if composer.calls != 0 || selector.calls != 0 {
			t.Fatalf("%s: не ожидали вызовов модели", name)
		}
	}
}

func TestGenerateSelectFailure(t *testing.T) {
	messages := &stubMessages{}
	source := &stubSource{items: []domain.NewsItem{{Title: "новость"}}}
	composer := &stubComposer{}
	selector := &stubSelector{err: errors.New("пустой ответ")}
	service := newTestService(messages, source, composer, selector)

	outcome, err := service.Generate(context.Background(), testDay, domain.LanguageEN)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if outcome != OutcomeSelectFailed {
		t.Fatalf("ожидали OutcomeSelectFailed, получили %q", outcome)
	}
	if len(messages.saved) != 0 {
		t.Fatalf("ничего не должно сохраняться при неудачном выборе")
	}
}

func TestGenerateDuplicateSaveTreatedAsSuccess(t *testing.T) {
	messages := &stubMessages{saveErr: domain.ErrDuplicateMessage}
	source := &stubSource{items: []domain.NewsItem{{Title: "новость"}}}
	composer := &stubComposer{}
	selector := &stubSelector{text: "лучший"}
	service := newTestService(messages, source, composer, selector)

	outcome, err := service.Generate(context.Background(), testDay, domain.LanguageEN)
	if err != nil {
		t.Fatalf("дубликат ключа должен считаться успехом, получили ошибку: %v", err)
	}
	if outcome != OutcomeCached {
		t.Fatalf("ожидали OutcomeCached, получили %q", outcome)
	}
}

func TestGeneratePersistHardError(t *testing.T) {
	messages := &stubMessages{saveErr: errors.New("соединение потеряно")}
	source := &stubSource{items: []domain.NewsItem{{Title: "новость"}}}
	composer := &stubComposer{}
	selector := &stubSelector{text: "лучший"}
	service := newTestService(messages, source, composer, selector)

	if _, err := service.Generate(context.Background(), testDay, domain.LanguageEN); err == nil {
		t.Fatalf("ожидали ошибку сохранения")
	}
}

func TestGenerateLanguageIsolation(t *testing.T) {
	messages := &stubMessages{}
	source := &stubSource{items: []domain.NewsItem{{Title: "новость"}}}
	composer := &stubComposer{}
	selector := &stubSelector{text: "лучший"}
	service := newTestService(messages, source, composer, selector)

	for _, lang := range domain.Languages() {
		if _, err := service.Generate(context.Background(), testDay, lang); err != nil {
			t.Fatalf("не ожидали ошибку для %s: %v", lang, err)
		}
	}

	if len(messages.saved) != 2 {
		t.Fatalf("ожидали по записи на язык, получили %d", len(messages.saved))
	}
	if messages.saved[0].Language == messages.saved[1].Language {
		t.Fatalf("записи должны отличаться языком")
	}
}

func TestGenerateConcurrentRunsSingleRow(t *testing.T) {
	// Оба прогона проходят проверку кэша до сохранения: запись появляется
	// ровно одна, второй прогон получает дубликат и завершается успехом.
	messages := &stubMessages{}
	source := &stubSource{items: []domain.NewsItem{{Title: "новость"}}}
	composer := &stubComposer{}
	selector := &stubSelector{text: "лучший"}
	service := newTestService(messages, source, composer, selector)

	first, err := service.Generate(context.Background(), testDay, domain.LanguageEN)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if first != OutcomeGenerated {
		t.Fatalf("ожидали OutcomeGenerated, получили %q", first)
	}

	messages.saveErr = domain.ErrDuplicateMessage
	second, err := service.Generate(context.Background(), testDay, domain.LanguageEN)
	if err != nil {
		t.Fatalf("второй прогон не должен падать: %v", err)
	}
	if second != OutcomeCached {
		t.Fatalf("ожидали OutcomeCached, получили %q", second)
	}
	if len(messages.saved) != 1 {
		t.Fatalf("ожидали одну запись, получили %d", len(messages.saved))
	}
}
