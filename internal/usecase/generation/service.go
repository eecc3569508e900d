package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"compliment-bot/internal/domain"
	"compliment-bot/internal/infra/metrics"
)

// Outcome описывает исход одного прогона генерации.
type Outcome string

const (
	// OutcomeCached — комплимент на эту дату уже есть, работа не выполнялась.
	OutcomeCached Outcome = "cached"
	// OutcomeGenerated — новый комплимент сгенерирован и сохранён.
	OutcomeGenerated Outcome = "generated"
	// OutcomeNoHeadlines — свежих новостей нет, день без комплимента.
	OutcomeNoHeadlines Outcome = "no_headlines"
	// OutcomeNoCandidates — ни одна новость не дала варианта.
	OutcomeNoCandidates Outcome = "no_candidates"
	// OutcomeSelectFailed — выбор лучшего варианта не удался.
	OutcomeSelectFailed Outcome = "select_failed"
)

// Service реализует конвейер генерации комплимента дня:
// проверка кэша → новости → варианты параллельно → выбор → сохранение.
type Service struct {
	messages domain.MessageRepo
	source   domain.HeadlineSource
	composer domain.Composer
	selector domain.Selector
	log      zerolog.Logger
}

// NewService создаёт сервис генерации.
func NewService(messages domain.MessageRepo, source domain.HeadlineSource, composer domain.Composer, selector domain.Selector, log zerolog.Logger) *Service {
	return &Service{messages: messages, source: source, composer: composer, selector: selector, log: log}
}

// Generate выполняет прогон за дату и язык. Деградация (нет новостей, нет
// вариантов, неудачный выбор) — штатный исход, а не ошибка; ошибкой
// завершается только сохранение.
func (s *Service) Generate(ctx context.Context, date time.Time, lang domain.Language) (Outcome, error) {
	day := domain.Day(date)
	logger := s.log.With().
		Str("run", uuid.NewString()).
		Str("language", string(lang)).
		Str("date", day.Format("2006-01-02")).
		Logger()

	start := time.Now()
	outcome, err := s.run(ctx, logger, day, lang)
	if err != nil {
		metrics.ObserveGenerationRun(string(lang), "error", start)
		return outcome, err
	}
	metrics.ObserveGenerationRun(string(lang), string(outcome), start)
	return outcome, nil
}

func (s *Service) run(ctx context.Context, logger zerolog.Logger, day time.Time, lang domain.Language) (Outcome, error) {
	switch _, err := s.messages.GetMessage(ctx, day, lang); {
	case err == nil:
		logger.Info().Msg("комплимент уже сгенерирован, пропускаем")
		return OutcomeCached, nil
	case !errors.Is(err, domain.ErrMessageNotFound):
		// Проверка кэша — best effort: при сбое чтения идём генерировать,
		// от дубля защищает первичный ключ при сохранении.
		logger.Warn().Err(err).Msg("не удалось проверить кэш комплиментов")
	}

	items, err := s.source.Headlines(ctx, day)
	if err != nil {
		logger.Warn().Err(err).Msg("не удалось получить новости")
		return OutcomeNoHeadlines, nil
	}
	if len(items) == 0 {
		logger.Warn().Msg("свежих новостей нет, день без комплимента")
		return OutcomeNoHeadlines, nil
	}

	candidates := s.composeAll(ctx, logger, lang, items)
	if len(candidates) == 0 {
		logger.Warn().Int("items", len(items)).Msg("ни одна новость не дала варианта комплимента")
		return OutcomeNoCandidates, nil
	}

	text, err := s.selector.Select(ctx, lang, candidates)
	if err != nil {
		logger.Warn().Err(err).Int("candidates", len(candidates)).Msg("выбор лучшего комплимента не удался")
		return OutcomeSelectFailed, nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn().Msg("выбор вернул пустой комплимент")
		return OutcomeSelectFailed, nil
	}

	err = s.messages.SaveMessage(ctx, domain.DailyMessage{Date: day, Language: lang, Text: text})
	if errors.Is(err, domain.ErrDuplicateMessage) {
		logger.Info().Msg("комплимент уже сохранён параллельным запуском")
		return OutcomeCached, nil
	}
	if err != nil {
		return "", fmt.Errorf("сохранение комплимента: %w", err)
	}

	logger.Info().Str("compliment", text).Msg("комплимент дня сохранён")
	return OutcomeGenerated, nil
}

// composeAll запускает генерацию варианта по каждой новости параллельно и
// ждёт все вызовы. Неудачные варианты отбрасываются с предупреждением.
func (s *Service) composeAll(ctx context.Context, logger zerolog.Logger, lang domain.Language, items []domain.NewsItem) []domain.Candidate {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		candidates = make([]domain.Candidate, 0, len(items))
	)
	for _, item := range items {
		wg.Add(1)
		go func(item domain.NewsItem) {
			defer wg.Done()
			cand, err := s.composer.Compose(ctx, lang, item)
			if err != nil {
				metrics.IncCandidateFailure(string(lang))
				logger.Warn().Err(err).Str("title", item.Title).Msg("вариант комплимента не получился")
				return
			}
			mu.Lock()
			candidates = append(candidates, cand)
			mu.Unlock()
		}(item)
	}
	wg.Wait()
	return candidates
}
