package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"compliment-bot/internal/domain"
	"compliment-bot/internal/infra/metrics"
)

// Postgres реализует репозитории комплиментов и подписчиков на pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.MessageRepo    = (*Postgres)(nil)
	_ domain.SubscriberRepo = (*Postgres)(nil)
)

const uniqueViolation = "23505"

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// SaveMessage вставляет комплимент дня. Повторная вставка по тому же ключу
// возвращает domain.ErrDuplicateMessage.
func (p *Postgres) SaveMessage(ctx context.Context, msg domain.DailyMessage) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO daily_messages (date, language, content)
VALUES ($1, $2, $3)
`, domain.Day(msg.Date), string(msg.Language), msg.Text)
	metrics.ObserveNetworkRequest("postgres", "insert", "daily_messages", start, err)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateMessage
	}
	return err
}

// GetMessage возвращает комплимент за дату и язык.
func (p *Postgres) GetMessage(ctx context.Context, date time.Time, lang domain.Language) (string, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var content string
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT content FROM daily_messages WHERE date = $1 AND language = $2
`, domain.Day(date), string(lang)).Scan(&content)
	metrics.ObserveNetworkRequest("postgres", "select", "daily_messages", start, err)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrMessageNotFound
	}
	if err != nil {
		return "", err
	}
	return content, nil
}

// GetSubscriber возвращает настройки подписчика.
func (p *Postgres) GetSubscriber(ctx context.Context, chatID int64) (domain.Subscriber, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var sub domain.Subscriber
	var lang string
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT chat_id, hour, language, activated FROM subscribers WHERE chat_id = $1
`, chatID).Scan(&sub.ChatID, &sub.Hour, &lang, &sub.Activated)
	metrics.ObserveNetworkRequest("postgres", "select", "subscribers", start, err)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Subscriber{}, domain.ErrSubscriberNotFound
	}
	if err != nil {
		return domain.Subscriber{}, err
	}
	sub.Language = domain.Language(lang)
	return sub, nil
}

// GetLanguage возвращает язык подписчика; для неизвестного чата — язык по умолчанию.
func (p *Postgres) GetLanguage(ctx context.Context, chatID int64) (domain.Language, error) {
	sub, err := p.GetSubscriber(ctx, chatID)
	if errors.Is(err, domain.ErrSubscriberNotFound) {
		return domain.DefaultLanguage, nil
	}
	if err != nil {
		return domain.DefaultLanguage, err
	}
	if _, err := domain.ParseLanguage(string(sub.Language)); err != nil {
		return domain.DefaultLanguage, nil
	}
	return sub.Language, nil
}

// SetHour сохраняет час доставки, создавая запись с настройками по умолчанию.
func (p *Postgres) SetHour(ctx context.Context, chatID int64, hour int) error {
	if hour < 0 || hour > 23 {
		return domain.ErrInvalidHour
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO subscribers (chat_id, hour)
VALUES ($1, $2)
ON CONFLICT (chat_id) DO UPDATE SET hour = EXCLUDED.hour, updated_at = now()
`, chatID, hour)
	metrics.ObserveNetworkRequest("postgres", "upsert", "subscribers", start, err)
	return err
}

// SetLanguage сохраняет язык подписчика.
func (p *Postgres) SetLanguage(ctx context.Context, chatID int64, lang domain.Language) error {
	if _, err := domain.ParseLanguage(string(lang)); err != nil {
		return err
	}
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO subscribers (chat_id, language)
VALUES ($1, $2)
ON CONFLICT (chat_id) DO UPDATE SET language = EXCLUDED.language, updated_at = now()
`, chatID, string(lang))
	metrics.ObserveNetworkRequest("postgres", "upsert", "subscribers", start, err)
	return err
}

// SetActivated включает или выключает подписку.
func (p *Postgres) SetActivated(ctx context.Context, chatID int64, activated bool) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO subscribers (chat_id, activated)
VALUES ($1, $2)
ON CONFLICT (chat_id) DO UPDATE SET activated = EXCLUDED.activated, updated_at = now()
`, chatID, activated)
	metrics.ObserveNetworkRequest("postgres", "upsert", "subscribers", start, err)
	return err
}

// ListActivated возвращает всех активных подписчиков.
func (p *Postgres) ListActivated(ctx context.Context) ([]domain.Subscriber, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT chat_id, hour, language, activated FROM subscribers WHERE activated ORDER BY chat_id
`)
	metrics.ObserveNetworkRequest("postgres", "select", "subscribers", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscriber
	for rows.Next() {
		var sub domain.Subscriber
		var lang string
		if err := rows.Scan(&sub.ChatID, &sub.Hour, &lang, &sub.Activated); err != nil {
			return nil, err
		}
		sub.Language = domain.Language(lang)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
