package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"compliment-bot/internal/domain"
	"compliment-bot/internal/infra/metrics"
)

const defaultBaseURL = "https://newsapi.org/v2"

// Client получает свежие заголовки через NewsAPI /v2/everything.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	sources  string
	query    string
	sortBy   string
	language string
	pageSize int
	fromDays int
}

// Config задаёт параметры выборки новостей.
type Config struct {
	APIKey   string
	BaseURL  string
	Sources  []string
	Query    string
	SortBy   string
	Language string
	PageSize int
	FromDays int
	Timeout  time.Duration
}

var _ domain.HeadlineSource = (*Client)(nil)

// NewClient создаёт клиента новостей.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	sources := strings.Join(cfg.Sources, ",")
	if sources == "" {
		sources = "the-verge"
	}
	query := cfg.Query
	if query == "" {
		query = "News"
	}
	sortBy := cfg.SortBy
	if sortBy == "" {
		sortBy = "popularity"
	}
	language := cfg.Language
	if language == "" {
		language = "en"
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	fromDays := cfg.FromDays
	if fromDays <= 0 {
		fromDays = 7
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		sources:  sources,
		query:    query,
		sortBy:   sortBy,
		language: language,
		pageSize: pageSize,
		fromDays: fromDays,
	}
}

type articlesResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"articles"`
}

// Headlines возвращает заголовки за окно дней, заканчивающееся указанной датой.
func (c *Client) Headlines(ctx context.Context, date time.Time) ([]domain.NewsItem, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi: не задан API-ключ")
	}

	day := date.UTC()
	params := url.Values{}
	params.Set("q", c.query)
	params.Set("language", c.language)
	params.Set("from", day.AddDate(0, 0, -c.fromDays).Format("2006-01-02"))
	params.Set("to", day.Format("2006-01-02"))
	params.Set("sources", c.sources)
	params.Set("sortBy", c.sortBy)
	params.Set("pageSize", strconv.Itoa(c.pageSize))

	endpoint := c.baseURL + "/everything?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("newsapi: build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("newsapi", "everything", c.sources, start, err)
		return nil, fmt.Errorf("newsapi: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("newsapi", "everything", c.sources, start, err)
		return nil, fmt.Errorf("newsapi: read response: %w", err)
	}

	var parsed articlesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.ObserveNetworkRequest("newsapi", "everything", c.sources, start, err)
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Status != "ok" {
		err = fmt.Errorf("newsapi: status %d: %s", resp.StatusCode, parsed.Message)
		metrics.ObserveNetworkRequest("newsapi", "everything", c.sources, start, err)
		return nil, err
	}
	metrics.ObserveNetworkRequest("newsapi", "everything", c.sources, start, nil)

	items := make([]domain.NewsItem, 0, len(parsed.Articles))
	for _, article := range parsed.Articles {
		if strings.TrimSpace(article.Title) == "" && strings.TrimSpace(article.Description) == "" {
			continue
		}
		items = append(items, domain.NewsItem{Title: article.Title, Description: article.Description})
	}
	return items, nil
}
