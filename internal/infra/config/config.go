package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию бота.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Telegram struct {
		Token string `envconfig:"TG_BOT_TOKEN"`
	} `envconfig:""`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`

	OpenAI struct {
		APIKey      string        `envconfig:"OPENAI_API_KEY"`
		BaseURL     string        `envconfig:"OPENAI_BASE_URL"`
		Model       string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
		Temperature float64       `envconfig:"OPENAI_TEMPERATURE" default:"0.7"`
		Timeout     time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	} `envconfig:""`

	News struct {
		APIKey   string   `envconfig:"NEWSAPI_API_KEY"`
		Sources  []string `envconfig:"NEWS_SOURCES" default:"the-verge"`
		Query    string   `envconfig:"NEWS_QUERY" default:"News"`
		SortBy   string   `envconfig:"NEWS_SORT_BY" default:"popularity"`
		Language string   `envconfig:"NEWS_LANGUAGE" default:"en"`
		PageSize int      `envconfig:"NEWS_PAGE_SIZE" default:"10"`
		FromDays int      `envconfig:"NEWS_FROM_DAYS" default:"7"`
	} `envconfig:""`

	Jobs struct {
		GenerateHour    int           `envconfig:"GENERATE_HOUR" default:"0"`
		GenerateMinute  int           `envconfig:"GENERATE_MINUTE" default:"0"`
		LanguageStagger time.Duration `envconfig:"LANGUAGE_STAGGER" default:"2m"`
		FirstRunDelay   time.Duration `envconfig:"FIRST_RUN_DELAY" default:"10s"`
	} `envconfig:""`

	IgnoredTopics []string `envconfig:"IGNORED_TOPICS"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
