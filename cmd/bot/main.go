package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"compliment-bot/internal/adapters/bot"
	"compliment-bot/internal/adapters/news"
	"compliment-bot/internal/adapters/repo"
	"compliment-bot/internal/adapters/telegram"
	"compliment-bot/internal/adapters/writer"
	"compliment-bot/internal/domain"
	"compliment-bot/internal/i18n"
	"compliment-bot/internal/infra/cache"
	"compliment-bot/internal/infra/config"
	"compliment-bot/internal/infra/db"
	"compliment-bot/internal/infra/log"
	"compliment-bot/internal/infra/metrics"
	openai "compliment-bot/internal/infra/openai"
	"compliment-bot/internal/infra/sched"
	"compliment-bot/internal/usecase/delivery"
	"compliment-bot/internal/usecase/generation"
	"compliment-bot/internal/usecase/jobs"
)

func main() {
	cfg := config.Load()
	logger := log.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()

	texts, err := i18n.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось загрузить переводы")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	repoAdapter := repo.NewPostgres(pool)

	var locker domain.Locker
	if cfg.RedisAddr != "" {
		locker = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	chatClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	writerAdapter := writer.NewOpenAI(chatClient, texts, cfg.OpenAI.Model, cfg.OpenAI.Temperature, cfg.OpenAI.Timeout, cfg.IgnoredTopics)
	newsClient := news.NewClient(news.Config{
		APIKey:   cfg.News.APIKey,
		Sources:  cfg.News.Sources,
		Query:    cfg.News.Query,
		SortBy:   cfg.News.SortBy,
		Language: cfg.News.Language,
		PageSize: cfg.News.PageSize,
		FromDays: cfg.News.FromDays,
	})

	generationService := generation.NewService(repoAdapter, newsClient, writerAdapter, writerAdapter, logger)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	messenger := telegram.NewMessenger(botAPI)

	deliveryService := delivery.NewService(repoAdapter, repoAdapter, messenger, texts, logger)

	scheduler := sched.New(logger)
	jobsService := jobs.NewService(jobs.Config{
		GenerateAt:    domain.TimeOfDay{Hour: cfg.Jobs.GenerateHour, Minute: cfg.Jobs.GenerateMinute},
		Stagger:       cfg.Jobs.LanguageStagger,
		FirstRunDelay: cfg.Jobs.FirstRunDelay,
	}, scheduler, repoAdapter, generationService, deliveryService, locker, logger)

	jobsService.ScheduleGeneration()
	if err := jobsService.Restore(ctx); err != nil {
		logger.Error().Err(err).Msg("не удалось восстановить расписания")
	}

	handler := bot.NewHandler(messenger, logger, repoAdapter, jobsService, texts)

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := botAPI.GetUpdatesChan(updateCfg)
	go func() {
		for upd := range updates {
			handler.HandleUpdate(ctx, upd)
		}
	}()

	logger.Info().Msg("бот запущен")
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Info().Msg("остановка бота")
	botAPI.StopReceivingUpdates()
	scheduler.Stop()
}
