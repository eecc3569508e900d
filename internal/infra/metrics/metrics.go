package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	GenerationRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compliment_generation_runs_total",
		Help: "Запуски генерации комплимента по языкам и исходам",
	}, []string{"language", "outcome"})

	GenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "compliment_generation_seconds",
		Help:    "Время полного прогона генерации комплимента",
		Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
	}, []string{"language"})

	CandidateFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compliment_candidate_failures_total",
		Help: "Новости, по которым не получился вариант комплимента",
	}, []string{"language"})

	DeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "compliment_deliveries_total",
		Help: "Доставки комплиментов по языкам и источнику текста",
	}, []string{"language", "source"})

	BotSendErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bot_send_errors_total",
		Help: "Ошибки отправки сообщений ботом",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: prometheus.DefBuckets,
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Длительность генерации ответа LLM",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Количество токенов, использованных LLM",
	}, []string{"model", "type"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		GenerationRuns,
		GenerationDuration,
		CandidateFailures,
		DeliveriesTotal,
		BotSendErrors,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтами /metrics и /healthz.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveLLMGeneration записывает длительность и токены генерации LLM.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if promptTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(completionTokens))
	}
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	if totalTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "total").Add(float64(totalTokens))
	}
}

// ObserveGenerationRun записывает исход и длительность прогона генерации.
func ObserveGenerationRun(language, outcome string, start time.Time) {
	GenerationRuns.WithLabelValues(language, outcome).Inc()
	GenerationDuration.WithLabelValues(language).Observe(time.Since(start).Seconds())
}

// IncCandidateFailure увеличивает счётчик неудачных вариантов.
func IncCandidateFailure(language string) {
	CandidateFailures.WithLabelValues(language).Inc()
}

// IncDelivery увеличивает счётчик доставок. source — cached или fallback.
func IncDelivery(language, source string) {
	DeliveriesTotal.WithLabelValues(language, source).Inc()
}

// IncSendError увеличивает счётчик ошибок отправки.
func IncSendError() {
	BotSendErrors.Inc()
}
