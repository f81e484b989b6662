package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	EntriesSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "journal_entries_saved_total",
		Help: "Сохранённые записи дневника",
	})
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "journal_active_sessions",
		Help: "Открытые сессии написания записи",
	})
	NameEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "name_detector_events_total",
		Help: "События детектора имён",
	}, []string{"event"})
	NameJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "name_confirmation_jobs_total",
		Help: "Обработанные задачи записи подтверждённых имён",
	}, []string{"outcome"})
	ThanksSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "thanks_sent_total",
		Help: "Отправленные стикеры благодарности",
	}, []string{"status"})
	QuestionFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "question_fallbacks_total",
		Help: "Случаи, когда вместо сгенерированных вопросов отданы вопросы по умолчанию",
	})
	ThemeAnalysisTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "theme_analysis_total",
		Help: "Запросы анализа тем по источнику результата",
	}, []string{"source"})
	AnalyticsBuildSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analytics_build_seconds",
		Help:    "Время построения аналитики",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	}, []string{"view"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Длительность обработки HTTP запросов API",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "route", "code"})

	// Вызовы Postgres, Redis, RabbitMQ, LLM и Telegram.
	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность запросов к внешним системам",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"component", "operation", "target", "status"})
	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Запросы к внешним системам",
	}, []string{"component", "operation", "target", "status"})

	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_generation_duration_seconds",
		Help:    "Время генерации вопросов и анализа тем",
		Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30},
	}, []string{"model"})
	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_tokens_total",
		Help: "Израсходованные токены LLM",
	}, []string{"model", "type"})
)

// События детектора имён.
const (
	NameEventDetected      = "detected"
	NameEventConfirmed     = "confirmed"
	NameEventRejected      = "rejected"
	NameEventAutoDismissed = "auto_dismissed"
)

// MustRegister регистрирует все коллекторы пакета.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		EntriesSavedTotal,
		ActiveSessions,
		NameEventsTotal,
		NameJobsTotal,
		ThanksSentTotal,
		QuestionFallbacksTotal,
		ThemeAnalysisTotal,
		AnalyticsBuildSeconds,
		HTTPRequestDuration,
		NetworkRequestDuration,
		NetworkRequestTotal,
		LLMGenerationDuration,
		LLMTokensTotal,
	)
}

// StartServer поднимает отдельный сервер /metrics для воркера.
// Сервер останавливается вместе с ctx.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Warn().Err(err).Msg("сервер метрик остановлен с ошибкой")
		}
	}()
	go func() {
		logger.Info().Str("addr", addr).Msg("сервер метрик запущен")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("сервер метрик упал")
		}
	}()
}

func orUnknown(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// ObserveNetworkRequest учитывает вызов внешней системы.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	labels := []string{orUnknown(component), orUnknown(operation), orUnknown(target), status}
	NetworkRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
	NetworkRequestTotal.WithLabelValues(labels...).Inc()
}

// ObserveHTTPRequest учитывает обработанный запрос API.
func ObserveHTTPRequest(method, route string, code int, start time.Time) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(time.Since(start).Seconds())
}

// ObserveLLMGeneration учитывает время генерации и токены.
// Если total не передан, он считается как prompt+completion.
func ObserveLLMGeneration(model string, duration time.Duration, promptTokens, completionTokens, totalTokens int) {
	model = orUnknown(model)
	LLMGenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	for kind, n := range map[string]int{"prompt": promptTokens, "completion": completionTokens, "total": totalTokens} {
		if n > 0 {
			LLMTokensTotal.WithLabelValues(model, kind).Add(float64(n))
		}
	}
}

// IncNameEvent увеличивает счётчик событий детектора имён.
func IncNameEvent(event string) {
	NameEventsTotal.WithLabelValues(event).Inc()
}

// ObserveAnalytics записывает время построения представления аналитики.
func ObserveAnalytics(view string, start time.Time) {
	AnalyticsBuildSeconds.WithLabelValues(view).Observe(time.Since(start).Seconds())
}
