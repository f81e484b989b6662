package httpapi

import (
	"net/http"
	"time"

	httpinfra "gratitude-journal/internal/infra/http"
	"gratitude-journal/internal/infra/metrics"
	"gratitude-journal/internal/usecase/analytics"
	"gratitude-journal/internal/usecase/thanks"
)

type insightsResponse struct {
	analytics.Insights
	LastThanks map[string]string `json:"last_thanks"`
}

func (h *Handler) questions(w http.ResponseWriter, r *http.Request) {
	httpinfra.WriteJSON(w, http.StatusOK, map[string]any{"questions": h.Questions.Generate(r.Context())})
}

func (h *Handler) insights(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	now := h.Journal.Now()
	insights := analytics.BuildInsights(h.Journal.ListEntries(r.Context()), now)
	resp := insightsResponse{Insights: insights, LastThanks: map[string]string{}}
	if h.Thanks != nil {
		for person, sent := range h.Thanks.LastThanksByPerson(r.Context(), insights.People) {
			resp.LastThanks[person] = thanks.FormatTimeSince(sent, now)
		}
	}
	metrics.ObserveAnalytics("insights", start)
	httpinfra.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) weeklySummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	summary := analytics.BuildWeeklySummary(h.Journal.ListEntries(r.Context()), h.Journal.Now())
	metrics.ObserveAnalytics("weekly", start)
	httpinfra.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) monthlySummary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	summary := analytics.BuildMonthlySummary(h.Journal.ListEntries(r.Context()), h.Journal.Now())
	metrics.ObserveAnalytics("monthly", start)
	httpinfra.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) themeAnalysis(w http.ResponseWriter, r *http.Request) {
	result, err := h.Themes.Analyze(r.Context())
	if err != nil {
		h.fail(w, r, "theme_analysis", err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, result)
}
