package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/insights"
	"github.com/gatherly/pulse/internal/middleware"
)

// InsightHandlers holds dependencies for analytics and insight read endpoints.
type InsightHandlers struct {
	analytics analytics.Repository
	insights  insights.Repository
	generator *insights.Generator
}

// NewInsightHandlers creates a new InsightHandlers instance.
func NewInsightHandlers(analyticsRepo analytics.Repository, insightsRepo insights.Repository, gen *insights.Generator) *InsightHandlers {
	return &InsightHandlers{
		analytics: analyticsRepo,
		insights:  insightsRepo,
		generator: gen,
	}
}

// GetAnalytics handles GET /events/{id}/analytics.
func (h *InsightHandlers) GetAnalytics(w http.ResponseWriter, r *http.Request, eventID string) {
	doc, err := h.analytics.Get(r.Context(), eventID)
	if errors.Is(err, analytics.ErrAnalyticsNotFound) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAnalyticsNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeAnalyticsNotFound, "No analytics recorded for this event")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get analytics", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve analytics")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, doc)
}

// GetInsights handles GET /events/{id}/insights.
func (h *InsightHandlers) GetInsights(w http.ResponseWriter, r *http.Request, eventID string) {
	ins, err := h.insights.Get(r.Context(), eventID)
	if errors.Is(err, insights.ErrInsightsNotFound) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInsightsNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeInsightsNotFound, "No insights generated for this event")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get insights", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve insights")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, ins)
}

// RefreshInsights handles POST /events/{id}/insights/refresh. It regenerates
// the insights document unconditionally, bypassing the attendance trigger.
func (h *InsightHandlers) RefreshInsights(w http.ResponseWriter, r *http.Request, eventID string) {
	actorUID := middleware.GetActorUID(r.Context())
	if actorUID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	ins, err := h.generator.Generate(r.Context(), eventID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to refresh insights", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to regenerate insights")
		return
	}
	if ins == nil {
		// Generate skips when the event has no analytics yet.
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAnalyticsNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeAnalyticsNotFound, "No analytics recorded for this event")
		return
	}
	writeJSON(w, r.Context(), http.StatusOK, ins)
}
