package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/attendance"
	"github.com/gatherly/pulse/internal/event"
	"github.com/gatherly/pulse/internal/insights"
	"github.com/gatherly/pulse/internal/middleware"
)

// AttendanceRequest represents the request body for recording a check-in.
// CustomerUID is optional: organizers may record manual or pre-registered
// entries using the reserved sentinel values; otherwise the authenticated
// customer's UID is used.
type AttendanceRequest struct {
	CustomerUID string     `json:"customerUid,omitempty"`
	AttendedAt  *time.Time `json:"attendanceDateTime,omitempty"`
}

// AttendanceHandlers holds dependencies for attendance HTTP handlers.
// Each accepted check-in is aggregated synchronously, and the insight
// trigger is evaluated against the analytics document before and after.
type AttendanceHandlers struct {
	attendance attendance.Repository
	events     event.Repository
	aggregator *analytics.Aggregator
	generator  *insights.Generator
}

// NewAttendanceHandlers creates a new AttendanceHandlers instance.
func NewAttendanceHandlers(att attendance.Repository, events event.Repository, agg *analytics.Aggregator, gen *insights.Generator) *AttendanceHandlers {
	return &AttendanceHandlers{
		attendance: att,
		events:     events,
		aggregator: agg,
		generator:  gen,
	}
}

// CreateAttendance handles POST /events/{id}/attendance.
func (h *AttendanceHandlers) CreateAttendance(w http.ResponseWriter, r *http.Request, eventID string) {
	actorUID := middleware.GetActorUID(r.Context())
	if actorUID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req AttendanceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
			return
		}
	}

	if _, err := h.events.GetByID(r.Context(), eventID); err != nil {
		if errors.Is(err, event.ErrEventNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeEventNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeEventNotFound, "Event not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get event", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve event")
		return
	}

	customerUID := req.CustomerUID
	if customerUID == "" {
		customerUID = actorUID
	}
	attendedAt := time.Now()
	if req.AttendedAt != nil {
		attendedAt = *req.AttendedAt
	}

	rec := &attendance.Record{
		ID:          uuid.New().String(),
		EventID:     eventID,
		CustomerUID: customerUID,
		AttendedAt:  attendedAt,
	}

	if err := h.attendance.Create(r.Context(), rec); err != nil {
		if errors.Is(err, attendance.ErrRecordExists) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeConflict)
			WriteError(w, ctx, http.StatusConflict, ErrCodeConflict, "Attendance record already exists")
			return
		}
		slog.ErrorContext(r.Context(), "failed to create attendance record", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to record attendance")
		return
	}

	before := h.aggregator.Snapshot(r.Context(), eventID)
	after, err := h.aggregator.OnAttendanceCreated(r.Context(), rec)
	if err != nil {
		// The record is stored; aggregation will be reconciled via the change
		// feed redelivery path. Surface the failure to the caller regardless.
		slog.ErrorContext(r.Context(), "attendance aggregation failed", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to update analytics")
		return
	}

	if h.generator != nil {
		h.generator.MaybeGenerate(r.Context(), before, after)
	}

	writeJSON(w, r.Context(), http.StatusCreated, rec)
}
