// Package api provides HTTP handlers for the attendance analytics API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/pulse/internal/event"
	"github.com/gatherly/pulse/internal/middleware"
	"github.com/gatherly/pulse/internal/validate"
)

// EventRequest represents the request body for creating an event.
type EventRequest struct {
	Title    string    `json:"title"`
	StartsAt time.Time `json:"eventDateTime"`
	Location string    `json:"location,omitempty"`
}

// EventHandlers holds dependencies for event HTTP handlers.
type EventHandlers struct {
	events event.Repository
}

// NewEventHandlers creates a new EventHandlers instance.
func NewEventHandlers(events event.Repository) *EventHandlers {
	return &EventHandlers{events: events}
}

// CreateEvent handles POST /events.
// The authenticated customer becomes the event's host.
func (h *EventHandlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	hostUID := middleware.GetActorUID(r.Context())
	if hostUID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	title, err := validate.EventTitle(req.Title)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "title is required and must be at most 200 characters")
		return
	}
	if req.StartsAt.IsZero() {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "eventDateTime is required")
		return
	}
	location, err := validate.Location(req.Location)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "location must be at most 300 characters")
		return
	}

	ev := &event.Event{
		ID:       uuid.New().String(),
		Title:    title,
		HostUID:  hostUID,
		StartsAt: req.StartsAt,
		Location: location,
	}

	if err := h.events.Create(r.Context(), ev); err != nil {
		slog.ErrorContext(r.Context(), "failed to create event", "error", err)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create event")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, ev)
}

// GetEvent handles GET /events/{id}.
func (h *EventHandlers) GetEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	ev, err := h.events.GetByID(r.Context(), eventID)
	if err != nil {
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

	writeJSON(w, r.Context(), http.StatusOK, ev)
}
