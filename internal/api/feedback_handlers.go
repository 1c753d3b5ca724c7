package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/comment"
	"github.com/gatherly/pulse/internal/event"
	"github.com/gatherly/pulse/internal/feedback"
	"github.com/gatherly/pulse/internal/middleware"
	"github.com/gatherly/pulse/internal/validate"
)

// FeedbackRequest represents the request body for submitting feedback.
type FeedbackRequest struct {
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	Anonymous bool   `json:"isAnonymous"`
}

// CommentRequest represents the request body for posting a comment.
type CommentRequest struct {
	Text string `json:"text"`
}

// FeedbackHandlers holds dependencies for feedback and comment HTTP handlers.
type FeedbackHandlers struct {
	feedback   feedback.Repository
	comments   comment.Repository
	events     event.Repository
	aggregator *analytics.Aggregator
}

// NewFeedbackHandlers creates a new FeedbackHandlers instance.
func NewFeedbackHandlers(fb feedback.Repository, comments comment.Repository, events event.Repository, agg *analytics.Aggregator) *FeedbackHandlers {
	return &FeedbackHandlers{
		feedback:   fb,
		comments:   comments,
		events:     events,
		aggregator: agg,
	}
}

// CreateFeedback handles POST /events/{id}/feedback.
// The feedback record is stored first; aggregation failures degrade to stale
// feedback analytics rather than failing the submission.
func (h *FeedbackHandlers) CreateFeedback(w http.ResponseWriter, r *http.Request, eventID string) {
	actorUID := middleware.GetActorUID(r.Context())
	if actorUID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	commentText, err := validate.FeedbackComment(req.Comment)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "comment must be at most 2000 characters")
		return
	}

	if err := h.ensureEvent(w, r, eventID); err != nil {
		return
	}

	rec := &feedback.Record{
		ID:          uuid.New().String(),
		EventID:     eventID,
		Rating:      req.Rating,
		Comment:     commentText,
		Anonymous:   req.Anonymous,
		SubmittedAt: time.Now(),
	}
	if !req.Anonymous {
		rec.CustomerUID = actorUID
	}

	if err := rec.Validate(); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInvalidRating)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeInvalidRating, "rating must be between 1 and 5")
		return
	}

	if err := h.feedback.Create(r.Context(), rec); err != nil {
		slog.ErrorContext(r.Context(), "failed to create feedback", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to save feedback")
		return
	}

	if _, err := h.aggregator.OnFeedbackCreated(r.Context(), rec); err != nil {
		// Stored but not yet aggregated; log and return success.
		slog.ErrorContext(r.Context(), "feedback aggregation failed", "error", err, "event_id", eventID)
	}

	writeJSON(w, r.Context(), http.StatusCreated, rec)
}

// CreateComment handles POST /events/{id}/comments.
func (h *FeedbackHandlers) CreateComment(w http.ResponseWriter, r *http.Request, eventID string) {
	actorUID := middleware.GetActorUID(r.Context())
	if actorUID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	text, err := validate.CommentText(req.Text)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "text is required and must be at most 2000 characters")
		return
	}

	if err := h.ensureEvent(w, r, eventID); err != nil {
		return
	}

	c := &comment.Comment{
		ID:        uuid.New().String(),
		EventID:   eventID,
		AuthorUID: actorUID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	if err := h.comments.Create(r.Context(), c); err != nil {
		slog.ErrorContext(r.Context(), "failed to create comment", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to save comment")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, c)
}

// ListComments handles GET /events/{id}/comments.
func (h *FeedbackHandlers) ListComments(w http.ResponseWriter, r *http.Request, eventID string) {
	comments, err := h.comments.ListByEvent(r.Context(), eventID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list comments", "error", err, "event_id", eventID)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list comments")
		return
	}
	if comments == nil {
		comments = []*comment.Comment{}
	}
	writeJSON(w, r.Context(), http.StatusOK, comments)
}

// ensureEvent verifies the target event exists, writing the error response
// itself when it does not.
func (h *FeedbackHandlers) ensureEvent(w http.ResponseWriter, r *http.Request, eventID string) error {
	_, err := h.events.GetByID(r.Context(), eventID)
	if err == nil {
		return nil
	}
	if errors.Is(err, event.ErrEventNotFound) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeEventNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeEventNotFound, "Event not found")
		return err
	}
	slog.ErrorContext(r.Context(), "failed to get event", "error", err, "event_id", eventID)
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
	WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to retrieve event")
	return err
}
