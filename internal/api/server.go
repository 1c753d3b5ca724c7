package api

import (
	"net/http"
	"strings"

	"github.com/gatherly/pulse/internal/middleware"
)

// Server wires the API handlers onto a ServeMux. Route dispatch below /events/
// is manual: the mux matches the prefix and the path segments decide the
// subresource.
type Server struct {
	events    *EventHandlers
	attendees *AttendanceHandlers
	feedback  *FeedbackHandlers
	insights  *InsightHandlers
	health    *HealthHandlers
}

// NewServer creates a Server from the handler groups.
func NewServer(events *EventHandlers, attendees *AttendanceHandlers, fb *FeedbackHandlers, ins *InsightHandlers, health *HealthHandlers) *Server {
	return &Server{
		events:    events,
		attendees: attendees,
		feedback:  fb,
		insights:  ins,
		health:    health,
	}
}

// Routes builds the ServeMux for the API.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.health.Health)
	mux.HandleFunc("/ready", s.health.Ready)

	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, r)
			return
		}
		s.events.CreateEvent(w, r)
	})

	mux.HandleFunc("/events/", s.handleEventSubresource)

	return mux
}

// handleEventSubresource dispatches /events/{id} and /events/{id}/{resource}.
func (s *Server) handleEventSubresource(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/events/"), "/")
	if pathParts[0] == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Event ID is required")
		return
	}
	eventID := pathParts[0]

	// GET /events/{id}
	if len(pathParts) == 1 {
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, r)
			return
		}
		s.events.GetEvent(w, r, eventID)
		return
	}

	switch pathParts[1] {
	case "attendance":
		if len(pathParts) != 2 {
			break
		}
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, r)
			return
		}
		s.attendees.CreateAttendance(w, r, eventID)
		return
	case "feedback":
		if len(pathParts) != 2 {
			break
		}
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, r)
			return
		}
		s.feedback.CreateFeedback(w, r, eventID)
		return
	case "comments":
		if len(pathParts) != 2 {
			break
		}
		switch r.Method {
		case http.MethodPost:
			s.feedback.CreateComment(w, r, eventID)
		case http.MethodGet:
			s.feedback.ListComments(w, r, eventID)
		default:
			writeMethodNotAllowed(w, r)
		}
		return
	case "analytics":
		if len(pathParts) != 2 {
			break
		}
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w, r)
			return
		}
		s.insights.GetAnalytics(w, r, eventID)
		return
	case "insights":
		// /events/{id}/insights and /events/{id}/insights/refresh
		if len(pathParts) == 2 {
			if r.Method != http.MethodGet {
				writeMethodNotAllowed(w, r)
				return
			}
			s.insights.GetInsights(w, r, eventID)
			return
		}
		if len(pathParts) == 3 && pathParts[2] == "refresh" {
			if r.Method != http.MethodPost {
				writeMethodNotAllowed(w, r)
				return
			}
			s.insights.RefreshInsights(w, r, eventID)
			return
		}
	}

	ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
	WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
	WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
}
