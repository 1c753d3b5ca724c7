// Package analytics provides the aggregation pipeline reacting to attendance
// and feedback writes.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gatherly/pulse/internal/attendance"
	"github.com/gatherly/pulse/internal/event"
	"github.com/gatherly/pulse/internal/feedback"
)

// tracerName identifies aggregator spans.
const tracerName = "pulse/analytics"

// Aggregator maintains the per-event analytics document. It reacts to new
// attendance and feedback records; each reaction is a single transactional
// read-modify-write of the event's document.
//
// Aggregation is not idempotent: replaying the same attendance record
// double-counts totalAttendees and the hour bucket. Callers that receive
// at-least-once deliveries must de-duplicate by record ID before invoking
// OnAttendanceCreated (see the dedup package).
type Aggregator struct {
	analytics  Repository
	events     event.Repository
	attendance attendance.Repository
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewAggregator creates a new Aggregator.
func NewAggregator(analyticsRepo Repository, events event.Repository, att attendance.Repository, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		analytics:  analyticsRepo,
		events:     events,
		attendance: att,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// OnAttendanceCreated applies one attendance record to the event's analytics
// document and returns the updated document. Errors are returned to the
// caller so the delivery can be retried by the trigger runtime.
func (a *Aggregator) OnAttendanceCreated(ctx context.Context, rec *attendance.Record) (*EventAnalytics, error) {
	ctx, span := a.tracer.Start(ctx, "aggregator.OnAttendanceCreated",
		trace.WithAttributes(attribute.String("event.id", rec.EventID)))
	defer span.End()

	a.logger.Info("processing attendance", "event_id", rec.EventID, "record_id", rec.ID)

	bucket := HourBucket(rec.AttendedAt)

	// Repeat-attendance is recomputed in full on every qualifying check-in:
	// count the distinct prior events of the same host this customer attended.
	// The full recompute is O(host's event count) per call; kept as-is rather
	// than maintained incrementally so backfills and corrections stay correct.
	repeatCount, haveRepeat, err := a.recomputeRepeat(ctx, rec)
	if err != nil {
		a.logger.Error("failed to recompute repeat attendees", "event_id", rec.EventID, "error", err)
		return nil, err
	}

	preRegistered, err := a.attendance.CountByEventAndCustomer(ctx, rec.EventID, attendance.UIDPreRegistered)
	if err != nil {
		a.logger.Error("failed to count pre-registrations", "event_id", rec.EventID, "error", err)
		return nil, fmt.Errorf("failed to count pre-registrations: %w", err)
	}

	updated, err := a.analytics.Mutate(ctx, rec.EventID, func(doc *EventAnalytics) error {
		doc.TotalAttendees++
		doc.HourlySignIns[bucket]++
		if haveRepeat {
			doc.RepeatAttendees = repeatCount
		}
		if preRegistered > 0 {
			// Not clamped: more walk-ins than pre-registrations yields a
			// negative rate.
			doc.DropoutRate = float64(preRegistered-doc.TotalAttendees) / float64(preRegistered) * 100
		} else {
			doc.DropoutRate = 0
		}
		return nil
	})
	if err != nil {
		a.logger.Error("attendance aggregation failed", "event_id", rec.EventID, "error", err)
		return nil, err
	}

	a.logger.Info("attendance aggregation completed",
		"event_id", rec.EventID, "total_attendees", updated.TotalAttendees)
	return updated, nil
}

// Snapshot returns the current analytics document for an event, or nil when
// none exists or the read fails. Intended for before/after comparisons around
// an aggregation; read failures degrade to "no prior document".
func (a *Aggregator) Snapshot(ctx context.Context, eventID string) *EventAnalytics {
	doc, err := a.analytics.Get(ctx, eventID)
	if errors.Is(err, ErrAnalyticsNotFound) {
		return nil
	}
	if err != nil {
		a.logger.Warn("failed to snapshot analytics", "event_id", eventID, "error", err)
		return nil
	}
	return doc
}

// recomputeRepeat computes the distinct count of the host's other events this
// customer has attended. Returns haveRepeat=false when the record carries no
// usable customer UID or the event is unknown, in which case the stored value
// is left untouched.
func (a *Aggregator) recomputeRepeat(ctx context.Context, rec *attendance.Record) (int, bool, error) {
	if rec.CustomerUID == "" || rec.CustomerUID == attendance.UIDManual {
		return 0, false, nil
	}

	ev, err := a.events.GetByID(ctx, rec.EventID)
	if errors.Is(err, event.ErrEventNotFound) {
		a.logger.Warn("event not found for repeat computation", "event_id", rec.EventID)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load event: %w", err)
	}

	hostEventIDs, err := a.events.ListIDsByHost(ctx, ev.HostUID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to list host events: %w", err)
	}

	attended, err := a.attendance.DistinctEventsByCustomer(ctx, rec.CustomerUID, hostEventIDs)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query attended events: %w", err)
	}

	count := 0
	for _, id := range attended {
		if id != rec.EventID {
			count++
		}
	}
	return count, true, nil
}

// OnFeedbackCreated merges one feedback record into the event's nested
// feedback aggregate and returns the updated document. Failures here degrade
// to stale feedback analytics; callers are expected to log and absorb the
// returned error rather than retry.
func (a *Aggregator) OnFeedbackCreated(ctx context.Context, rec *feedback.Record) (*EventAnalytics, error) {
	ctx, span := a.tracer.Start(ctx, "aggregator.OnFeedbackCreated",
		trace.WithAttributes(attribute.String("event.id", rec.EventID)))
	defer span.End()

	a.logger.Info("processing feedback", "event_id", rec.EventID, "rating", rec.Rating)

	updated, err := a.analytics.Mutate(ctx, rec.EventID, func(doc *EventAnalytics) error {
		if doc.Feedback == nil {
			doc.Feedback = &FeedbackAnalytics{
				RatingDistribution: make(map[int]int),
				Sentiment:          SentimentNeutral,
				CommentSummaries:   []string{},
			}
		}
		fb := doc.Feedback

		// Running mean over all ratings seen so far.
		total := fb.TotalRatings + 1
		fb.AverageRating = (fb.AverageRating*float64(fb.TotalRatings) + float64(rec.Rating)) / float64(total)
		fb.TotalRatings = total
		fb.RatingDistribution[rec.Rating]++

		if rec.Anonymous {
			fb.AnonymousCount++
		} else {
			fb.NamedCount++
		}

		fb.Sentiment = SentimentForAverage(fb.AverageRating)

		// Bounded list: once full, later comments are silently dropped.
		if rec.Comment != "" && len(fb.CommentSummaries) < MaxCommentSummaries {
			fb.CommentSummaries = append(fb.CommentSummaries, SummarizeComment(rec.Comment))
		}
		return nil
	})
	if err != nil {
		a.logger.Error("feedback aggregation failed", "event_id", rec.EventID, "error", err)
		return nil, err
	}

	a.logger.Info("feedback aggregation completed",
		"event_id", rec.EventID, "total_ratings", updated.Feedback.TotalRatings)
	return updated, nil
}
