// Package insights provides the insight generation orchestrator.
package insights

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/attendance"
	"github.com/gatherly/pulse/internal/comment"
)

// tracerName identifies generator spans.
const tracerName = "pulse/insights"

// Generator assembles the five analyses into one insights document and writes
// it wholesale. It holds no locks: concurrent generations for the same event
// race harmlessly, because the document is a derived cache with last-writer-wins
// semantics. It never writes back to the analytics aggregate.
type Generator struct {
	analytics  analytics.Repository
	comments   comment.Repository
	attendance attendance.Repository
	insights   Repository
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewGenerator creates a new Generator.
func NewGenerator(analyticsRepo analytics.Repository, comments comment.Repository, att attendance.Repository, insightsRepo Repository, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		analytics:  analyticsRepo,
		comments:   comments,
		attendance: att,
		insights:   insightsRepo,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Generate recomputes and stores the insights document for an event.
// A missing analytics document is not an error: generation is skipped with a
// log line and a nil result. Other failures are returned; callers absorb them
// since stale insights are acceptable.
func (g *Generator) Generate(ctx context.Context, eventID string) (*EventInsights, error) {
	ctx, span := g.tracer.Start(ctx, "generator.Generate",
		trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()

	doc, err := g.analytics.Get(ctx, eventID)
	if errors.Is(err, analytics.ErrAnalyticsNotFound) {
		g.logger.Info("no analytics data found, skipping insight generation", "event_id", eventID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}

	comments, err := g.comments.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	records, err := g.attendance.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}
	g.logger.Debug("generating insights",
		"event_id", eventID,
		"comments", len(comments),
		"attendance_records", len(records))

	peak := AnalyzePeakHours(doc.HourlySignIns)
	sentiment := AnalyzeSentiment(comments)

	ins := &EventInsights{
		EventID:         eventID,
		PeakHours:       peak,
		Sentiment:       sentiment,
		Optimizations:   BuildOptimizations(doc, peak, sentiment),
		Dropout:         AnalyzeDropout(doc),
		RepeatAttendees: AnalyzeRepeatAttendees(doc),
		LastUpdated:     time.Now(),
	}

	if err := g.insights.Put(ctx, ins); err != nil {
		return nil, fmt.Errorf("failed to store insights: %w", err)
	}

	g.logger.Info("insights generated", "event_id", eventID,
		"optimizations", len(ins.Optimizations))
	return ins, nil
}

// MaybeGenerate runs Generate when the before/after analytics transition
// passes ShouldGenerate. Generation errors are logged and absorbed; failure
// here only means stale or missing insights.
func (g *Generator) MaybeGenerate(ctx context.Context, before, after *analytics.EventAnalytics) {
	if after == nil || !ShouldGenerate(before, after) {
		return
	}
	if _, err := g.Generate(ctx, after.EventID); err != nil {
		g.logger.Error("insight generation failed", "event_id", after.EventID, "error", err)
	}
}
