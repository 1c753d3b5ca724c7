package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/attendance"
	"github.com/gatherly/pulse/internal/dedup"
	"github.com/gatherly/pulse/internal/feedback"
	"github.com/gatherly/pulse/internal/insights"
)

// Dispatcher routes decoded change frames into the aggregation and insight
// pipelines. Created attendance frames are de-duplicated by document ID before
// aggregation so at-least-once redelivery does not double-count.
type Dispatcher struct {
	aggregator *analytics.Aggregator
	generator  *insights.Generator
	records    attendance.Repository
	seen       dedup.Store
	metrics    *Metrics
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher. records receives a local copy of every
// attendance document so repeat and dropout queries see feed-delivered
// check-ins. metrics may be nil when the caller does not collect them.
func NewDispatcher(agg *analytics.Aggregator, gen *insights.Generator, records attendance.Repository, seen dedup.Store, metrics *Metrics, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		aggregator: agg,
		generator:  gen,
		records:    records,
		seen:       seen,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handler returns a MessageHandler suitable for Client. Frames for unknown
// collections or kinds are ignored. Attendance aggregation errors propagate so
// the feed redelivers; feedback and insight errors are absorbed after logging.
func (d *Dispatcher) Handler(ctx context.Context) MessageHandler {
	return func(messageType int, payload []byte) error {
		frame, err := DecodeFrame(messageType, payload)
		if err != nil {
			if d.metrics != nil {
				d.metrics.IncFramesError()
			}
			d.logger.Warn("dropping undecodable change frame",
				slog.String("error", err.Error()))
			return nil
		}
		return d.Dispatch(ctx, frame)
	}
}

// Dispatch processes a single change frame.
func (d *Dispatcher) Dispatch(ctx context.Context, frame *Frame) error {
	start := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.ObserveFrameLatency(time.Since(start).Seconds())
		}
	}()
	if d.metrics != nil {
		d.metrics.IncFramesProcessed()
	}

	switch frame.Collection {
	case CollectionAttendance:
		if frame.Kind != KindCreated {
			return nil
		}
		return d.handleAttendanceCreated(ctx, frame)
	case CollectionFeedback:
		if frame.Kind != KindCreated {
			return nil
		}
		d.handleFeedbackCreated(ctx, frame)
		return nil
	case CollectionAnalytics:
		if frame.Kind != KindCreated && frame.Kind != KindUpdated {
			return nil
		}
		d.handleAnalyticsChanged(ctx, frame)
		return nil
	default:
		return nil
	}
}

func (d *Dispatcher) handleAttendanceCreated(ctx context.Context, frame *Frame) error {
	var rec attendance.Record
	if err := json.Unmarshal(frame.After, &rec); err != nil {
		if d.metrics != nil {
			d.metrics.IncFramesError()
		}
		d.logger.Warn("dropping malformed attendance document",
			slog.String("doc_id", frame.DocID),
			slog.String("error", err.Error()))
		return nil
	}
	if rec.ID == "" {
		rec.ID = frame.DocID
	}

	key := dedupKey(frame.Collection, rec.ID)
	first, err := d.seen.MarkSeen(ctx, key)
	if err != nil {
		if d.metrics != nil {
			d.metrics.IncFramesError()
		}
		return fmt.Errorf("mark attendance delivery seen: %w", err)
	}
	if !first {
		if d.metrics != nil {
			d.metrics.IncFramesDuplicate()
		}
		d.logger.Debug("skipping duplicate attendance delivery",
			slog.String("record_id", rec.ID))
		return nil
	}

	// Mirror the document locally so repeat and dropout queries include it.
	if d.records != nil {
		if err := d.records.Create(ctx, &rec); err != nil && !errors.Is(err, attendance.ErrRecordExists) {
			if d.metrics != nil {
				d.metrics.IncFramesError()
			}
			d.releaseDelivery(ctx, key, rec.ID)
			return fmt.Errorf("store attendance record: %w", err)
		}
	}

	before, after, err := d.aggregateAttendance(ctx, &rec)
	if err != nil {
		if d.metrics != nil {
			d.metrics.IncFramesError()
		}
		// The delivery was claimed but never applied. Release the key so the
		// redelivery is aggregated instead of skipped as a duplicate.
		d.releaseDelivery(ctx, key, rec.ID)
		return err
	}
	if d.metrics != nil {
		d.metrics.IncAggregations()
	}

	if d.generator != nil {
		if insights.ShouldGenerate(before, after) {
			if d.metrics != nil {
				d.metrics.IncInsightRuns()
			}
		}
		d.generator.MaybeGenerate(ctx, before, after)
	}
	return nil
}

// releaseDelivery drops a claimed dedup key after a processing failure. A
// failed release is only logged: the key then expires with the retention
// sweep, and the delivery is lost until an operator replays it.
func (d *Dispatcher) releaseDelivery(ctx context.Context, key, recordID string) {
	if err := d.seen.Forget(ctx, key); err != nil {
		d.logger.Error("failed to release claimed delivery key",
			slog.String("record_id", recordID),
			slog.String("error", err.Error()))
	}
}

// aggregateAttendance runs the aggregator and captures the pre-update document
// so the insight trigger can compare attendee counts across the update.
func (d *Dispatcher) aggregateAttendance(ctx context.Context, rec *attendance.Record) (before, after *analytics.EventAnalytics, err error) {
	before = d.aggregator.Snapshot(ctx, rec.EventID)
	after, err = d.aggregator.OnAttendanceCreated(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

func (d *Dispatcher) handleFeedbackCreated(ctx context.Context, frame *Frame) {
	var rec feedback.Record
	if err := json.Unmarshal(frame.After, &rec); err != nil {
		if d.metrics != nil {
			d.metrics.IncFramesError()
		}
		d.logger.Warn("dropping malformed feedback document",
			slog.String("doc_id", frame.DocID),
			slog.String("error", err.Error()))
		return
	}
	if rec.ID == "" {
		rec.ID = frame.DocID
	}
	if err := rec.Validate(); err != nil {
		if d.metrics != nil {
			d.metrics.IncFramesError()
		}
		d.logger.Warn("dropping invalid feedback document",
			slog.String("record_id", rec.ID),
			slog.String("error", err.Error()))
		return
	}

	if _, err := d.aggregator.OnFeedbackCreated(ctx, &rec); err != nil {
		if d.metrics != nil {
			d.metrics.IncFramesError()
		}
		d.logger.Error("feedback aggregation failed",
			slog.String("event_id", rec.EventID),
			slog.String("error", err.Error()))
		return
	}
	if d.metrics != nil {
		d.metrics.IncAggregations()
	}
}

// handleAnalyticsChanged evaluates the insight trigger against analytics
// documents written by other producers (e.g. the HTTP API in another process).
func (d *Dispatcher) handleAnalyticsChanged(ctx context.Context, frame *Frame) {
	if d.generator == nil {
		return
	}
	before := decodeAnalytics(frame.Before)
	after := decodeAnalytics(frame.After)
	if after == nil {
		return
	}
	if insights.ShouldGenerate(before, after) {
		if d.metrics != nil {
			d.metrics.IncInsightRuns()
		}
	}
	d.generator.MaybeGenerate(ctx, before, after)
}

func decodeAnalytics(raw json.RawMessage) *analytics.EventAnalytics {
	if len(raw) == 0 {
		return nil
	}
	var doc analytics.EventAnalytics
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return &doc
}

func dedupKey(collection, id string) string {
	return collection + ":" + id
}
