package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gatherly/pulse/internal/analytics"
	"github.com/gatherly/pulse/internal/attendance"
	"github.com/gatherly/pulse/internal/comment"
	"github.com/gatherly/pulse/internal/dedup"
	"github.com/gatherly/pulse/internal/event"
	"github.com/gatherly/pulse/internal/insights"
)

type dispatcherEnv struct {
	events     *event.InMemoryRepository
	attendance *attendance.InMemoryRepository
	analytics  *analytics.InMemoryRepository
	insights   *insights.InMemoryRepository
	metrics    *Metrics
	dispatcher *Dispatcher
}

func newDispatcherEnv(t *testing.T) *dispatcherEnv {
	t.Helper()
	env := &dispatcherEnv{
		events:     event.NewInMemoryRepository(),
		attendance: attendance.NewInMemoryRepository(),
		analytics:  analytics.NewInMemoryRepository(),
		insights:   insights.NewInMemoryRepository(),
		metrics:    NewMetrics(),
	}
	comments := comment.NewInMemoryRepository()
	agg := analytics.NewAggregator(env.analytics, env.events, env.attendance, slog.Default())
	gen := insights.NewGenerator(env.analytics, comments, env.attendance, env.insights, slog.Default())
	env.dispatcher = NewDispatcher(agg, gen, env.attendance, dedup.NewInMemoryStore(), env.metrics, slog.Default())

	err := env.events.Create(context.Background(), &event.Event{
		ID:       "evt-1",
		Title:    "Meetup",
		HostUID:  "host-1",
		StartsAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return env
}

func attendanceFrame(docID, eventID, customerUID string) *Frame {
	rec := attendance.Record{
		ID:          docID,
		EventID:     eventID,
		CustomerUID: customerUID,
		AttendedAt:  time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
	}
	after, _ := json.Marshal(rec)
	return &Frame{DocID: docID, Collection: CollectionAttendance, Kind: KindCreated, After: after}
}

func TestDispatch_AttendanceCreated(t *testing.T) {
	env := newDispatcherEnv(t)

	err := env.dispatcher.Dispatch(context.Background(), attendanceFrame("att-1", "evt-1", "alice"))
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	doc, err := env.analytics.Get(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("analytics missing after dispatch: %v", err)
	}
	if doc.TotalAttendees != 1 {
		t.Errorf("TotalAttendees = %d, want 1", doc.TotalAttendees)
	}
	if doc.HourlySignIns["10:00"] != 1 {
		t.Errorf("HourlySignIns = %v", doc.HourlySignIns)
	}

	// The delivered document is mirrored into the local store.
	records, err := env.attendance.ListByEvent(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(records) != 1 || records[0].ID != "att-1" {
		t.Errorf("records = %+v", records)
	}
}

func TestDispatch_DuplicateDeliverySkipped(t *testing.T) {
	env := newDispatcherEnv(t)

	for i := 0; i < 3; i++ {
		if err := env.dispatcher.Dispatch(context.Background(), attendanceFrame("att-1", "evt-1", "alice")); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}

	doc, err := env.analytics.Get(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.TotalAttendees != 1 {
		t.Errorf("redelivery double-counted: TotalAttendees = %d, want 1", doc.TotalAttendees)
	}
	if got := testutil.ToFloat64(env.metrics.framesDuplicate); got != 2 {
		t.Errorf("duplicate counter = %v, want 2", got)
	}
}

// failingAnalyticsRepo fails the first n Mutate calls before delegating.
type failingAnalyticsRepo struct {
	*analytics.InMemoryRepository
	failures int
}

func (r *failingAnalyticsRepo) Mutate(ctx context.Context, eventID string, fn func(*analytics.EventAnalytics) error) (*analytics.EventAnalytics, error) {
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("analytics store unavailable")
	}
	return r.InMemoryRepository.Mutate(ctx, eventID, fn)
}

func TestDispatch_RedeliveryAfterAggregationFailure(t *testing.T) {
	events := event.NewInMemoryRepository()
	attendees := attendance.NewInMemoryRepository()
	repo := &failingAnalyticsRepo{InMemoryRepository: analytics.NewInMemoryRepository(), failures: 1}
	metrics := NewMetrics()
	agg := analytics.NewAggregator(repo, events, attendees, slog.Default())
	dispatcher := NewDispatcher(agg, nil, attendees, dedup.NewInMemoryStore(), metrics, slog.Default())

	err := events.Create(context.Background(), &event.Event{
		ID: "evt-1", Title: "Meetup", HostUID: "host-1", StartsAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seeding event: %v", err)
	}

	// Transient aggregation failure propagates so the feed redelivers.
	if err := dispatcher.Dispatch(context.Background(), attendanceFrame("att-1", "evt-1", "alice")); err == nil {
		t.Fatal("expected error from failed aggregation")
	}

	// The redelivery must be aggregated, not skipped as a duplicate.
	if err := dispatcher.Dispatch(context.Background(), attendanceFrame("att-1", "evt-1", "alice")); err != nil {
		t.Fatalf("redelivery Dispatch() error = %v", err)
	}

	doc, err := repo.Get(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("analytics missing after redelivery: %v", err)
	}
	if doc.TotalAttendees != 1 {
		t.Errorf("TotalAttendees = %d, want 1", doc.TotalAttendees)
	}
	if got := testutil.ToFloat64(metrics.framesDuplicate); got != 0 {
		t.Errorf("duplicate counter = %v, want 0", got)
	}

	// A third delivery of the same document is still a duplicate.
	if err := dispatcher.Dispatch(context.Background(), attendanceFrame("att-1", "evt-1", "alice")); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	doc, err = repo.Get(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.TotalAttendees != 1 {
		t.Errorf("redelivery double-counted: TotalAttendees = %d, want 1", doc.TotalAttendees)
	}
}

func TestDispatch_ThresholdTriggersInsights(t *testing.T) {
	env := newDispatcherEnv(t)

	for i := 0; i < insights.MinAttendeesForGeneration-1; i++ {
		frame := attendanceFrame(fmt.Sprintf("att-%d", i), "evt-1", fmt.Sprintf("user-%d", i))
		if err := env.dispatcher.Dispatch(context.Background(), frame); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}
	if _, err := env.insights.Get(context.Background(), "evt-1"); !errors.Is(err, insights.ErrInsightsNotFound) {
		t.Fatalf("insights must not exist below the floor, got err = %v", err)
	}

	frame := attendanceFrame("att-final", "evt-1", "user-final")
	if err := env.dispatcher.Dispatch(context.Background(), frame); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if _, err := env.insights.Get(context.Background(), "evt-1"); err != nil {
		t.Fatalf("expected insights at the floor, got err = %v", err)
	}
	if got := testutil.ToFloat64(env.metrics.insightRuns); got != 1 {
		t.Errorf("insight run counter = %v, want 1", got)
	}
}

func TestDispatch_FeedbackCreated(t *testing.T) {
	env := newDispatcherEnv(t)

	after, _ := json.Marshal(map[string]interface{}{
		"id": "fb-1", "eventId": "evt-1", "rating": 5, "comment": "great event",
	})
	frame := &Frame{DocID: "fb-1", Collection: CollectionFeedback, Kind: KindCreated, After: after}
	if err := env.dispatcher.Dispatch(context.Background(), frame); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	doc, err := env.analytics.Get(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Feedback == nil || doc.Feedback.TotalRatings != 1 || doc.Feedback.AverageRating != 5.0 {
		t.Errorf("Feedback = %+v", doc.Feedback)
	}
}

func TestDispatch_InvalidFeedbackDropped(t *testing.T) {
	env := newDispatcherEnv(t)

	after, _ := json.Marshal(map[string]interface{}{
		"id": "fb-bad", "eventId": "evt-1", "rating": 9,
	})
	frame := &Frame{DocID: "fb-bad", Collection: CollectionFeedback, Kind: KindCreated, After: after}
	if err := env.dispatcher.Dispatch(context.Background(), frame); err != nil {
		t.Fatalf("invalid feedback must be absorbed, got err = %v", err)
	}

	if _, err := env.analytics.Get(context.Background(), "evt-1"); !errors.Is(err, analytics.ErrAnalyticsNotFound) {
		t.Errorf("invalid feedback must not aggregate, got err = %v", err)
	}
	if got := testutil.ToFloat64(env.metrics.framesError); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}
}

func TestDispatch_AnalyticsChangedTriggersGeneration(t *testing.T) {
	env := newDispatcherEnv(t)

	// The analytics document was written by another producer; the frame only
	// carries the transition.
	_, err := env.analytics.Mutate(context.Background(), "evt-1", func(doc *analytics.EventAnalytics) error {
		doc.TotalAttendees = insights.MinAttendeesForGeneration
		doc.HourlySignIns["10:00"] = insights.MinAttendeesForGeneration
		return nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	before, _ := json.Marshal(map[string]interface{}{"eventId": "evt-1", "totalAttendees": insights.MinAttendeesForGeneration - 1})
	after, _ := json.Marshal(map[string]interface{}{"eventId": "evt-1", "totalAttendees": insights.MinAttendeesForGeneration})
	frame := &Frame{DocID: "evt-1", Collection: CollectionAnalytics, Kind: KindUpdated, Before: before, After: after}
	if err := env.dispatcher.Dispatch(context.Background(), frame); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if _, err := env.insights.Get(context.Background(), "evt-1"); err != nil {
		t.Fatalf("expected insights after analytics transition, got err = %v", err)
	}
}

func TestDispatch_IgnoresUnknownCollectionsAndKinds(t *testing.T) {
	env := newDispatcherEnv(t)

	frames := []*Frame{
		{DocID: "x-1", Collection: "payments", Kind: KindCreated},
		{DocID: "att-1", Collection: CollectionAttendance, Kind: KindDeleted},
		{DocID: "fb-1", Collection: CollectionFeedback, Kind: KindUpdated},
	}
	for _, frame := range frames {
		if err := env.dispatcher.Dispatch(context.Background(), frame); err != nil {
			t.Errorf("%s/%s: Dispatch() error = %v", frame.Collection, frame.Kind, err)
		}
	}

	if _, err := env.analytics.Get(context.Background(), "evt-1"); !errors.Is(err, analytics.ErrAnalyticsNotFound) {
		t.Errorf("ignored frames must not aggregate, got err = %v", err)
	}
}

func TestHandler_UndecodableFrameAbsorbed(t *testing.T) {
	env := newDispatcherEnv(t)
	handler := env.dispatcher.Handler(context.Background())

	if err := handler(websocket.TextMessage, []byte(`{broken`)); err != nil {
		t.Fatalf("undecodable frames must be dropped, got err = %v", err)
	}
	if got := testutil.ToFloat64(env.metrics.framesError); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}
}

func TestHandler_RoutesDecodedFrames(t *testing.T) {
	env := newDispatcherEnv(t)
	handler := env.dispatcher.Handler(context.Background())

	rec := attendance.Record{ID: "att-1", EventID: "evt-1", CustomerUID: "alice", AttendedAt: time.Now()}
	after, _ := json.Marshal(rec)
	payload, _ := json.Marshal(map[string]interface{}{
		"doc_id":     "att-1",
		"collection": CollectionAttendance,
		"kind":       KindCreated,
		"after":      json.RawMessage(after),
	})
	if err := handler(websocket.TextMessage, payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	doc, err := env.analytics.Get(context.Background(), "evt-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.TotalAttendees != 1 {
		t.Errorf("TotalAttendees = %d, want 1", doc.TotalAttendees)
	}
}
