package insights

import (
	"testing"

	"github.com/gatherly/pulse/internal/analytics"
)

func optimizationTypes(opts []Optimization) []string {
	types := make([]string, 0, len(opts))
	for _, o := range opts {
		types = append(types, o.Type)
	}
	return types
}

func TestBuildOptimizations_NilDoc(t *testing.T) {
	opts := BuildOptimizations(nil, PeakHoursAnalysis{}, SentimentAnalysis{OverallSentiment: SentimentNeutral})
	if len(opts) != 0 {
		t.Fatalf("expected no optimizations for nil doc, got %v", optimizationTypes(opts))
	}
}

func TestBuildOptimizations_Rules(t *testing.T) {
	tests := []struct {
		name      string
		doc       func() *analytics.EventAnalytics
		peak      PeakHoursAnalysis
		sentiment SentimentAnalysis
		wantTypes []string
	}{
		{
			name: "morning peak fires timing",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				return d
			},
			peak:      PeakHoursAnalysis{PeakHour: "10:00", Confidence: 0.9},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNeutral},
			wantTypes: []string{"timing", "scheduling"},
		},
		{
			name: "evening peak fires timing",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				return d
			},
			peak:      PeakHoursAnalysis{PeakHour: "18:00", Confidence: 0.5},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNeutral},
			wantTypes: []string{"timing", "scheduling"},
		},
		{
			name: "midday peak fires no timing rule",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				return d
			},
			peak:      PeakHoursAnalysis{PeakHour: "13:00", Confidence: 0.5},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNeutral},
			wantTypes: []string{"scheduling"},
		},
		{
			name: "high dropout fires reminder",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				d.DropoutRate = 35.0
				return d
			},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNeutral},
			wantTypes: []string{"scheduling", "engagement"},
		},
		{
			name: "dropout at threshold does not fire reminder",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				d.DropoutRate = 20.0
				return d
			},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNeutral},
			wantTypes: []string{"scheduling"},
		},
		{
			name: "low repeat rate fires loyalty",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				d.RepeatAttendees = 2
				return d
			},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNeutral},
			wantTypes: []string{"scheduling", "retention"},
		},
		{
			name: "loyalty needs at least one repeat attendee",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				return d
			},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNeutral},
			wantTypes: []string{"scheduling"},
		},
		{
			name: "healthy repeat rate skips loyalty",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				d.RepeatAttendees = 4
				return d
			},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNeutral},
			wantTypes: []string{"scheduling"},
		},
		{
			name: "negative sentiment fires quality",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				return d
			},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNegative},
			wantTypes: []string{"scheduling", "feedback"},
		},
		{
			name: "all rules fire together",
			doc: func() *analytics.EventAnalytics {
				d := analytics.New("evt-1")
				d.TotalAttendees = 10
				d.DropoutRate = 40.0
				d.RepeatAttendees = 1
				return d
			},
			peak:      PeakHoursAnalysis{PeakHour: "09:00", Confidence: 0.8},
			sentiment: SentimentAnalysis{OverallSentiment: SentimentNegative},
			wantTypes: []string{"timing", "scheduling", "engagement", "retention", "feedback"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := BuildOptimizations(tt.doc(), tt.peak, tt.sentiment)
			got := optimizationTypes(opts)
			if len(got) != len(tt.wantTypes) {
				t.Fatalf("got types %v, want %v", got, tt.wantTypes)
			}
			for i := range got {
				if got[i] != tt.wantTypes[i] {
					t.Fatalf("got types %v, want %v", got, tt.wantTypes)
				}
			}
		})
	}
}

func TestBuildOptimizations_TimingCarriesPeakConfidence(t *testing.T) {
	doc := analytics.New("evt-1")
	doc.TotalAttendees = 3
	opts := BuildOptimizations(doc, PeakHoursAnalysis{PeakHour: "10:00", Confidence: 0.42}, SentimentAnalysis{OverallSentiment: SentimentNeutral})
	if len(opts) == 0 || opts[0].Type != "timing" {
		t.Fatalf("expected timing rule first, got %v", optimizationTypes(opts))
	}
	if opts[0].Confidence != 0.42 {
		t.Errorf("timing confidence = %v, want the peak analysis confidence", opts[0].Confidence)
	}
}
