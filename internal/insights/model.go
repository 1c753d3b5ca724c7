// Package insights derives best-effort recommendations from the per-event
// analytics aggregate. All analyses are deterministic rule tables over their
// inputs; the insights document is recomputed wholesale, never merged.
package insights

import (
	"time"
)

// Sentiment labels for comment classification.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Severity and impact tiers.
const (
	TierHigh   = "High"
	TierMedium = "Medium"
	TierLow    = "Low"
)

// EventInsights is the derived insights document for one event. It is
// entirely recomputable from analytics, comments and attendance, and is
// overwritten in full on every generation (last writer wins).
type EventInsights struct {
	EventID         string                 `json:"eventId"`
	PeakHours       PeakHoursAnalysis      `json:"peakHoursAnalysis"`
	Sentiment       SentimentAnalysis      `json:"sentimentAnalysis"`
	Optimizations   []Optimization         `json:"optimizationPredictions"`
	Dropout         DropoutAnalysis        `json:"dropoutAnalysis"`
	RepeatAttendees RepeatAttendeeAnalysis `json:"repeatAttendeeAnalysis"`
	LastUpdated     time.Time              `json:"lastUpdated"`
}

// PeakHoursAnalysis reports the busiest check-in hour and a scheduling
// recommendation for it.
type PeakHoursAnalysis struct {
	PeakHour           string         `json:"peakHour"`
	PeakCount          int            `json:"peakCount"`
	Recommendation     string         `json:"recommendation"`
	Confidence         float64        `json:"confidence"`
	TotalSignIns       int            `json:"totalSignIns"`
	HourlyDistribution map[string]int `json:"hourlyDistribution,omitempty"`
}

// SentimentAnalysis aggregates per-comment keyword classification into
// event-level sentiment ratios.
type SentimentAnalysis struct {
	PositiveRatio    float64 `json:"positiveRatio"`
	NegativeRatio    float64 `json:"negativeRatio"`
	NeutralRatio     float64 `json:"neutralRatio"`
	OverallSentiment string  `json:"overallSentiment"`
	Recommendation   string  `json:"recommendation"`
	Confidence       float64 `json:"confidence"`
	TotalComments    int     `json:"totalComments"`
	PositiveCount    int     `json:"positiveCount"`
	NegativeCount    int     `json:"negativeCount"`
	NeutralCount     int     `json:"neutralCount"`
}

// Optimization is one suggested change produced by the optimization rule list.
type Optimization struct {
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Impact         string  `json:"impact"`
	Confidence     float64 `json:"confidence"`
	Implementation string  `json:"implementation"`
}

// DropoutAnalysis tiers the dropout rate and recommends mitigation.
type DropoutAnalysis struct {
	DropoutRate    float64 `json:"dropoutRate"`
	Recommendation string  `json:"recommendation"`
	Severity       string  `json:"severity"`
	TotalAttendees int     `json:"totalAttendees"`
	Confidence     float64 `json:"confidence"`
}

// RepeatAttendeeAnalysis tiers the repeat-attendance rate.
type RepeatAttendeeAnalysis struct {
	RepeatRate      float64 `json:"repeatRate"`
	RepeatAttendees int     `json:"repeatAttendees"`
	TotalAttendees  int     `json:"totalAttendees"`
	Recommendation  string  `json:"recommendation"`
	Confidence      float64 `json:"confidence"`
}
