// Package analytics provides the per-event attendance aggregate and the
// transactional aggregation pipeline that maintains it.
package analytics

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Sentiment labels derived from the running average rating.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Comment summary bounds for the nested feedback block.
const (
	// MaxCommentSummaries caps the summaries list. Once full, later comments
	// are silently dropped; nothing is evicted.
	MaxCommentSummaries = 10

	// CommentSummaryMaxLen is the character budget before ellipsis truncation.
	CommentSummaryMaxLen = 100
)

// EventAnalytics is the per-event aggregate document. One exists per event ID.
// All mutations for a given event are linearized through Repository.Mutate.
type EventAnalytics struct {
	EventID         string             `json:"eventId"`
	TotalAttendees  int                `json:"totalAttendees"`
	HourlySignIns   map[string]int     `json:"hourlySignIns"`
	RepeatAttendees int                `json:"repeatAttendees"`
	DropoutRate     float64            `json:"dropoutRate"`
	Feedback        *FeedbackAnalytics `json:"feedbackAnalytics,omitempty"`
	LastUpdated     time.Time          `json:"lastUpdated"`
}

// FeedbackAnalytics is the nested feedback aggregate, created lazily on the
// first feedback record for an event.
type FeedbackAnalytics struct {
	AverageRating      float64     `json:"averageRating"`
	TotalRatings       int         `json:"totalRatings"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
	Sentiment          string      `json:"sentiment"`
	CommentSummaries   []string    `json:"commentSummaries"`
	AnonymousCount     int         `json:"anonymousCount"`
	NamedCount         int         `json:"namedCount"`
}

// New returns a default-initialized analytics document for an event.
func New(eventID string) *EventAnalytics {
	return &EventAnalytics{
		EventID:       eventID,
		HourlySignIns: make(map[string]int),
		LastUpdated:   time.Now(),
	}
}

// Clone returns a deep copy of the document.
func (a *EventAnalytics) Clone() *EventAnalytics {
	if a == nil {
		return nil
	}
	c := *a
	c.HourlySignIns = make(map[string]int, len(a.HourlySignIns))
	for k, v := range a.HourlySignIns {
		c.HourlySignIns[k] = v
	}
	if a.Feedback != nil {
		fb := *a.Feedback
		fb.RatingDistribution = make(map[int]int, len(a.Feedback.RatingDistribution))
		for k, v := range a.Feedback.RatingDistribution {
			fb.RatingDistribution[k] = v
		}
		fb.CommentSummaries = append([]string(nil), a.Feedback.CommentSummaries...)
		c.Feedback = &fb
	}
	return &c
}

// HourBucket formats the local hour of a check-in as a zero-padded "HH:00" key.
func HourBucket(t time.Time) string {
	return fmt.Sprintf("%02d:00", t.Hour())
}

// SentimentForAverage maps a running average rating to a sentiment label.
// Thresholds are boundary-inclusive: 4.0 is positive, 3.0 is neutral.
func SentimentForAverage(avg float64) string {
	switch {
	case avg >= 4.0:
		return SentimentPositive
	case avg >= 3.0:
		return SentimentNeutral
	default:
		return SentimentNegative
	}
}

// SummarizeComment truncates a comment to the summary budget, appending an
// ellipsis when the text was cut. The budget counts characters, so the cut
// lands on a rune boundary and the summary stays valid UTF-8.
func SummarizeComment(text string) string {
	if utf8.RuneCountInString(text) <= CommentSummaryMaxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:CommentSummaryMaxLen]) + "..."
}
