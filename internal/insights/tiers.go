// Package insights provides the dropout and repeat-attendance tier tables.
package insights

import (
	"github.com/gatherly/pulse/internal/analytics"
)

// Dropout severity thresholds (percentages).
const (
	dropoutHighThreshold   = 50.0
	dropoutMediumThreshold = 25.0
)

// Repeat-rate tier thresholds (percentages).
const (
	repeatExcellentThreshold = 50.0
	repeatGoodThreshold      = 25.0
)

// Tier recommendation texts.
const (
	recDropoutHigh   = "High dropout rate detected. Consider improving event marketing and reminder systems."
	recDropoutMedium = "Moderate dropout rate. Implement better engagement strategies."
	recDropoutLow    = "Low dropout rate. Your event planning is effective!"

	recRepeatExcellent = "Excellent repeat attendance! Your events have strong community building."
	recRepeatGood      = "Good repeat attendance. Consider loyalty programs to increase retention."
	recRepeatLow       = "Low repeat attendance. Focus on building community and improving event quality."
)

// AnalyzeDropout tiers the aggregate's dropout rate.
func AnalyzeDropout(doc *analytics.EventAnalytics) DropoutAnalysis {
	dropoutRate := 0.0
	totalAttendees := 0
	if doc != nil {
		dropoutRate = doc.DropoutRate
		totalAttendees = doc.TotalAttendees
	}

	result := DropoutAnalysis{
		DropoutRate:    dropoutRate,
		TotalAttendees: totalAttendees,
		Confidence:     0.8,
	}
	switch {
	case dropoutRate > dropoutHighThreshold:
		result.Severity = TierHigh
		result.Recommendation = recDropoutHigh
	case dropoutRate > dropoutMediumThreshold:
		result.Severity = TierMedium
		result.Recommendation = recDropoutMedium
	default:
		result.Severity = TierLow
		result.Recommendation = recDropoutLow
	}
	return result
}

// AnalyzeRepeatAttendees tiers the aggregate's repeat-attendance rate.
// The rate is zero when the event has no attendees.
func AnalyzeRepeatAttendees(doc *analytics.EventAnalytics) RepeatAttendeeAnalysis {
	repeatAttendees := 0
	totalAttendees := 0
	if doc != nil {
		repeatAttendees = doc.RepeatAttendees
		totalAttendees = doc.TotalAttendees
	}

	repeatRate := 0.0
	if totalAttendees > 0 {
		repeatRate = float64(repeatAttendees) / float64(totalAttendees) * 100
	}

	result := RepeatAttendeeAnalysis{
		RepeatRate:      repeatRate,
		RepeatAttendees: repeatAttendees,
		TotalAttendees:  totalAttendees,
		Confidence:      0.8,
	}
	switch {
	case repeatRate > repeatExcellentThreshold:
		result.Recommendation = recRepeatExcellent
	case repeatRate > repeatGoodThreshold:
		result.Recommendation = recRepeatGood
	default:
		result.Recommendation = recRepeatLow
	}
	return result
}
