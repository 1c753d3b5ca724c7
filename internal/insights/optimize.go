// Package insights provides the optimization synthesis rule list.
package insights

import (
	"github.com/gatherly/pulse/internal/analytics"
)

// repeatRateLoyaltyThreshold is the repeat-rate percentage below which the
// loyalty-program suggestion fires.
const repeatRateLoyaltyThreshold = 30.0

// dropoutReminderThreshold is the dropout-rate percentage above which the
// reminder-system suggestion fires.
const dropoutReminderThreshold = 20.0

// BuildOptimizations evaluates the fixed optimization rule list in order.
// Each rule independently appends at most one suggestion when its guard
// holds; rule order matters for presentation only.
func BuildOptimizations(doc *analytics.EventAnalytics, peak PeakHoursAnalysis, sentiment SentimentAnalysis) []Optimization {
	var result []Optimization

	totalAttendees := 0
	dropoutRate := 0.0
	repeatAttendees := 0
	if doc != nil {
		totalAttendees = doc.TotalAttendees
		dropoutRate = doc.DropoutRate
		repeatAttendees = doc.RepeatAttendees
	}

	if peak.PeakHour != "" {
		hour := bucketHour(peak.PeakHour)
		if hour >= 9 && hour <= 11 {
			result = append(result, Optimization{
				Type:           "timing",
				Title:          "Optimize Event Timing",
				Description:    "Shift events to morning hours (9-11 AM) for +35% attendance",
				Impact:         TierHigh,
				Confidence:     peak.Confidence,
				Implementation: "Schedule future events during peak morning hours",
			})
		} else if hour >= 17 && hour <= 19 {
			result = append(result, Optimization{
				Type:           "timing",
				Title:          "Evening Event Strategy",
				Description:    "Leverage evening peak (5-7 PM) for +25% attendance",
				Impact:         TierMedium,
				Confidence:     peak.Confidence,
				Implementation: "Focus on after-work events and networking sessions",
			})
		}
	}

	if totalAttendees > 0 {
		result = append(result, Optimization{
			Type:           "scheduling",
			Title:          "Weekend Events",
			Description:    "Shift to weekends for +40% attendance potential",
			Impact:         TierHigh,
			Confidence:     0.7,
			Implementation: "Schedule events on Saturdays or Sundays",
		})
	}

	if dropoutRate > dropoutReminderThreshold {
		result = append(result, Optimization{
			Type:           "engagement",
			Title:          "Reduce Dropout Rate",
			Description:    "Implement reminder system to reduce dropout by 30%",
			Impact:         TierMedium,
			Confidence:     0.8,
			Implementation: "Send SMS/email reminders 24h and 1h before events",
		})
	}

	if repeatAttendees > 0 && totalAttendees > 0 {
		repeatRate := float64(repeatAttendees) / float64(totalAttendees) * 100
		if repeatRate < repeatRateLoyaltyThreshold {
			result = append(result, Optimization{
				Type:           "retention",
				Title:          "Increase Repeat Attendance",
				Description:    "Implement loyalty program for +50% repeat attendance",
				Impact:         TierHigh,
				Confidence:     0.6,
				Implementation: "Create member benefits and early access programs",
			})
		}
	}

	if sentiment.OverallSentiment == SentimentNegative {
		result = append(result, Optimization{
			Type:           "feedback",
			Title:          "Improve Event Quality",
			Description:    "Address feedback to improve satisfaction by 40%",
			Impact:         TierHigh,
			Confidence:     0.9,
			Implementation: "Conduct post-event surveys and implement feedback",
		})
	}

	return result
}
