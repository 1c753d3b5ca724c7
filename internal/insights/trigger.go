// Package insights provides the generation trigger predicate.
package insights

import (
	"github.com/gatherly/pulse/internal/analytics"
)

// MinAttendeesForGeneration is the attendance floor below which insight
// generation never runs.
const MinAttendeesForGeneration = 5

// ShouldGenerate reports whether an analytics transition warrants regenerating
// insights: the attendee count must have grown and the new count must be at
// or above the floor. Edge-triggered with no debounce, so once the floor is
// crossed every further increment qualifies. A nil snapshot counts as zero
// attendees.
func ShouldGenerate(before, after *analytics.EventAnalytics) bool {
	beforeTotal := 0
	if before != nil {
		beforeTotal = before.TotalAttendees
	}
	afterTotal := 0
	if after != nil {
		afterTotal = after.TotalAttendees
	}
	return afterTotal > beforeTotal && afterTotal >= MinAttendeesForGeneration
}
