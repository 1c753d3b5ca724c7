package insights

import (
	"testing"

	"github.com/gatherly/pulse/internal/analytics"
)

func docWithTotal(total int) *analytics.EventAnalytics {
	d := analytics.New("evt-1")
	d.TotalAttendees = total
	return d
}

func TestShouldGenerate(t *testing.T) {
	tests := []struct {
		name   string
		before *analytics.EventAnalytics
		after  *analytics.EventAnalytics
		want   bool
	}{
		{"nil before crossing floor", nil, docWithTotal(MinAttendeesForGeneration), true},
		{"nil before below floor", nil, docWithTotal(MinAttendeesForGeneration - 1), false},
		{"growth below floor", docWithTotal(2), docWithTotal(3), false},
		{"growth onto floor", docWithTotal(4), docWithTotal(5), true},
		{"growth above floor", docWithTotal(7), docWithTotal(8), true},
		{"no growth at floor", docWithTotal(5), docWithTotal(5), false},
		{"shrink above floor", docWithTotal(8), docWithTotal(7), false},
		{"nil after", docWithTotal(5), nil, false},
		{"both nil", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldGenerate(tt.before, tt.after); got != tt.want {
				t.Errorf("ShouldGenerate() = %v, want %v", got, tt.want)
			}
		})
	}
}
