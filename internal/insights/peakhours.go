// Package insights provides the peak-hour analysis rule table.
package insights

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Recommendation texts for the peak-hour windows.
const (
	recPeakMorning = "Morning events (9-11 AM) show highest engagement. Consider scheduling future events during this time."
	recPeakLunch   = "Lunch time (12-2 PM) is your peak period. Lunch-and-learn events could be highly successful."
	recPeakEvening = "Evening hours (5-7 PM) are most popular. After-work events align well with attendee preferences."

	recPeakNoData = "Insufficient data for peak hour analysis"
)

// AnalyzePeakHours finds the busiest hour bucket in the hourly sign-in map.
// Buckets are visited in ascending hour order and only a strictly greater
// count replaces the current peak, so ties resolve to the earliest hour.
// Confidence is the peak's share of all sign-ins.
func AnalyzePeakHours(hourlySignIns map[string]int) PeakHoursAnalysis {
	if len(hourlySignIns) == 0 {
		return PeakHoursAnalysis{
			Recommendation: recPeakNoData,
		}
	}

	hours := make([]string, 0, len(hourlySignIns))
	for h := range hourlySignIns {
		hours = append(hours, h)
	}
	sort.Strings(hours)

	peakHour := ""
	peakCount := 0
	totalSignIns := 0
	for _, h := range hours {
		count := hourlySignIns[h]
		totalSignIns += count
		if count > peakCount {
			peakCount = count
			peakHour = h
		}
	}

	confidence := 0.0
	if totalSignIns > 0 {
		confidence = float64(peakCount) / float64(totalSignIns)
	}

	result := PeakHoursAnalysis{
		PeakHour:           peakHour,
		PeakCount:          peakCount,
		Confidence:         confidence,
		TotalSignIns:       totalSignIns,
		HourlyDistribution: hourlySignIns,
	}
	if peakHour != "" {
		result.Recommendation = peakHourRecommendation(peakHour)
	}
	return result
}

// peakHourRecommendation selects the recommendation text for a peak hour
// bucket from the fixed window table.
func peakHourRecommendation(bucket string) string {
	hour := bucketHour(bucket)
	switch {
	case hour >= 9 && hour <= 11:
		return recPeakMorning
	case hour >= 12 && hour <= 14:
		return recPeakLunch
	case hour >= 17 && hour <= 19:
		return recPeakEvening
	default:
		return fmt.Sprintf("Peak attendance at %s. Consider this timing for future events.", bucket)
	}
}

// bucketHour parses the numeric hour out of an "HH:00" bucket key.
// Malformed keys map to -1, which falls through to the generic message.
func bucketHour(bucket string) int {
	head, _, ok := strings.Cut(bucket, ":")
	if !ok {
		return -1
	}
	hour, err := strconv.Atoi(head)
	if err != nil {
		return -1
	}
	return hour
}
