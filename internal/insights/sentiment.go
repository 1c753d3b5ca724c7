// Package insights provides the keyword sentiment classifier.
package insights

import (
	"strings"

	"github.com/gatherly/pulse/internal/comment"
)

// Fixed keyword tables for comment classification. Matching is
// case-insensitive substring presence; each keyword scores at most once per
// comment.
var positiveKeywords = []string{
	"great", "awesome", "amazing", "excellent", "fantastic", "wonderful",
	"good", "nice", "love", "enjoy", "happy", "satisfied", "impressed",
	"outstanding", "brilliant", "perfect", "best", "favorite", "recommend",
}

var negativeKeywords = []string{
	"bad", "terrible", "awful", "horrible", "disappointing", "poor",
	"worst", "hate", "dislike", "boring", "waste", "useless", "frustrated",
	"angry", "annoyed", "confused", "difficult", "problem", "issue",
}

// Sentiment recommendation texts.
const (
	recSentimentPositive = "Excellent feedback! Attendees are highly satisfied. Consider expanding similar event formats."
	recSentimentNegative = "Address attendee concerns. Consider gathering more detailed feedback to improve future events."
	recSentimentMixed    = "Mixed feedback received. Consider implementing feedback surveys to better understand attendee needs."
	recSentimentNoData   = "No comments available for sentiment analysis"
)

// overallSentimentThreshold is the ratio above which one polarity dominates.
const overallSentimentThreshold = 0.6

// ClassifyComment labels a single comment by comparing positive and negative
// keyword hits. Equal scores (including zero hits) are neutral.
func ClassifyComment(text string) string {
	lowered := strings.ToLower(text)

	positive := 0
	for _, kw := range positiveKeywords {
		if strings.Contains(lowered, kw) {
			positive++
		}
	}
	negative := 0
	for _, kw := range negativeKeywords {
		if strings.Contains(lowered, kw) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// AnalyzeSentiment aggregates per-comment classification into event-level
// ratios. Comments with empty text are skipped entirely. The overall label
// flips away from neutral only when one polarity exceeds 60% of classified
// comments. Confidence is a flat 0.8 whenever any comment was classified.
func AnalyzeSentiment(comments []*comment.Comment) SentimentAnalysis {
	if len(comments) == 0 {
		return SentimentAnalysis{
			NeutralRatio:     1.0,
			OverallSentiment: SentimentNeutral,
			Recommendation:   recSentimentNoData,
		}
	}

	var positive, negative, neutral int
	for _, c := range comments {
		if c.Text == "" {
			continue
		}
		switch ClassifyComment(c.Text) {
		case SentimentPositive:
			positive++
		case SentimentNegative:
			negative++
		default:
			neutral++
		}
	}

	total := positive + negative + neutral
	result := SentimentAnalysis{
		OverallSentiment: SentimentNeutral,
		TotalComments:    total,
		PositiveCount:    positive,
		NegativeCount:    negative,
		NeutralCount:     neutral,
	}
	if total > 0 {
		result.PositiveRatio = float64(positive) / float64(total)
		result.NegativeRatio = float64(negative) / float64(total)
		result.NeutralRatio = float64(neutral) / float64(total)
		result.Confidence = 0.8
	}

	if result.PositiveRatio > overallSentimentThreshold {
		result.OverallSentiment = SentimentPositive
	} else if result.NegativeRatio > overallSentimentThreshold {
		result.OverallSentiment = SentimentNegative
	}

	switch result.OverallSentiment {
	case SentimentPositive:
		result.Recommendation = recSentimentPositive
	case SentimentNegative:
		result.Recommendation = recSentimentNegative
	default:
		result.Recommendation = recSentimentMixed
	}
	return result
}
