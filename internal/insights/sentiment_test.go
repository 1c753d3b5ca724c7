package insights

import (
	"testing"

	"github.com/gatherly/pulse/internal/comment"
)

func TestClassifyComment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"positive keyword", "This was a great event", SentimentPositive},
		{"negative keyword", "What a terrible experience", SentimentNegative},
		{"no keywords", "The venue was on Fifth Street", SentimentNeutral},
		{"case insensitive", "AWESOME session, LOVED it", SentimentPositive},
		{"balanced keywords are neutral", "good venue but boring talks", SentimentNeutral},
		{"positive outweighs negative", "great amazing speakers despite one issue", SentimentPositive},
		{"negative outweighs positive", "boring and disappointing, just nice snacks", SentimentNegative},
		{"empty text", "", SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyComment(tt.text); got != tt.want {
				t.Errorf("ClassifyComment(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func makeComments(texts ...string) []*comment.Comment {
	out := make([]*comment.Comment, len(texts))
	for i, text := range texts {
		out[i] = &comment.Comment{ID: text, EventID: "evt-1", Text: text}
	}
	return out
}

func TestAnalyzeSentiment_NoComments(t *testing.T) {
	result := AnalyzeSentiment(nil)
	if result.OverallSentiment != SentimentNeutral {
		t.Errorf("expected neutral, got %q", result.OverallSentiment)
	}
	if result.NeutralRatio != 1.0 {
		t.Errorf("expected neutral ratio 1.0, got %v", result.NeutralRatio)
	}
	if result.Recommendation != recSentimentNoData {
		t.Errorf("expected no-data recommendation, got %q", result.Recommendation)
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence, got %v", result.Confidence)
	}
}

func TestAnalyzeSentiment_SkipsEmptyText(t *testing.T) {
	result := AnalyzeSentiment(makeComments("great event", "", ""))
	if result.TotalComments != 1 {
		t.Errorf("expected 1 classified comment, got %d", result.TotalComments)
	}
	if result.PositiveCount != 1 {
		t.Errorf("expected 1 positive, got %d", result.PositiveCount)
	}
}

func TestAnalyzeSentiment_OverallLabel(t *testing.T) {
	tests := []struct {
		name    string
		texts   []string
		want    string
		wantRec string
	}{
		{
			name:    "dominant positive",
			texts:   []string{"great", "awesome", "amazing", "meh"},
			want:    SentimentPositive,
			wantRec: recSentimentPositive,
		},
		{
			name:    "dominant negative",
			texts:   []string{"terrible", "awful", "boring", "fine"},
			want:    SentimentNegative,
			wantRec: recSentimentNegative,
		},
		{
			name: "exactly 60% positive stays neutral",
			// 3 of 5 positive = 0.6, which does not exceed the threshold.
			texts:   []string{"great", "awesome", "amazing", "meh", "whatever"},
			want:    SentimentNeutral,
			wantRec: recSentimentMixed,
		},
		{
			name:    "mixed",
			texts:   []string{"great", "terrible"},
			want:    SentimentNeutral,
			wantRec: recSentimentMixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeSentiment(makeComments(tt.texts...))
			if result.OverallSentiment != tt.want {
				t.Errorf("expected overall %q, got %q", tt.want, result.OverallSentiment)
			}
			if result.Recommendation != tt.wantRec {
				t.Errorf("expected recommendation %q, got %q", tt.wantRec, result.Recommendation)
			}
			if result.Confidence != 0.8 {
				t.Errorf("expected confidence 0.8, got %v", result.Confidence)
			}
		})
	}
}
