package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		constraints StringConstraints
		want        string
		wantErr     error
	}{
		{"valid", "hello", StringConstraints{MaxLength: 10}, "hello", nil},
		{"trims whitespace", "  hello  ", StringConstraints{MaxLength: 10}, "hello", nil},
		{"empty rejected", "", StringConstraints{MaxLength: 10}, "", ErrEmpty},
		{"whitespace only rejected", "   ", StringConstraints{MaxLength: 10}, "", ErrEmpty},
		{"empty allowed", "", StringConstraints{MaxLength: 10, AllowEmpty: true}, "", nil},
		{"too long", strings.Repeat("a", 11), StringConstraints{MaxLength: 10}, "", ErrStringTooLong},
		{"exactly at budget", strings.Repeat("a", 10), StringConstraints{MaxLength: 10}, strings.Repeat("a", 10), nil},
		{"no maximum", strings.Repeat("a", 500), StringConstraints{}, strings.Repeat("a", 500), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(tt.input, tt.constraints)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("String() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestString_CountsRunesNotBytes(t *testing.T) {
	// Ten multi-byte characters fit a ten-character budget.
	input := strings.Repeat("é", 10)
	got, err := String(input, StringConstraints{MaxLength: 10})
	if err != nil {
		t.Fatalf("String() error = %v", err)
	}
	if got != input {
		t.Errorf("String() = %q", got)
	}
}

func TestSanitizeHTML(t *testing.T) {
	got := SanitizeHTML(`<script>alert("x")</script>`)
	if strings.Contains(got, "<script>") {
		t.Errorf("SanitizeHTML left raw markup: %q", got)
	}
}

func TestEventTitle(t *testing.T) {
	if _, err := EventTitle(""); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty title error = %v, want ErrEmpty", err)
	}
	if _, err := EventTitle(strings.Repeat("a", MaxTitleLength+1)); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("oversized title error = %v, want ErrStringTooLong", err)
	}
	got, err := EventTitle("  Summer Meetup  ")
	if err != nil {
		t.Fatalf("EventTitle() error = %v", err)
	}
	if got != "Summer Meetup" {
		t.Errorf("EventTitle() = %q", got)
	}
}

func TestLocation_Optional(t *testing.T) {
	got, err := Location("")
	if err != nil {
		t.Fatalf("empty location should validate, got %v", err)
	}
	if got != "" {
		t.Errorf("Location(\"\") = %q", got)
	}
}

func TestCommentText(t *testing.T) {
	if _, err := CommentText("  "); !errors.Is(err, ErrEmpty) {
		t.Errorf("blank comment error = %v, want ErrEmpty", err)
	}
	if _, err := CommentText(strings.Repeat("a", MaxCommentLength+1)); !errors.Is(err, ErrStringTooLong) {
		t.Errorf("oversized comment error = %v, want ErrStringTooLong", err)
	}
}

func TestFeedbackComment_Optional(t *testing.T) {
	got, err := FeedbackComment("")
	if err != nil {
		t.Fatalf("empty feedback comment should validate, got %v", err)
	}
	if got != "" {
		t.Errorf("FeedbackComment(\"\") = %q", got)
	}
}
