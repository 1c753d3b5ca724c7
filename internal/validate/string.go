// Package validate provides input validation and sanitization for
// user-supplied request fields.
package validate

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooLong = errors.New("string is too long")
	ErrEmpty         = errors.New("string is empty")
)

// Field length budgets for request payloads.
const (
	MaxTitleLength    = 200
	MaxLocationLength = 300
	MaxCommentLength  = 2000
)

// StringConstraints defines validation constraints for a string field.
type StringConstraints struct {
	MaxLength  int  // Maximum length in characters (0 = no maximum)
	AllowEmpty bool // Whether empty strings are allowed
}

// String validates a string against the given constraints. Whitespace is
// trimmed before validation; the trimmed string is returned.
func String(s string, constraints StringConstraints) (string, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	// Character count, not byte count.
	length := utf8.RuneCountInString(s)
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}

	return s, nil
}

// SanitizeHTML escapes HTML special characters so user-generated text is safe
// to render without further escaping.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

// SanitizeString performs both validation and HTML sanitization.
func SanitizeString(s string, constraints StringConstraints) (string, error) {
	validated, err := String(s, constraints)
	if err != nil {
		return "", err
	}
	return SanitizeHTML(validated), nil
}

// EventTitle validates an event title: required, at most 200 characters.
func EventTitle(title string) (string, error) {
	return SanitizeString(title, StringConstraints{
		MaxLength: MaxTitleLength,
	})
}

// Location validates an event location: optional, at most 300 characters.
func Location(location string) (string, error) {
	return SanitizeString(location, StringConstraints{
		MaxLength:  MaxLocationLength,
		AllowEmpty: true,
	})
}

// CommentText validates comment and feedback text: required, at most 2000
// characters. Summarization for analytics truncates separately.
func CommentText(text string) (string, error) {
	return SanitizeString(text, StringConstraints{
		MaxLength: MaxCommentLength,
	})
}

// FeedbackComment validates the optional free-text comment on a feedback
// submission.
func FeedbackComment(text string) (string, error) {
	return SanitizeString(text, StringConstraints{
		MaxLength:  MaxCommentLength,
		AllowEmpty: true,
	})
}
