package domain

import (
	"regexp"
	"strings"
)

// AnswerFormat selects how a generated answer is reshaped for the caller.
type AnswerFormat string

// Available answer formats.
const (
	// AnswerFormatPlain returns the raw text.
	AnswerFormatPlain AnswerFormat = "plain"

	// AnswerFormatOneLine collapses newlines and surrounding whitespace to one space.
	AnswerFormatOneLine AnswerFormat = "one_line"

	// AnswerFormatLines returns the non-empty trimmed lines.
	AnswerFormatLines AnswerFormat = "lines"

	// AnswerFormatText returns the raw text as a text/plain body.
	AnswerFormatText AnswerFormat = "text"
)

var newlineRun = regexp.MustCompile(`\s*\n+\s*`)

// IsValid returns true if the format is recognised.
func (f AnswerFormat) IsValid() bool {
	switch f {
	case AnswerFormatPlain, AnswerFormatOneLine, AnswerFormatLines, AnswerFormatText:
		return true
	default:
		return false
	}
}

// ParseAnswerFormat returns the format named by s, defaulting to plain.
func ParseAnswerFormat(s string) (AnswerFormat, error) {
	if s == "" {
		return AnswerFormatPlain, nil
	}
	f := AnswerFormat(s)
	if !f.IsValid() {
		return "", ErrInvalidInput
	}
	return f, nil
}

// ShapedAnswer is an answer after formatting.
// Lines is set only for AnswerFormatLines; Text is set otherwise.
type ShapedAnswer struct {
	Format AnswerFormat
	Text   string
	Lines  []string
}

// Shape reshapes text for the format. It never affects generation.
func (f AnswerFormat) Shape(text string) ShapedAnswer {
	switch f {
	case AnswerFormatOneLine:
		return ShapedAnswer{Format: f, Text: strings.TrimSpace(newlineRun.ReplaceAllString(text, " "))}
	case AnswerFormatLines:
		lines := []string{}
		for _, ln := range strings.Split(text, "\n") {
			if ln = strings.TrimSpace(ln); ln != "" {
				lines = append(lines, ln)
			}
		}
		return ShapedAnswer{Format: f, Lines: lines}
	case AnswerFormatText:
		return ShapedAnswer{Format: f, Text: text}
	default:
		return ShapedAnswer{Format: AnswerFormatPlain, Text: text}
	}
}
