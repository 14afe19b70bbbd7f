package summarizer

import (
	"context"
	"strings"
)

const ellipsis = "..."

// BasicSummarizer is an Engine that needs no model. It keeps the leading
// sentences of the text that fit the word budget.
type BasicSummarizer struct{}

// NewBasicSummarizer creates a new BasicSummarizer instance.
func NewBasicSummarizer() *BasicSummarizer {
	return &BasicSummarizer{}
}

// Initialize sets up the summarizer with any required configuration.
func (s *BasicSummarizer) Initialize() error {
	return nil
}

// Summarize returns at most maxLength words of text. Whole leading
// sentences are kept while they fit; if they come to fewer than minLength
// words the text is cut at the maxLength word instead and marked with an
// ellipsis.
func (s *BasicSummarizer) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	words := strings.Fields(text)
	if maxLength <= 0 || len(words) <= maxLength {
		return strings.Join(words, " "), nil
	}

	// Whole sentences first
	kept := 0
	for i, w := range words[:maxLength] {
		if isSentenceEnd(w) {
			kept = i + 1
		}
	}
	if kept > 0 && kept >= minLength {
		return strings.Join(words[:kept], " "), nil
	}

	// Otherwise end at a word boundary
	return strings.Join(words[:maxLength], " ") + ellipsis, nil
}

func isSentenceEnd(word string) bool {
	word = strings.TrimRight(word, `"')]}`)
	return strings.HasSuffix(word, ".") || strings.HasSuffix(word, "?") || strings.HasSuffix(word, "!")
}
