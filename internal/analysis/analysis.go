// Package analysis runs the text analyses offered next to summarization:
// sentiment, named entities, keywords, readability and basic statistics.
package analysis

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/localrivet/aisummarizer/internal/errortypes"
)

// ModelInputLimit is how many characters of the input the classification
// models look at.
const ModelInputLimit = 512

// ErrEmptyText is returned by every analysis given blank input.
var ErrEmptyText = errors.New("empty text")

// Sentiment is a polarity label with its confidence.
type Sentiment struct {
	Label string  `json:"label" yaml:"label"`
	Score float64 `json:"score" yaml:"score"`
}

// Entity is a named entity found in the text.
type Entity struct {
	Group string  `json:"group" yaml:"group"`
	Word  string  `json:"word" yaml:"word"`
	Score float64 `json:"score" yaml:"score"`
	Start int     `json:"start" yaml:"start"`
	End   int     `json:"end" yaml:"end"`
}

// Keyword is a key phrase. Lower scores are more relevant.
type Keyword struct {
	Phrase string  `json:"phrase" yaml:"phrase"`
	Score  float64 `json:"score" yaml:"score"`
}

// SentimentClassifier labels the polarity of text.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (Sentiment, error)
}

// EntityExtractor finds named entities.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
}

// KeywordExtractor finds key phrases.
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, text string) ([]Keyword, error)
}

// ReadabilityScorer rates how easy text is to read.
type ReadabilityScorer interface {
	ScoreReadability(ctx context.Context, text string) (Readability, error)
}

func requireText(text, message string) error {
	if strings.TrimSpace(text) == "" {
		return errortypes.ValidationError(ErrEmptyText, message)
	}
	return nil
}

// truncateRunes keeps the first n characters of text.
func truncateRunes(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
