package summarizer

import (
	"errors"
	"fmt"

	"github.com/localrivet/aisummarizer/internal/chunker"
	"github.com/localrivet/aisummarizer/internal/errortypes"
)

// LengthBounds is a word range for a summary.
type LengthBounds struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

func (b LengthBounds) String() string {
	return fmt.Sprintf("[%d,%d]", b.Min, b.Max)
}

// Validation messages shown to users.
const (
	MsgTooShort      = "Please enter at least 30 words."
	MsgInvalidBounds = "Please ensure valid min and max length values."
	MsgMaxTooLarge   = "Please enter max length <= 1000 per chunk."
)

var (
	ErrDocumentTooShort = errors.New("document too short")
	ErrInvalidBounds    = errors.New("invalid length bounds")
	ErrMaxTooLarge      = errors.New("max length too large")
)

// AdaptBounds fits the global bounds to a chunk of chunkWordCount words.
// Both bounds are capped at the chunk size. It returns false when either
// adapted bound is not positive and the chunk must be skipped.
func AdaptBounds(global LengthBounds, chunkWordCount int) (LengthBounds, bool) {
	adapted := LengthBounds{
		Min: min(global.Min, chunkWordCount),
		Max: min(global.Max, chunkWordCount),
	}
	if adapted.Min <= 0 || adapted.Max <= 0 {
		return adapted, false
	}
	return adapted, true
}

// ValidateRequest checks a document and its global bounds before any
// inference happens. Failures are validation errors carrying the message
// to show the user.
func ValidateRequest(document string, bounds LengthBounds) error {
	words := chunker.CountWords(document)
	if words < MinDocumentWords {
		return errortypes.ValidationError(ErrDocumentTooShort, MsgTooShort).
			WithField("word_count", words)
	}
	if bounds.Min <= 0 || bounds.Max <= 0 || bounds.Min > bounds.Max {
		return errortypes.ValidationError(ErrInvalidBounds, MsgInvalidBounds).
			WithFields(map[string]any{"min": bounds.Min, "max": bounds.Max})
	}
	if bounds.Max > MaxLengthCeiling {
		return errortypes.ValidationError(ErrMaxTooLarge, MsgMaxTooLarge).
			WithField("max", bounds.Max)
	}
	return nil
}
