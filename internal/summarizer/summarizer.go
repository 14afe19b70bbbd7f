// Package summarizer condenses documents of any length. A ChunkedSummarizer
// splits the document into word windows and hands each one to an Engine
// with word bounds fitted to that window. BasicSummarizer and AISummarizer
// are the engines.
package summarizer

import (
	"context"
)

const (
	// MinDocumentWords is the shortest document accepted for summarization.
	MinDocumentWords = 30

	// MaxLengthCeiling is the largest maximum summary length per chunk.
	MaxLengthCeiling = 1000

	// DefaultMinLength and DefaultMaxLength are the bounds a host offers
	// before the user changes them.
	DefaultMinLength = 30
	DefaultMaxLength = 130
)

// Engine summarizes one chunk of text to between minLength and maxLength
// words. Implementations must be safe for sequential reuse.
type Engine interface {
	Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error)
}

// Summarizer is the host-facing operation: a whole document in, one
// summary out.
type Summarizer interface {
	Summarize(ctx context.Context, document string, minLength, maxLength int) (string, error)
}

// Initializer is implemented by engines that need setup before first use.
type Initializer interface {
	Initialize() error
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, text string, minLength, maxLength int) (string, error)

// Summarize calls f.
func (f EngineFunc) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	return f(ctx, text, minLength, maxLength)
}
