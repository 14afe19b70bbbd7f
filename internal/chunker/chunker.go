// Package chunker splits documents into ordered, fixed-size word windows
// small enough to hand to a summarization model.
package chunker

import (
	"iter"
	"strings"
)

// DefaultMaxChunkWords is the largest window a summarization model is given.
const DefaultMaxChunkWords = 1000

// Chunk is one contiguous word window of a document.
type Chunk struct {
	Index     int
	Text      string
	WordCount int
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Split returns the word windows of text in document order. Every window
// holds exactly maxChunkWords words except the last one, which holds the
// remainder. Whitespace-only text yields no windows. A non-positive
// maxChunkWords selects DefaultMaxChunkWords.
//
// The sequence is lazy and can be ranged over more than once.
func Split(text string, maxChunkWords int) iter.Seq[Chunk] {
	if maxChunkWords <= 0 {
		maxChunkWords = DefaultMaxChunkWords
	}

	return func(yield func(Chunk) bool) {
		words := strings.Fields(text)
		for i, start := 0, 0; start < len(words); i, start = i+1, start+maxChunkWords {
			end := min(start+maxChunkWords, len(words))
			c := Chunk{
				Index:     i,
				Text:      strings.Join(words[start:end], " "),
				WordCount: end - start,
			}
			if !yield(c) {
				return
			}
		}
	}
}
