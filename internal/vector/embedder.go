// Package vector turns text into fixed size vectors for similarity search
// over archived summaries.
package vector

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimensions is the vector size used by the archive.
const DefaultDimensions = 256

// Embedder converts text into a vector representation.
type Embedder interface {
	Embed(text string) ([]float32, error)
	Dimensions() int
}

// HashingEmbedder maps word unigrams and bigrams into a fixed number of
// buckets with a signed hash. Equal texts always produce equal vectors.
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns an embedder with the given size, or
// DefaultDimensions when size is not positive.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// Dimensions returns the vector size.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

func terms(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(words)*2)
	for i, w := range words {
		out = append(out, w)
		if i > 0 {
			out = append(out, words[i-1]+" "+w)
		}
	}
	return out
}

// Embed returns the unit length vector for text. Text without words yields
// a zero vector.
func (e *HashingEmbedder) Embed(text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	for _, term := range terms(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(term))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimensions))
		if sum>>63 == 1 {
			vec[bucket]--
		} else {
			vec[bucket]++
		}
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}
}
