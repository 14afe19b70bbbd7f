package chunker

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		maxChunkWords int
		want          []Chunk
	}{
		{
			name: "empty text",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: " \t\n  ",
			want: nil,
		},
		{
			name:          "single short chunk",
			text:          "alpha  beta\ngamma",
			maxChunkWords: 5,
			want: []Chunk{
				{Index: 0, Text: "alpha beta gamma", WordCount: 3},
			},
		},
		{
			name:          "exact multiple",
			text:          "a b c d",
			maxChunkWords: 2,
			want: []Chunk{
				{Index: 0, Text: "a b", WordCount: 2},
				{Index: 1, Text: "c d", WordCount: 2},
			},
		},
		{
			name:          "remainder chunk",
			text:          "a b c d e",
			maxChunkWords: 2,
			want: []Chunk{
				{Index: 0, Text: "a b", WordCount: 2},
				{Index: 1, Text: "c d", WordCount: 2},
				{Index: 2, Text: "e", WordCount: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slices.Collect(Split(tt.text, tt.maxChunkWords))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Split() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitCoverage(t *testing.T) {
	for _, n := range []int{1, 30, 999, 1000, 1001, 2500} {
		t.Run(fmt.Sprintf("%d words", n), func(t *testing.T) {
			text := makeWords(n)

			var parts []string
			total := 0
			for c := range Split(text, 0) {
				if c.WordCount < 1 || c.WordCount > DefaultMaxChunkWords {
					t.Fatalf("chunk %d has %d words", c.Index, c.WordCount)
				}
				if got := CountWords(c.Text); got != c.WordCount {
					t.Errorf("chunk %d: WordCount=%d but text has %d words", c.Index, c.WordCount, got)
				}
				parts = append(parts, c.Text)
				total += c.WordCount
			}

			if total != n {
				t.Errorf("expected %d words across chunks, got %d", n, total)
			}
			if joined := strings.Join(parts, " "); joined != text {
				t.Errorf("rejoined chunks do not reproduce the document")
			}
		})
	}
}

func TestSplitChunkSizes(t *testing.T) {
	chunks := slices.Collect(Split(makeWords(2500), DefaultMaxChunkWords))
	want := []int{1000, 1000, 500}

	got := make([]int, len(chunks))
	for i, c := range chunks {
		got[i] = c.WordCount
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chunk sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitIsRestartable(t *testing.T) {
	seq := Split(makeWords(25), 10)

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second iteration differs (-first +second):\n%s", diff)
	}
}

func TestSplitStopsEarly(t *testing.T) {
	seen := 0
	for range Split(makeWords(50), 10) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("expected to stop after 2 chunks, saw %d", seen)
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"  two   words ", 2},
		{"tab\tand\nnewline", 3},
	}
	for _, tt := range tests {
		if got := CountWords(tt.text); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
