package analysis

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

var sentenceTerminators = regexp.MustCompile(`[.!?]+`)

// TextStats are the live counters shown next to the input.
type TextStats struct {
	Words              int     `json:"words" yaml:"words"`
	Sentences          int     `json:"sentences" yaml:"sentences"`
	Characters         int     `json:"characters" yaml:"characters"`
	ReadingTimeMinutes float64 `json:"reading_time_minutes" yaml:"reading_time_minutes"`
}

// ComputeStats counts words, terminator runs and characters, and estimates
// reading time in minutes rounded to two decimals.
func ComputeStats(text string) TextStats {
	words := len(strings.Fields(text))
	return TextStats{
		Words:              words,
		Sentences:          len(sentenceTerminators.FindAllStringIndex(text, -1)),
		Characters:         utf8.RuneCountInString(text),
		ReadingTimeMinutes: math.Round(float64(words)/WordsPerMinute*100) / 100,
	}
}
