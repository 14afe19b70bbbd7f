package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Readability holds the classic readability formulas and a consensus grade.
type Readability struct {
	FleschReadingEase    float64 `json:"flesch_reading_ease" yaml:"flesch_reading_ease"`
	FleschKincaidGrade   float64 `json:"flesch_kincaid_grade" yaml:"flesch_kincaid_grade"`
	GunningFog           float64 `json:"gunning_fog" yaml:"gunning_fog"`
	ColemanLiau          float64 `json:"coleman_liau" yaml:"coleman_liau"`
	AutomatedReadability float64 `json:"automated_readability" yaml:"automated_readability"`
	GradeLevel           int     `json:"grade_level" yaml:"grade_level"`
	TextStandard         string  `json:"text_standard" yaml:"text_standard"`
}

// FormulaScorer computes readability from word, sentence and syllable counts.
type FormulaScorer struct{}

// NewReadabilityScorer returns the formula based scorer.
func NewReadabilityScorer() *FormulaScorer {
	return &FormulaScorer{}
}

type textCounts struct {
	words     int
	sentences int
	syllables int
	letters   int
	complex   int
}

func countText(text string) textCounts {
	var c textCounts
	for _, raw := range strings.Fields(text) {
		word := strings.TrimFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if word == "" {
			continue
		}
		c.words++
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				c.letters++
			}
		}
		syl := countSyllables(word)
		c.syllables += syl
		if syl >= 3 {
			c.complex++
		}
	}
	c.sentences = len(sentenceTerminators.FindAllStringIndex(strings.TrimSpace(text), -1))
	if c.sentences == 0 && c.words > 0 {
		c.sentences = 1
	}
	return c
}

// countSyllables approximates English syllables by counting vowel groups.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count == 0 {
		count = 1
	}
	return count
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ScoreReadability scores text. Blank input is a validation error.
func (s *FormulaScorer) ScoreReadability(ctx context.Context, text string) (Readability, error) {
	if err := requireText(text, "Please enter some text to analyze."); err != nil {
		return Readability{}, err
	}
	if err := ctx.Err(); err != nil {
		return Readability{}, err
	}

	c := countText(text)
	if c.words == 0 {
		return Readability{}, requireText("", "Please enter some text to analyze.")
	}

	w := float64(c.words)
	wordsPerSentence := w / float64(c.sentences)
	syllablesPerWord := float64(c.syllables) / w

	r := Readability{
		FleschReadingEase:    round2(206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord),
		FleschKincaidGrade:   round2(0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59),
		GunningFog:           round2(0.4 * (wordsPerSentence + 100*float64(c.complex)/w)),
		ColemanLiau:          round2(0.0588*(float64(c.letters)/w*100) - 0.296*(float64(c.sentences)/w*100) - 15.8),
		AutomatedReadability: round2(4.71*(float64(c.letters)/w) + 0.5*wordsPerSentence - 21.43),
	}
	r.GradeLevel = consensusGrade(r)
	r.TextStandard = fmt.Sprintf("%s and %s grade", ordinal(r.GradeLevel-1), ordinal(r.GradeLevel))
	return r, nil
}

// fleschEaseGrades maps a reading ease score onto school grades.
func fleschEaseGrades(score float64) []int {
	switch {
	case score >= 90:
		return []int{5}
	case score >= 80:
		return []int{6}
	case score >= 70:
		return []int{7}
	case score >= 60:
		return []int{8, 9}
	case score >= 50:
		return []int{10}
	case score >= 40:
		return []int{11}
	default:
		return []int{12}
	}
}

// consensusGrade is the most common grade across the formulas. Each formula
// votes for its rounded and its ceiling grade; a tie keeps the grade that
// reached the count first.
func consensusGrade(r Readability) int {
	var votes []int
	for _, g := range []float64{r.FleschKincaidGrade, r.GunningFog, r.ColemanLiau, r.AutomatedReadability} {
		votes = append(votes, int(math.Round(g)), int(math.Ceil(g)))
	}
	votes = append(votes, fleschEaseGrades(r.FleschReadingEase)...)

	counts := make(map[int]int, len(votes))
	best, bestCount := 0, 0
	for _, v := range votes {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	if best < 1 {
		best = 1
	}
	return best
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
