package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ramenjuniti/lexrankmmr"

	"github.com/localrivet/aisummarizer/internal/resilience/retry"
)

// lexrankDelimiter is the only sentence separator lexrankmmr understands.
const lexrankDelimiter = "。"

// ErrTooFewSentences is returned for text LexRank cannot rank.
var ErrTooFewSentences = errors.New("lexrank needs at least two sentences")

var sentenceBreaks = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	". ", ".\n",
	"! ", "!\n",
	"? ", "?\n",
)

// LexRankProvider is an offline extractive backend. It ranks sentences
// with LexRank and MMR and keeps the best ones that fit the word budget.
type LexRankProvider struct {
	maxCharacters int
}

// NewLexRankProvider creates an extractive provider. It needs no API key.
func NewLexRankProvider() *LexRankProvider {
	return &LexRankProvider{maxCharacters: 100000}
}

// Name returns the provider name
func (p *LexRankProvider) Name() string {
	return ProviderLexRank
}

// Summarize selects the top-ranked sentences of text. Failures caused by
// the shape of text are returned as permanent since the same input always
// fails the same way.
func (p *LexRankProvider) Summarize(ctx context.Context, text string, minWords, maxWords int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return "", retry.Permanent(ErrTooFewSentences)
	}

	words := len(strings.Fields(text))
	avg := max(words/len(sentences), 1)
	lines := min(max(maxWords/avg, 1), len(sentences))

	data, err := lexrankmmr.New(
		lexrankmmr.MaxLines(lines),
		lexrankmmr.MaxCharacters(p.maxCharacters),
	)
	if err != nil {
		return "", fmt.Errorf("failed to initialize lexrankmmr: %w", err)
	}

	if err := data.Summarize(strings.Join(sentences, lexrankDelimiter) + lexrankDelimiter); err != nil {
		return "", fmt.Errorf("lexrank summarization failed: %w", err)
	}

	picked := make([]string, 0, len(data.LineLimitedSummary))
	for _, s := range data.LineLimitedSummary {
		if sentence := strings.TrimSpace(s.Sentence); sentence != "" {
			picked = append(picked, sentence)
		}
	}

	summary := LimitWords(strings.Join(picked, " "), maxWords)
	if summary == "" {
		return "", retry.Permanent(ErrEmptyResponse)
	}
	return summary, nil
}

// splitSentences breaks text at sentence terminators and drops blank lines.
// The CJK full stop is removed from the body so it cannot split sentences
// a second time.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, lexrankDelimiter, ". ")
	var sentences []string
	for _, line := range strings.Split(sentenceBreaks.Replace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sentences = append(sentences, line)
		}
	}
	return sentences
}
