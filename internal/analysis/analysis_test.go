package analysis

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/telemetry"
)

const sampleText = `Machine learning systems learn patterns from data. Machine learning is used in
search, translation and fraud detection. Researchers at Stanford University publish new machine
learning methods every year! Does deep learning always need large datasets? Not always.`

func TestComputeStats(t *testing.T) {
	stats := ComputeStats("Hello world. How are you? Fine!!!")
	assert.Equal(t, 6, stats.Words)
	assert.Equal(t, 3, stats.Sentences)
	assert.Equal(t, 33, stats.Characters)
	assert.Equal(t, 0.03, stats.ReadingTimeMinutes)

	empty := ComputeStats("")
	assert.Equal(t, TextStats{}, empty)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "hé", truncateRunes("héllo", 2))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "", truncateRunes("abc", 0))
}

func TestCountSyllables(t *testing.T) {
	tests := map[string]int{
		"cat":         1,
		"the":         1,
		"make":        1,
		"table":       2,
		"readability": 5,
		"rhythm":      1,
	}
	for word, want := range tests {
		assert.Equal(t, want, countSyllables(word), word)
	}
}

func TestOrdinal(t *testing.T) {
	tests := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 103: "103rd"}
	for n, want := range tests {
		assert.Equal(t, want, ordinal(n))
	}
}

func TestScoreReadability(t *testing.T) {
	scorer := NewReadabilityScorer()
	ctx := context.Background()

	easy, err := scorer.ScoreReadability(ctx, "The cat sat on the mat. The dog ran to the cat.")
	require.NoError(t, err)
	assert.Greater(t, easy.FleschReadingEase, 90.0)
	assert.GreaterOrEqual(t, easy.GradeLevel, 1)
	assert.Regexp(t, regexp.MustCompile(`^\d+(st|nd|rd|th) and \d+(st|nd|rd|th) grade$`), easy.TextStandard)

	hard, err := scorer.ScoreReadability(ctx, "Institutional accountability necessitates comprehensive organizational transparency regarding international regulatory considerations.")
	require.NoError(t, err)
	assert.Less(t, hard.FleschReadingEase, easy.FleschReadingEase)
	assert.Greater(t, hard.GradeLevel, easy.GradeLevel)

	_, err = scorer.ScoreReadability(ctx, "   ")
	assert.True(t, errortypes.IsValidationError(err))
}

func TestExtractKeywords(t *testing.T) {
	extractor := NewKeywordExtractor(0, 0)
	keywords, err := extractor.ExtractKeywords(context.Background(), sampleText)
	require.NoError(t, err)
	require.NotEmpty(t, keywords)
	assert.LessOrEqual(t, len(keywords), DefaultKeywordCount)

	found := false
	for i, kw := range keywords {
		if i > 0 {
			assert.LessOrEqual(t, keywords[i-1].Score, kw.Score)
		}
		words := strings.Fields(strings.ToLower(kw.Phrase))
		assert.LessOrEqual(t, len(words), DefaultMaxNGram)
		assert.False(t, isStopword(words[0]), kw.Phrase)
		assert.False(t, isStopword(words[len(words)-1]), kw.Phrase)
		if strings.Contains(strings.ToLower(kw.Phrase), "learning") {
			found = true
		}
	}
	assert.True(t, found, "expected a learning phrase in %v", keywords)
}

func TestExtractKeywordsLimits(t *testing.T) {
	keywords, err := NewKeywordExtractor(2, 1).ExtractKeywords(context.Background(), sampleText)
	require.NoError(t, err)
	assert.Len(t, keywords, 2)
	for _, kw := range keywords {
		assert.Len(t, strings.Fields(kw.Phrase), 1)
	}

	none, err := NewKeywordExtractor(0, 0).ExtractKeywords(context.Background(), "the and of it")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = NewKeywordExtractor(0, 0).ExtractKeywords(context.Background(), "")
	assert.True(t, errortypes.IsValidationError(err))
}

func TestHugotRuntimeNotConfigured(t *testing.T) {
	_, err := NewHugotRuntime(HugotConfig{}, nil)
	assert.ErrorIs(t, err, ErrModelNotConfigured)

	rt := &HugotRuntime{}
	_, err = rt.ClassifySentiment(context.Background(), "fine")
	assert.ErrorIs(t, err, ErrModelNotConfigured)
	_, err = rt.ExtractEntities(context.Background(), "fine")
	assert.ErrorIs(t, err, ErrModelNotConfigured)
	_, err = rt.ClassifySentiment(context.Background(), "")
	assert.True(t, errortypes.IsValidationError(err))
	assert.NoError(t, rt.Close())
}

type fakeSentiment struct {
	got string
	err error
}

func (f *fakeSentiment) ClassifySentiment(_ context.Context, text string) (Sentiment, error) {
	f.got = text
	if f.err != nil {
		return Sentiment{}, f.err
	}
	return Sentiment{Label: "POSITIVE", Score: 0.98}, nil
}

type fakeEntities struct{}

func (fakeEntities) ExtractEntities(context.Context, string) ([]Entity, error) {
	return []Entity{{Group: "ORG", Word: "Stanford University", Score: 0.99}}, nil
}

func TestAnalyzerAll(t *testing.T) {
	metrics := telemetry.NewMetricsCollector()
	sentiment := &fakeSentiment{}
	a := NewAnalyzer(sentiment, fakeEntities{}, metrics, nil)

	report, err := a.Analyze(context.Background(), sampleText)
	require.NoError(t, err)

	require.NotNil(t, report.Stats)
	require.NotNil(t, report.Sentiment)
	require.NotNil(t, report.Readability)
	assert.Equal(t, "POSITIVE", report.Sentiment.Label)
	assert.Equal(t, "Stanford University", report.Entities[0].Word)
	assert.NotEmpty(t, report.Keywords)
	assert.Empty(t, report.Errors)
	assert.Equal(t, sampleText, sentiment.got)
	assert.Equal(t, int64(len(AllKinds)), metrics.GetCounter(telemetry.MetricAnalysisRuns))
}

func TestAnalyzerPartialFailure(t *testing.T) {
	metrics := telemetry.NewMetricsCollector()
	a := NewAnalyzer(&fakeSentiment{err: errors.New("model crashed")}, nil, metrics, nil)

	report, err := a.Analyze(context.Background(), sampleText, KindSentiment, KindEntities, KindStats)
	require.NoError(t, err)
	assert.Nil(t, report.Sentiment)
	assert.Nil(t, report.Readability)
	assert.NotNil(t, report.Stats)
	assert.Contains(t, report.Errors[KindSentiment], "model crashed")
	assert.Contains(t, report.Errors[KindEntities], ErrModelNotConfigured.Error())
	assert.Equal(t, int64(2), metrics.GetCounter(telemetry.MetricAnalysisFailures))
}

func TestAnalyzerErrors(t *testing.T) {
	a := NewAnalyzer(nil, nil, nil, nil)

	_, err := a.Analyze(context.Background(), " \n ")
	assert.True(t, errortypes.IsValidationError(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Analyze(ctx, sampleText, KindKeywords)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds([]string{"stats", "keywords"})
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindStats, KindKeywords}, kinds)

	_, err = ParseKinds([]string{"stats", "emotion"})
	assert.True(t, errortypes.IsValidationError(err))
}
