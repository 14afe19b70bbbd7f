package analysis

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/telemetry"
)

// Kind names one analysis.
type Kind string

const (
	KindStats       Kind = "stats"
	KindSentiment   Kind = "sentiment"
	KindEntities    Kind = "entities"
	KindKeywords    Kind = "keywords"
	KindReadability Kind = "readability"
)

// AllKinds lists every analysis in display order.
var AllKinds = []Kind{KindStats, KindSentiment, KindEntities, KindKeywords, KindReadability}

// Report is the combined outcome of a run. Failed analyses are left empty
// and their error message is kept in Errors.
type Report struct {
	Stats       *TextStats      `json:"stats,omitempty" yaml:"stats,omitempty"`
	Sentiment   *Sentiment      `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	Entities    []Entity        `json:"entities,omitempty" yaml:"entities,omitempty"`
	Keywords    []Keyword       `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Readability *Readability    `json:"readability,omitempty" yaml:"readability,omitempty"`
	Errors      map[Kind]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Analyzer fans a text out to the configured capabilities. A nil capability
// reports an error for its kind instead of running.
type Analyzer struct {
	Sentiment   SentimentClassifier
	Entities    EntityExtractor
	Keywords    KeywordExtractor
	Readability ReadabilityScorer

	metrics *telemetry.MetricsCollector
	logger  *slog.Logger
}

// NewAnalyzer wires the capabilities. Keywords and readability default to
// the built-in statistical implementations.
func NewAnalyzer(sentiment SentimentClassifier, entities EntityExtractor, metrics *telemetry.MetricsCollector, logger *slog.Logger) *Analyzer {
	if metrics == nil {
		metrics = telemetry.NewMetricsCollector()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		Sentiment:   sentiment,
		Entities:    entities,
		Keywords:    NewKeywordExtractor(DefaultKeywordCount, DefaultMaxNGram),
		Readability: NewReadabilityScorer(),
		metrics:     metrics,
		logger:      logger,
	}
}

// Analyze runs the requested kinds concurrently, or all of them when kinds
// is empty. It fails only for blank input or a canceled context.
func (a *Analyzer) Analyze(ctx context.Context, text string, kinds ...Kind) (*Report, error) {
	if err := requireText(text, "Please enter some text to analyze."); err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		kinds = AllKinds
	}

	report := &Report{}
	var mu sync.Mutex
	fail := func(kind Kind, err error) {
		mu.Lock()
		defer mu.Unlock()
		if report.Errors == nil {
			report.Errors = make(map[Kind]string)
		}
		report.Errors[kind] = err.Error()
		a.metrics.IncrementCounter(telemetry.MetricAnalysisFailures, 1)
		a.logger.Warn("Analysis failed", "kind", kind, "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range kinds {
		g.Go(func() error {
			start := time.Now()
			defer func() {
				a.metrics.RecordTimer("analysis."+string(kind), time.Since(start))
			}()
			a.metrics.IncrementCounter(telemetry.MetricAnalysisRuns, 1)

			switch kind {
			case KindStats:
				stats := ComputeStats(text)
				mu.Lock()
				report.Stats = &stats
				mu.Unlock()
			case KindSentiment:
				if a.Sentiment == nil {
					fail(kind, ErrModelNotConfigured)
					return gctx.Err()
				}
				s, err := a.Sentiment.ClassifySentiment(gctx, text)
				if err != nil {
					fail(kind, err)
					return gctx.Err()
				}
				mu.Lock()
				report.Sentiment = &s
				mu.Unlock()
			case KindEntities:
				if a.Entities == nil {
					fail(kind, ErrModelNotConfigured)
					return gctx.Err()
				}
				e, err := a.Entities.ExtractEntities(gctx, text)
				if err != nil {
					fail(kind, err)
					return gctx.Err()
				}
				mu.Lock()
				report.Entities = e
				mu.Unlock()
			case KindKeywords:
				if a.Keywords == nil {
					fail(kind, ErrModelNotConfigured)
					return gctx.Err()
				}
				k, err := a.Keywords.ExtractKeywords(gctx, text)
				if err != nil {
					fail(kind, err)
					return gctx.Err()
				}
				mu.Lock()
				report.Keywords = k
				mu.Unlock()
			case KindReadability:
				if a.Readability == nil {
					fail(kind, ErrModelNotConfigured)
					return gctx.Err()
				}
				r, err := a.Readability.ScoreReadability(gctx, text)
				if err != nil {
					fail(kind, err)
					return gctx.Err()
				}
				mu.Lock()
				report.Readability = &r
				mu.Unlock()
			default:
				fail(kind, errUnknownKind(kind))
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// ParseKinds converts names into kinds, rejecting unknown ones.
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, n := range names {
		k := Kind(n)
		known := false
		for _, candidate := range AllKinds {
			if k == candidate {
				known = true
				break
			}
		}
		if !known {
			return nil, errortypes.ValidationError(errUnknownKind(k), "invalid analysis")
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

type errUnknownKind Kind

func (e errUnknownKind) Error() string {
	return "unknown analysis: " + string(e)
}
