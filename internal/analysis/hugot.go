package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	khugot "github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotConfig points at local ONNX exports of the classification models.
// An empty path disables that pipeline.
type HugotConfig struct {
	SentimentModelPath string
	EntityModelPath    string
	OnnxFilename       string
}

// HugotRuntime owns one inference session shared by the sentiment and entity
// pipelines.
type HugotRuntime struct {
	mu        sync.Mutex
	session   *khugot.Session
	sentiment *pipelines.TextClassificationPipeline
	entities  *pipelines.TokenClassificationPipeline
	logger    *slog.Logger
}

// ErrModelNotConfigured is returned when the pipeline for an analysis was
// not loaded.
var ErrModelNotConfigured = errors.New("model not configured")

// NewHugotRuntime loads the configured pipelines on the pure Go backend.
func NewHugotRuntime(cfg HugotConfig, logger *slog.Logger) (*HugotRuntime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SentimentModelPath == "" && cfg.EntityModelPath == "" {
		return nil, fmt.Errorf("hugot: %w", ErrModelNotConfigured)
	}

	session, err := khugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("creating hugot session: %w", err)
	}
	rt := &HugotRuntime{session: session, logger: logger}

	if cfg.SentimentModelPath != "" {
		p, err := khugot.NewPipeline(session, khugot.TextClassificationConfig{
			ModelPath:    cfg.SentimentModelPath,
			OnnxFilename: cfg.OnnxFilename,
			Name:         "sentiment:" + cfg.SentimentModelPath,
		})
		if err != nil {
			_ = session.Destroy()
			return nil, fmt.Errorf("creating sentiment pipeline: %w", err)
		}
		rt.sentiment = p
		logger.Info("Loaded sentiment model", "path", cfg.SentimentModelPath)
	}

	if cfg.EntityModelPath != "" {
		p, err := khugot.NewPipeline(session, khugot.TokenClassificationConfig{
			ModelPath:    cfg.EntityModelPath,
			OnnxFilename: cfg.OnnxFilename,
			Name:         "ner:" + cfg.EntityModelPath,
		})
		if err != nil {
			_ = session.Destroy()
			return nil, fmt.Errorf("creating entity pipeline: %w", err)
		}
		// group adjacent sub-word tokens into whole entities
		p.AggregationStrategy = "SIMPLE"
		rt.entities = p
		logger.Info("Loaded entity model", "path", cfg.EntityModelPath)
	}

	return rt, nil
}

func round(v float32, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(float64(v)*scale) / scale
}

// ClassifySentiment labels the first ModelInputLimit characters of text.
func (h *HugotRuntime) ClassifySentiment(ctx context.Context, text string) (Sentiment, error) {
	if err := requireText(text, "Please enter some text to analyze."); err != nil {
		return Sentiment{}, err
	}
	if h.sentiment == nil {
		return Sentiment{}, fmt.Errorf("sentiment: %w", ErrModelNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return Sentiment{}, err
	}

	h.mu.Lock()
	out, err := h.sentiment.RunPipeline([]string{truncateRunes(text, ModelInputLimit)})
	h.mu.Unlock()
	if err != nil {
		return Sentiment{}, fmt.Errorf("running sentiment pipeline: %w", err)
	}
	if len(out.ClassificationOutputs) == 0 || len(out.ClassificationOutputs[0]) == 0 {
		return Sentiment{}, errors.New("no results from sentiment pipeline")
	}

	best := out.ClassificationOutputs[0][0]
	for _, c := range out.ClassificationOutputs[0][1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return Sentiment{Label: best.Label, Score: round(best.Score, 2)}, nil
}

// ExtractEntities finds named entities in the first ModelInputLimit
// characters of text.
func (h *HugotRuntime) ExtractEntities(ctx context.Context, text string) ([]Entity, error) {
	if err := requireText(text, "Please enter some text to analyze."); err != nil {
		return nil, err
	}
	if h.entities == nil {
		return nil, fmt.Errorf("entities: %w", ErrModelNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	out, err := h.entities.RunPipeline([]string{truncateRunes(text, ModelInputLimit)})
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("running entity pipeline: %w", err)
	}

	entities := []Entity{}
	if len(out.Entities) == 0 {
		return entities, nil
	}
	for _, e := range out.Entities[0] {
		entities = append(entities, Entity{
			Group: e.Entity,
			Word:  e.Word,
			Score: round(e.Score, 2),
			Start: int(e.Start),
			End:   int(e.End),
		})
	}
	h.logger.Debug("Extracted entities", "count", len(entities))
	return entities, nil
}

// Close destroys the session and every pipeline on it.
func (h *HugotRuntime) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil
	}
	err := h.session.Destroy()
	h.session = nil
	h.sentiment = nil
	h.entities = nil
	return err
}
