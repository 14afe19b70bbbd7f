// Package server exposes the summarizer as MCP tools over stdio and as a
// small HTTP surface for health and metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/localrivet/gomcp/server"

	"github.com/localrivet/aisummarizer/internal/analysis"
	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/export"
	"github.com/localrivet/aisummarizer/internal/tools"
)

// Common server error types
var (
	ErrServerNotInitialized = errors.New("server not initialized")
	ErrMissingDependencies  = errors.New("one or more required dependencies are nil")
)

// DefaultToolTimeout bounds a single tool call.
const DefaultToolTimeout = 5 * time.Minute

// MCPToolServer implements ToolServer on top of a Backend.
type MCPToolServer struct {
	backend   Backend
	name      string
	timeout   time.Duration
	minLength int
	maxLength int
	mcpServer server.Server
	logger    *slog.Logger
}

// Options configures an MCPToolServer.
type Options struct {
	Name    string
	Timeout time.Duration

	// MinLength and MaxLength fill in summarize_text bounds the client leaves out.
	MinLength int
	MaxLength int

	Logger *slog.Logger
}

// NewToolServer creates a new MCPToolServer instance.
func NewToolServer(backend Backend, opts Options) *MCPToolServer {
	if opts.Name == "" {
		opts.Name = "aisummarizer"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultToolTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &MCPToolServer{
		backend:   backend,
		name:      opts.Name,
		timeout:   opts.Timeout,
		minLength: opts.MinLength,
		maxLength: opts.MaxLength,
		logger:    opts.Logger.With("component", "mcp"),
	}
}

// Initialize registers the tools with a new MCP server.
func (s *MCPToolServer) Initialize() error {
	s.logger.Info("Initializing MCP tool server")

	if s.backend == nil {
		return errortypes.ConfigError(ErrMissingDependencies, "server initialization failed")
	}

	srv := server.NewServer(s.name)

	srv = srv.Tool(tools.ToolSummarizeText, "Summarize text of any length, chunk by chunk, within word bounds",
		s.handleSummarizeText)

	srv = srv.Tool(tools.ToolAnalyzeText, "Run sentiment, entity, keyword, readability and statistics analyses on text",
		s.handleAnalyzeText)

	srv = srv.Tool(tools.ToolExtractKeywords, "Extract ranked keywords from text",
		s.handleExtractKeywords)

	srv = srv.Tool(tools.ToolReadabilityScore, "Score how easy text is to read",
		s.handleReadabilityScore)

	srv = srv.Tool(tools.ToolTextStats, "Count words, sentences and characters and estimate reading time",
		s.handleTextStats)

	srv = srv.Tool(tools.ToolExportSummary, "Save a summary as txt, md, pdf, json, yaml or into a SQLite archive",
		s.handleExportSummary)

	srv = srv.Tool(tools.ToolSpeakSummary, "Read a summary aloud on the host",
		s.handleSpeakSummary)

	srv = srv.Tool(tools.ToolHealth, "Report the health of the summarization engine",
		s.handleHealth)

	s.mcpServer = srv
	s.logger.Info("MCP tool server initialized", "tool_count", 8)
	return nil
}

// Start starts the MCP server on the stdio transport.
func (s *MCPToolServer) Start() error {
	if s.mcpServer == nil {
		return errortypes.ConfigError(ErrServerNotInitialized, "cannot start server")
	}

	s.logger.Info("Starting MCP tool server")
	return s.mcpServer.AsStdio().Run()
}

// Stop gracefully shuts down the MCP server.
func (s *MCPToolServer) Stop() error {
	s.logger.Info("Stopping MCP tool server")
	// The server exits when stdin is closed
	return nil
}

func (s *MCPToolServer) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// fail logs err and returns its client code and message.
func (s *MCPToolServer) fail(err error) (code, message string) {
	errortypes.LogError(s.logger, err)
	resp := errorToResponse(err)
	return resp.Code, resp.Message
}

func (s *MCPToolServer) handleSummarizeText(_ *server.Context, req tools.SummarizeTextRequest) (tools.SummarizeTextResponse, error) {
	minLength, maxLength := s.minLength, s.maxLength
	if req.MinLength != nil {
		minLength = *req.MinLength
	}
	if req.MaxLength != nil {
		maxLength = *req.MaxLength
	}
	s.logger.Info("Processing summarize_text request", "text_length", len(req.Text),
		"min_length", minLength, "max_length", maxLength)

	response := tools.SummarizeTextResponse{Status: tools.StatusSuccess}

	ctx, cancel := s.requestContext()
	defer cancel()

	res, err := s.backend.SummarizeDetailed(ctx, req.Text, minLength, maxLength)
	if err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	response.Summary = res.Summary
	response.RequestID = res.RequestID
	response.Degraded = res.Degraded()
	if req.Detailed {
		for _, c := range res.Chunks {
			response.Chunks = append(response.Chunks, tools.ChunkDetail{
				Index:     c.Index,
				WordCount: c.WordCount,
				MinLength: c.Bounds.Min,
				MaxLength: c.Bounds.Max,
				Outcome:   string(c.Outcome),
				Error:     c.Error,
			})
		}
	}

	s.logger.Info("Summarized text", "request_id", res.RequestID, "chunks", len(res.Chunks), "degraded", response.Degraded)
	return response, nil
}

func (s *MCPToolServer) handleAnalyzeText(_ *server.Context, req tools.AnalyzeTextRequest) (tools.AnalyzeTextResponse, error) {
	s.logger.Info("Processing analyze_text request", "text_length", len(req.Text), "analyses", req.Analyses)

	response := tools.AnalyzeTextResponse{Status: tools.StatusSuccess}

	kinds, err := analysis.ParseKinds(req.Analyses)
	if err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	report, err := s.backend.Analyze(ctx, req.Text, kinds...)
	if err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	response.Report = report
	return response, nil
}

// analyzeOne runs a single analysis and surfaces its per-kind failure.
func (s *MCPToolServer) analyzeOne(text string, kind analysis.Kind) (*analysis.Report, error) {
	ctx, cancel := s.requestContext()
	defer cancel()

	report, err := s.backend.Analyze(ctx, text, kind)
	if err != nil {
		return nil, err
	}
	if msg, failed := report.Errors[kind]; failed {
		return nil, errortypes.InferenceError(errors.New(msg), "analysis failed").WithField("analysis", string(kind))
	}
	return report, nil
}

func (s *MCPToolServer) handleExtractKeywords(_ *server.Context, req tools.ExtractKeywordsRequest) (tools.ExtractKeywordsResponse, error) {
	s.logger.Info("Processing extract_keywords request", "text_length", len(req.Text), "top", req.Top)

	response := tools.ExtractKeywordsResponse{Status: tools.StatusSuccess, Keywords: []analysis.Keyword{}}

	report, err := s.analyzeOne(req.Text, analysis.KindKeywords)
	if err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	keywords := report.Keywords
	if req.Top > 0 && len(keywords) > req.Top {
		keywords = keywords[:req.Top]
	}
	if keywords != nil {
		response.Keywords = keywords
	}
	return response, nil
}

func (s *MCPToolServer) handleReadabilityScore(_ *server.Context, req tools.TextRequest) (tools.ReadabilityScoreResponse, error) {
	s.logger.Info("Processing readability_score request", "text_length", len(req.Text))

	response := tools.ReadabilityScoreResponse{Status: tools.StatusSuccess}

	report, err := s.analyzeOne(req.Text, analysis.KindReadability)
	if err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	response.Readability = report.Readability
	return response, nil
}

func (s *MCPToolServer) handleTextStats(_ *server.Context, req tools.TextRequest) (tools.TextStatsResponse, error) {
	s.logger.Info("Processing text_stats request", "text_length", len(req.Text))

	response := tools.TextStatsResponse{Status: tools.StatusSuccess}

	report, err := s.analyzeOne(req.Text, analysis.KindStats)
	if err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	response.Stats = report.Stats
	return response, nil
}

func (s *MCPToolServer) handleExportSummary(_ *server.Context, req tools.ExportSummaryRequest) (tools.ExportSummaryResponse, error) {
	s.logger.Info("Processing export_summary request", "path", req.Path, "format", req.Format)

	response := tools.ExportSummaryResponse{Status: tools.StatusSuccess}

	if req.Path == "" {
		err := errortypes.ValidationError(errors.New("path cannot be empty for export_summary"), "invalid export_summary request")
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	format := export.FormatFromPath(req.Path)
	if req.Format != "" {
		f, err := export.ParseFormat(req.Format)
		if err != nil {
			response.Status = tools.StatusError
			response.Code, response.Error = s.fail(err)
			return response, nil
		}
		format = f
	}

	doc := export.NewDocument(req.Summary)
	doc.Title = req.Title
	doc.Source = req.Source

	if err := s.backend.Export(req.Path, format, doc); err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	response.Path = req.Path
	response.Format = string(format)
	s.logger.Info("Exported summary", "path", req.Path, "format", format)
	return response, nil
}

func (s *MCPToolServer) handleSpeakSummary(_ *server.Context, req tools.SpeakSummaryRequest) (tools.SpeakSummaryResponse, error) {
	s.logger.Info("Processing speak_summary request", "summary_length", len(req.Summary))

	response := tools.SpeakSummaryResponse{Status: tools.StatusSuccess}

	ctx, cancel := s.requestContext()
	defer cancel()

	if err := s.backend.Speak(ctx, req.Summary); err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
	}
	return response, nil
}

func (s *MCPToolServer) handleHealth(_ *server.Context, _ tools.HealthRequest) (tools.HealthResponse, error) {
	s.logger.Debug("Processing summarizer_health request")

	response := tools.HealthResponse{Status: tools.StatusSuccess}

	ctx, cancel := s.requestContext()
	defer cancel()

	report, err := s.backend.Health(ctx)
	if err != nil {
		response.Status = tools.StatusError
		response.Code, response.Error = s.fail(err)
		return response, nil
	}

	response.Health = string(report.Status)
	response.Providers = report.Providers
	response.Circuits = report.Circuits
	response.Version = report.Version
	return response, nil
}
