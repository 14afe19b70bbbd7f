package server

import (
	"context"

	"github.com/localrivet/aisummarizer/internal/analysis"
	"github.com/localrivet/aisummarizer/internal/export"
	"github.com/localrivet/aisummarizer/internal/summarizer"
)

// ToolServer defines the interface for the MCP server that handles
// summarization tool calls from MCP clients.
type ToolServer interface {
	// Initialize registers the tools.
	Initialize() error

	// Start serves MCP over stdio until stdin closes.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}

// Backend is the work the tools delegate to.
type Backend interface {
	SummarizeDetailed(ctx context.Context, text string, minLength, maxLength int) (*summarizer.Result, error)
	Analyze(ctx context.Context, text string, kinds ...analysis.Kind) (*analysis.Report, error)
	Speak(ctx context.Context, text string) error
	Export(path string, format export.Format, doc *export.Document) error
	Health(ctx context.Context) (*summarizer.HealthReport, error)
}
