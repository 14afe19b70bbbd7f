// Package tools defines the request and response schemas of the MCP tools
// the summarizer exposes.
package tools

import (
	"github.com/localrivet/aisummarizer/internal/analysis"
)

const (
	// ToolSummarizeText is the name of the summarize_text MCP tool
	ToolSummarizeText = "summarize_text"

	// ToolAnalyzeText is the name of the analyze_text MCP tool
	ToolAnalyzeText = "analyze_text"

	// ToolExtractKeywords is the name of the extract_keywords MCP tool
	ToolExtractKeywords = "extract_keywords"

	// ToolReadabilityScore is the name of the readability_score MCP tool
	ToolReadabilityScore = "readability_score"

	// ToolTextStats is the name of the text_stats MCP tool
	ToolTextStats = "text_stats"

	// ToolExportSummary is the name of the export_summary MCP tool
	ToolExportSummary = "export_summary"

	// ToolSpeakSummary is the name of the speak_summary MCP tool
	ToolSpeakSummary = "speak_summary"

	// ToolHealth is the name of the summarizer_health MCP tool
	ToolHealth = "summarizer_health"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SummarizeTextRequest defines the input schema for summarize_text tool
type SummarizeTextRequest struct {
	// Text is the document to summarize, at least 30 words
	Text string `json:"text"`

	// MinLength and MaxLength bound each chunk summary in words. Left out,
	// they use the configured defaults. Explicit values are validated as
	// given, so 0 is rejected.
	MinLength *int `json:"min_length,omitempty"`
	MaxLength *int `json:"max_length,omitempty"`

	// Detailed adds a per-chunk report to the response
	Detailed bool `json:"detailed,omitempty"`
}

// ChunkDetail reports how one chunk was handled.
type ChunkDetail struct {
	Index     int    `json:"index"`
	WordCount int    `json:"word_count"`
	MinLength int    `json:"min_length"`
	MaxLength int    `json:"max_length"`
	Outcome   string `json:"outcome"`
	Error     string `json:"error,omitempty"`
}

// SummarizeTextResponse defines the output schema for summarize_text tool
type SummarizeTextResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	Summary   string `json:"summary,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Degraded is true when at least one chunk fell back to its source text
	Degraded bool          `json:"degraded,omitempty"`
	Chunks   []ChunkDetail `json:"chunks,omitempty"`

	// Code classifies the failure when Status is "error"
	Code string `json:"code,omitempty"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// AnalyzeTextRequest defines the input schema for analyze_text tool
type AnalyzeTextRequest struct {
	Text string `json:"text"`

	// Analyses names the analyses to run. Empty runs all of them.
	Analyses []string `json:"analyses,omitempty"`
}

// AnalyzeTextResponse defines the output schema for analyze_text tool
type AnalyzeTextResponse struct {
	Status string           `json:"status"`
	Report *analysis.Report `json:"report,omitempty"`
	Code   string           `json:"code,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// ExtractKeywordsRequest defines the input schema for extract_keywords tool
type ExtractKeywordsRequest struct {
	Text string `json:"text"`

	// Top caps the number of keywords returned
	Top int `json:"top,omitempty"`
}

// ExtractKeywordsResponse defines the output schema for extract_keywords tool
type ExtractKeywordsResponse struct {
	Status   string             `json:"status"`
	Keywords []analysis.Keyword `json:"keywords"`
	Code     string             `json:"code,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// TextRequest is the input schema for tools that only take text.
type TextRequest struct {
	Text string `json:"text"`
}

// ReadabilityScoreResponse defines the output schema for readability_score tool
type ReadabilityScoreResponse struct {
	Status      string                `json:"status"`
	Readability *analysis.Readability `json:"readability,omitempty"`
	Code        string                `json:"code,omitempty"`
	Error       string                `json:"error,omitempty"`
}

// TextStatsResponse defines the output schema for text_stats tool
type TextStatsResponse struct {
	Status string              `json:"status"`
	Stats  *analysis.TextStats `json:"stats,omitempty"`
	Code   string              `json:"code,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// ExportSummaryRequest defines the input schema for export_summary tool
type ExportSummaryRequest struct {
	Summary string `json:"summary"`

	// Path is the file to write
	Path string `json:"path"`

	// Format is txt, md, pdf, json, yaml or sqlite. Empty derives it from Path.
	Format string `json:"format,omitempty"`

	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
}

// ExportSummaryResponse defines the output schema for export_summary tool
type ExportSummaryResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Format string `json:"format,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// SpeakSummaryRequest defines the input schema for speak_summary tool
type SpeakSummaryRequest struct {
	Summary string `json:"summary"`
}

// SpeakSummaryResponse defines the output schema for speak_summary tool
type SpeakSummaryResponse struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HealthRequest takes no arguments.
type HealthRequest struct{}

// HealthResponse defines the output schema for summarizer_health tool
type HealthResponse struct {
	Status string `json:"status"`

	// Health is the engine status: healthy, degraded or unhealthy
	Health string `json:"health,omitempty"`

	Providers map[string]bool   `json:"providers,omitempty"`
	Circuits  map[string]string `json:"circuits,omitempty"`
	Version   string            `json:"version,omitempty"`
	Code      string            `json:"code,omitempty"`
	Error     string            `json:"error,omitempty"`
}
