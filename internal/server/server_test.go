package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/localrivet/aisummarizer/internal/analysis"
	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/export"
	"github.com/localrivet/aisummarizer/internal/summarizer"
	"github.com/localrivet/aisummarizer/internal/tools"
)

var testError = errors.New("test error")

// MockBackend implements Backend for testing
type MockBackend struct {
	Result      *summarizer.Result
	Report      *analysis.Report
	HealthState summarizer.HealthStatus
	ReturnError error

	SummarizeCalls [][2]int
	AnalyzedKinds  []analysis.Kind
	Spoken         []string
	ExportedPaths  []string
	ExportedFormat export.Format
	ExportedDoc    *export.Document
}

func (m *MockBackend) SummarizeDetailed(ctx context.Context, text string, minLength, maxLength int) (*summarizer.Result, error) {
	m.SummarizeCalls = append(m.SummarizeCalls, [2]int{minLength, maxLength})
	if m.ReturnError != nil {
		return nil, m.ReturnError
	}
	return m.Result, nil
}

func (m *MockBackend) Analyze(ctx context.Context, text string, kinds ...analysis.Kind) (*analysis.Report, error) {
	m.AnalyzedKinds = append(m.AnalyzedKinds, kinds...)
	if m.ReturnError != nil {
		return nil, m.ReturnError
	}
	return m.Report, nil
}

func (m *MockBackend) Speak(ctx context.Context, text string) error {
	if m.ReturnError != nil {
		return m.ReturnError
	}
	m.Spoken = append(m.Spoken, text)
	return nil
}

func (m *MockBackend) Export(path string, format export.Format, doc *export.Document) error {
	if m.ReturnError != nil {
		return m.ReturnError
	}
	m.ExportedPaths = append(m.ExportedPaths, path)
	m.ExportedFormat = format
	m.ExportedDoc = doc
	return nil
}

func (m *MockBackend) Health(ctx context.Context) (*summarizer.HealthReport, error) {
	if m.ReturnError != nil {
		return nil, m.ReturnError
	}
	return &summarizer.HealthReport{
		Status:    m.HealthState,
		Timestamp: time.Now(),
		Providers: map[string]bool{"lexrank": true},
		Version:   "test",
	}, nil
}

func newTestServer(t *testing.T, backend Backend) *MCPToolServer {
	t.Helper()
	srv := NewToolServer(backend, Options{MinLength: 30, MaxLength: 130})
	if err := srv.Initialize(); err != nil {
		t.Fatalf("Failed to initialize server: %v", err)
	}
	return srv
}

func TestInitializeRequiresBackend(t *testing.T) {
	err := NewToolServer(nil, Options{}).Initialize()
	if !errors.Is(err, ErrMissingDependencies) {
		t.Errorf("Expected ErrMissingDependencies, got %v", err)
	}

	if err := NewToolServer(&MockBackend{}, Options{}).Start(); !errors.Is(err, ErrServerNotInitialized) {
		t.Errorf("Expected ErrServerNotInitialized, got %v", err)
	}
}

// TestSummarizeText tests the summarize_text tool handler
func TestSummarizeText(t *testing.T) {
	backend := &MockBackend{
		Result: &summarizer.Result{
			RequestID: "req-1",
			Summary:   "First part. Second part raw text",
			Chunks: []summarizer.ChunkReport{
				{Index: 0, WordCount: 1000, Bounds: summarizer.LengthBounds{Min: 30, Max: 130}, Outcome: summarizer.OutcomeSummarized},
				{Index: 1, WordCount: 200, Bounds: summarizer.LengthBounds{Min: 30, Max: 130}, Outcome: summarizer.OutcomeFallback, Error: "boom"},
			},
		},
	}
	srv := newTestServer(t, backend)

	response, err := srv.handleSummarizeText(nil, tools.SummarizeTextRequest{Text: "long text", MaxLength: intPtr(80)})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	if response.Status != tools.StatusSuccess {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}
	if response.Summary != "First part. Second part raw text" || response.RequestID != "req-1" {
		t.Errorf("Unexpected response: %+v", response)
	}
	if !response.Degraded {
		t.Error("Expected degraded response when a chunk fell back")
	}
	if response.Chunks != nil {
		t.Errorf("Expected no chunk details without detailed flag, got %v", response.Chunks)
	}
	if backend.SummarizeCalls[0] != [2]int{30, 80} {
		t.Errorf("Expected default min and requested max, got %v", backend.SummarizeCalls[0])
	}

	response, _ = srv.handleSummarizeText(nil, tools.SummarizeTextRequest{Text: "long text", Detailed: true})
	if len(response.Chunks) != 2 || response.Chunks[1].Outcome != "fallback" || response.Chunks[1].Error != "boom" {
		t.Errorf("Unexpected chunk details: %+v", response.Chunks)
	}
}

func intPtr(n int) *int { return &n }

// chunkedBackend runs summaries through a real ChunkedSummarizer.
type chunkedBackend struct {
	MockBackend
	chunked *summarizer.ChunkedSummarizer
}

func (b *chunkedBackend) SummarizeDetailed(ctx context.Context, text string, minLength, maxLength int) (*summarizer.Result, error) {
	b.SummarizeCalls = append(b.SummarizeCalls, [2]int{minLength, maxLength})
	return b.chunked.SummarizeDetailed(ctx, text, summarizer.LengthBounds{Min: minLength, Max: maxLength})
}

func TestSummarizeTextExplicitZeroBounds(t *testing.T) {
	backend := &chunkedBackend{chunked: summarizer.NewChunkedSummarizer(summarizer.NewBasicSummarizer())}
	srv := newTestServer(t, backend)
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 10)

	tests := []struct {
		name string
		req  tools.SummarizeTextRequest
		want [2]int
	}{
		{"zero min", tools.SummarizeTextRequest{Text: text, MinLength: intPtr(0)}, [2]int{0, 130}},
		{"zero max", tools.SummarizeTextRequest{Text: text, MaxLength: intPtr(0)}, [2]int{30, 0}},
		{"negative min", tools.SummarizeTextRequest{Text: text, MinLength: intPtr(-5), MaxLength: intPtr(40)}, [2]int{-5, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend.SummarizeCalls = nil
			response, err := srv.handleSummarizeText(nil, tt.req)
			if err != nil {
				t.Fatalf("Handler returned error: %v", err)
			}
			if response.Status != tools.StatusError || response.Code != StatusCodeValidationError {
				t.Errorf("Expected VALIDATION_ERROR, got %s/%s: %s", response.Status, response.Code, response.Error)
			}
			if len(backend.SummarizeCalls) != 1 || backend.SummarizeCalls[0] != tt.want {
				t.Errorf("Expected bounds %v to reach the summarizer, got %v", tt.want, backend.SummarizeCalls)
			}
		})
	}

	response, _ := srv.handleSummarizeText(nil, tools.SummarizeTextRequest{Text: text})
	if response.Status != tools.StatusSuccess {
		t.Errorf("Expected defaults to summarize, got %s: %s", response.Status, response.Error)
	}
}

// TestErrorHandling tests error handling in the tool handlers
func TestErrorHandling(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode string
		call     func(s *MCPToolServer) (status, code, message string)
	}{
		{
			name:     "summarize validation",
			err:      errortypes.ValidationError(summarizer.ErrDocumentTooShort, summarizer.MsgTooShort),
			wantCode: StatusCodeValidationError,
			call: func(s *MCPToolServer) (string, string, string) {
				r, _ := s.handleSummarizeText(nil, tools.SummarizeTextRequest{Text: "short"})
				return r.Status, r.Code, r.Error
			},
		},
		{
			name:     "analyze failure",
			err:      errortypes.ValidationError(analysis.ErrEmptyText, "Please enter some text to analyze."),
			wantCode: StatusCodeValidationError,
			call: func(s *MCPToolServer) (string, string, string) {
				r, _ := s.handleAnalyzeText(nil, tools.AnalyzeTextRequest{})
				return r.Status, r.Code, r.Error
			},
		},
		{
			name:     "speech failure",
			err:      errortypes.ExternalError(testError, "speech failed"),
			wantCode: StatusCodeExternalError,
			call: func(s *MCPToolServer) (string, string, string) {
				r, _ := s.handleSpeakSummary(nil, tools.SpeakSummaryRequest{Summary: "hello"})
				return r.Status, r.Code, r.Error
			},
		},
		{
			name:     "export failure",
			err:      errortypes.DatabaseError(testError, "failed to open archive"),
			wantCode: StatusCodeDatabaseError,
			call: func(s *MCPToolServer) (string, string, string) {
				r, _ := s.handleExportSummary(nil, tools.ExportSummaryRequest{Summary: "hi", Path: "out.db"})
				return r.Status, r.Code, r.Error
			},
		},
		{
			name:     "health failure",
			err:      testError,
			wantCode: StatusCodeUnknownError,
			call: func(s *MCPToolServer) (string, string, string) {
				r, _ := s.handleHealth(nil, tools.HealthRequest{})
				return r.Status, r.Code, r.Error
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &MockBackend{ReturnError: tc.err})

			status, code, message := tc.call(srv)
			if status != tools.StatusError {
				t.Errorf("Expected status 'error', got '%s'", status)
			}
			if code != tc.wantCode {
				t.Errorf("Expected code %s, got %s", tc.wantCode, code)
			}
			if message != tc.err.Error() {
				t.Errorf("Expected message %q, got %q", tc.err.Error(), message)
			}
		})
	}
}

func TestAnalyzeTextRejectsUnknownAnalysis(t *testing.T) {
	backend := &MockBackend{Report: &analysis.Report{}}
	srv := newTestServer(t, backend)

	response, err := srv.handleAnalyzeText(nil, tools.AnalyzeTextRequest{Text: "hello", Analyses: []string{"summary"}})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Code != StatusCodeValidationError {
		t.Errorf("Expected validation code, got %+v", response)
	}
	if len(backend.AnalyzedKinds) != 0 {
		t.Errorf("Backend should not run for invalid analyses, ran %v", backend.AnalyzedKinds)
	}
}

func TestSingleAnalysisTools(t *testing.T) {
	backend := &MockBackend{Report: &analysis.Report{
		Stats:       &analysis.TextStats{Words: 12, Sentences: 2},
		Readability: &analysis.Readability{FleschReadingEase: 80.5, TextStandard: "4th and 5th grade"},
		Keywords: []analysis.Keyword{
			{Phrase: "budget", Score: 0.01},
			{Phrase: "committee", Score: 0.02},
			{Phrase: "may", Score: 0.03},
		},
	}}
	srv := newTestServer(t, backend)

	kw, _ := srv.handleExtractKeywords(nil, tools.ExtractKeywordsRequest{Text: "text", Top: 2})
	if kw.Status != tools.StatusSuccess || len(kw.Keywords) != 2 || kw.Keywords[0].Phrase != "budget" {
		t.Errorf("Unexpected keywords response: %+v", kw)
	}

	rd, _ := srv.handleReadabilityScore(nil, tools.TextRequest{Text: "text"})
	if rd.Readability == nil || rd.Readability.TextStandard != "4th and 5th grade" {
		t.Errorf("Unexpected readability response: %+v", rd)
	}

	st, _ := srv.handleTextStats(nil, tools.TextRequest{Text: "text"})
	if st.Stats == nil || st.Stats.Words != 12 {
		t.Errorf("Unexpected stats response: %+v", st)
	}

	want := []analysis.Kind{analysis.KindKeywords, analysis.KindReadability, analysis.KindStats}
	if len(backend.AnalyzedKinds) != len(want) {
		t.Fatalf("Expected kinds %v, got %v", want, backend.AnalyzedKinds)
	}
	for i, k := range want {
		if backend.AnalyzedKinds[i] != k {
			t.Errorf("Expected kind %s at %d, got %s", k, i, backend.AnalyzedKinds[i])
		}
	}
}

func TestSingleAnalysisFailure(t *testing.T) {
	backend := &MockBackend{Report: &analysis.Report{
		Errors: map[analysis.Kind]string{analysis.KindKeywords: "extractor exploded"},
	}}
	srv := newTestServer(t, backend)

	response, _ := srv.handleExtractKeywords(nil, tools.ExtractKeywordsRequest{Text: "text"})
	if response.Status != tools.StatusError || response.Code != StatusCodeInferenceError {
		t.Errorf("Expected inference error, got %+v", response)
	}
	if !strings.Contains(response.Error, "extractor exploded") {
		t.Errorf("Expected analysis message in error, got %q", response.Error)
	}
	if response.Keywords == nil {
		t.Error("Expected an empty keyword list, not null")
	}
}

func TestExportSummary(t *testing.T) {
	backend := &MockBackend{}
	srv := newTestServer(t, backend)

	response, err := srv.handleExportSummary(nil, tools.ExportSummaryRequest{
		Summary: "The budget passed.",
		Path:    "out/summary.pdf",
		Title:   "Budget",
	})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	if response.Status != tools.StatusSuccess || response.Format != "pdf" {
		t.Errorf("Unexpected response: %+v", response)
	}
	if backend.ExportedFormat != export.FormatPDF || backend.ExportedDoc.Title != "Budget" {
		t.Errorf("Unexpected export call: %s %+v", backend.ExportedFormat, backend.ExportedDoc)
	}

	response, _ = srv.handleExportSummary(nil, tools.ExportSummaryRequest{Summary: "x", Path: "a.txt", Format: "docx"})
	if response.Code != StatusCodeValidationError {
		t.Errorf("Expected validation error for unknown format, got %+v", response)
	}

	response, _ = srv.handleExportSummary(nil, tools.ExportSummaryRequest{Summary: "x"})
	if response.Code != StatusCodeValidationError {
		t.Errorf("Expected validation error for missing path, got %+v", response)
	}
	if len(backend.ExportedPaths) != 1 {
		t.Errorf("Expected one export, got %v", backend.ExportedPaths)
	}
}

func TestSpeakAndHealth(t *testing.T) {
	backend := &MockBackend{HealthState: summarizer.StatusHealthy}
	srv := newTestServer(t, backend)

	speak, _ := srv.handleSpeakSummary(nil, tools.SpeakSummaryRequest{Summary: "Read me."})
	if speak.Status != tools.StatusSuccess || len(backend.Spoken) != 1 {
		t.Errorf("Unexpected speak response: %+v", speak)
	}

	health, _ := srv.handleHealth(nil, tools.HealthRequest{})
	if health.Health != "healthy" || !health.Providers["lexrank"] || health.Version != "test" {
		t.Errorf("Unexpected health response: %+v", health)
	}
}

func TestHTTPHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("aisummarizer_events_total 1\n"))
	})

	tests := []struct {
		name       string
		backend    *MockBackend
		path       string
		wantStatus int
	}{
		{"healthy", &MockBackend{HealthState: summarizer.StatusHealthy}, "/healthz", http.StatusOK},
		{"degraded still serves", &MockBackend{HealthState: summarizer.StatusDegraded}, "/healthz", http.StatusOK},
		{"unhealthy", &MockBackend{HealthState: summarizer.StatusUnhealthy}, "/healthz", http.StatusServiceUnavailable},
		{"health error", &MockBackend{ReturnError: errortypes.ConfigError(testError, "bad config")}, "/healthz", http.StatusInternalServerError},
		{"metrics", &MockBackend{}, "/metrics", http.StatusOK},
		{"unknown", &MockBackend{}, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewHTTPHandler(tt.backend, metrics).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}

	rec := httptest.NewRecorder()
	NewHTTPHandler(&MockBackend{HealthState: summarizer.StatusHealthy}, metrics).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var report summarizer.HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to decode health report: %v", err)
	}
	if report.Version != "test" {
		t.Errorf("Expected version test, got %s", report.Version)
	}
}

func TestServeHTTPStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeHTTP(ctx, "127.0.0.1:0", http.NotFoundHandler(), nil)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ServeHTTP did not stop after cancel")
	}
}
