// Package export saves summaries and analysis reports to files or the
// clipboard.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/go-pdf/fpdf"
	"gopkg.in/yaml.v3"

	"github.com/localrivet/aisummarizer/internal/analysis"
	"github.com/localrivet/aisummarizer/internal/archive"
	"github.com/localrivet/aisummarizer/internal/errortypes"
)

// Format is an output file format.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatSQLite   Format = "sqlite"
)

// ErrNoSummary is returned when there is nothing to save.
var ErrNoSummary = errors.New("no summary")

const msgNoSummary = "No summary to save."

// Document is what gets exported.
type Document struct {
	Title      string           `json:"title,omitempty" yaml:"title,omitempty"`
	Source     string           `json:"source,omitempty" yaml:"source,omitempty"`
	Summary    string           `json:"summary" yaml:"summary"`
	MinLength  int              `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength  int              `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Chunks     int              `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	Degraded   bool             `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Analysis   *analysis.Report `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	ExportedAt string           `json:"exported_at" yaml:"exported_at"`
	Tool       string           `json:"tool" yaml:"tool"`
}

// NewDocument stamps a summary with the export time.
func NewDocument(summary string) *Document {
	return &Document{
		Summary:    summary,
		ExportedAt: time.Now().Format(time.RFC3339),
		Tool:       "aisummarizer",
	}
}

func (d *Document) validate() error {
	if d == nil || strings.TrimSpace(d.Summary) == "" {
		return errortypes.ValidationError(ErrNoSummary, msgNoSummary)
	}
	return nil
}

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(name, "."))); f {
	case FormatText, FormatMarkdown, FormatPDF, FormatJSON, FormatYAML, FormatSQLite:
		return f, nil
	case "text":
		return FormatText, nil
	case "markdown":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	case "db", "sqlite3":
		return FormatSQLite, nil
	}
	return "", errortypes.ValidationError(fmt.Errorf("unsupported format %q", name), "invalid export format")
}

// FormatFromPath picks the format from the file extension, defaulting to
// plain text.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return FormatText
}

// WriteFile saves doc to path. An empty format is derived from the path.
func WriteFile(path string, format Format, doc *Document) error {
	if err := doc.validate(); err != nil {
		return err
	}
	if format == "" {
		format = FormatFromPath(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errortypes.InternalError(err, "failed to create directory")
	}

	switch format {
	case FormatPDF:
		return writePDF(path, doc)
	case FormatSQLite:
		_, err := writeArchive(path, doc)
		return err
	}

	file, err := os.Create(path) // #nosec G304
	if err != nil {
		return errortypes.InternalError(err, "failed to create file")
	}
	defer func() { _ = file.Close() }()

	return Write(file, format, doc)
}

// Write encodes doc to w. PDF is only supported through WriteFile.
func Write(w io.Writer, format Format, doc *Document) error {
	if err := doc.validate(); err != nil {
		return err
	}

	var err error
	switch format {
	case FormatText, "":
		_, err = io.WriteString(w, doc.Summary)
	case FormatMarkdown:
		err = writeMarkdown(w, doc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	default:
		return errortypes.ValidationError(fmt.Errorf("format %q cannot be streamed", format), "invalid export format")
	}
	if err != nil {
		return errortypes.InternalError(err, "failed to write export")
	}
	return nil
}

func writeMarkdown(w io.Writer, doc *Document) error {
	title := doc.Title
	if title == "" {
		title = "Summary"
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)
	if doc.Source != "" {
		_, _ = fmt.Fprintf(w, "_Source: %s_\n\n", doc.Source)
	}
	_, _ = fmt.Fprintf(w, "%s\n", doc.Summary)

	r := doc.Analysis
	if r == nil {
		return nil
	}
	_, _ = fmt.Fprintln(w, "\n## Analysis")
	if r.Stats != nil {
		_, _ = fmt.Fprintf(w, "\n- Words: %d\n- Sentences: %d\n- Characters: %d\n- Reading time: %.2f min\n",
			r.Stats.Words, r.Stats.Sentences, r.Stats.Characters, r.Stats.ReadingTimeMinutes)
	}
	if r.Sentiment != nil {
		_, _ = fmt.Fprintf(w, "\n**Sentiment:** %s (%.2f)\n", r.Sentiment.Label, r.Sentiment.Score)
	}
	if len(r.Entities) > 0 {
		_, _ = fmt.Fprintln(w, "\n### Entities")
		for _, e := range r.Entities {
			_, _ = fmt.Fprintf(w, "- %s: %s (%.2f)\n", e.Group, e.Word, e.Score)
		}
	}
	if len(r.Keywords) > 0 {
		_, _ = fmt.Fprintln(w, "\n### Keywords")
		for _, k := range r.Keywords {
			_, _ = fmt.Fprintf(w, "- %s (%.3f)\n", k.Phrase, k.Score)
		}
	}
	if r.Readability != nil {
		_, err := fmt.Fprintf(w, "\n**Readability:** Flesch %.2f, %s\n", r.Readability.FleschReadingEase, r.Readability.TextStandard)
		return err
	}
	return nil
}

// writePDF lays the summary out one line per paragraph on A4 pages.
func writePDF(path string, doc *Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.MultiCell(0, 10, tr(doc.Title), "", "", false)
		pdf.SetFont("Arial", "", 12)
	}
	for _, line := range strings.Split(doc.Summary, "\n") {
		pdf.MultiCell(0, 10, tr(line), "", "", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errortypes.InternalError(err, "failed to write pdf")
	}
	return nil
}

// writeArchive appends doc as one row of the SQLite archive at path.
func writeArchive(path string, doc *Document) (archive.Entry, error) {
	store := archive.NewSQLiteStore(nil)
	if err := store.Initialize(path); err != nil {
		return archive.Entry{}, err
	}
	defer func() { _ = store.Close() }()

	return store.Save(archive.Entry{
		Source:    doc.Source,
		Summary:   doc.Summary,
		MinLength: doc.MinLength,
		MaxLength: doc.MaxLength,
		Chunks:    doc.Chunks,
		Degraded:  doc.Degraded,
	})
}

// CopyToClipboard places the summary on the system clipboard.
func CopyToClipboard(summary string) error {
	if strings.TrimSpace(summary) == "" {
		return errortypes.ValidationError(ErrNoSummary, "No summary to copy.")
	}
	if clipboard.Unsupported {
		return errortypes.ExternalError(errors.New("clipboard unsupported"), "no clipboard utility available")
	}
	if err := clipboard.WriteAll(summary); err != nil {
		return errortypes.ExternalError(err, "failed to copy to clipboard")
	}
	return nil
}
