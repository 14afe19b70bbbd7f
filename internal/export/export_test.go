package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/localrivet/aisummarizer/internal/analysis"
	"github.com/localrivet/aisummarizer/internal/archive"
	"github.com/localrivet/aisummarizer/internal/errortypes"
)

func sampleDocument() *Document {
	doc := NewDocument("The committee approved the budget.\nWork starts in May.")
	doc.Title = "Budget meeting"
	doc.Source = "minutes.txt"
	doc.Analysis = &analysis.Report{
		Stats:     &analysis.TextStats{Words: 10, Sentences: 2, Characters: 52, ReadingTimeMinutes: 0.05},
		Sentiment: &analysis.Sentiment{Label: "POSITIVE", Score: 0.91},
		Keywords:  []analysis.Keyword{{Phrase: "budget", Score: 0.042}},
	}
	return doc
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"txt": FormatText, ".TXT": FormatText, "text": FormatText,
		"md": FormatMarkdown, "markdown": FormatMarkdown,
		"pdf": FormatPDF, "json": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML,
		"sqlite": FormatSQLite, ".db": FormatSQLite,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("docx")
	assert.True(t, errortypes.IsValidationError(err))

	assert.Equal(t, FormatPDF, FormatFromPath("out/summary.pdf"))
	assert.Equal(t, FormatText, FormatFromPath("summary"))
}

func TestWriteFileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summary.txt")
	require.NoError(t, WriteFile(path, "", NewDocument("Grüße aus Köln.")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Grüße aus Köln.", string(data))
}

func TestWriteFileStructured(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDocument()

	jsonPath := filepath.Join(dir, "summary.json")
	require.NoError(t, WriteFile(jsonPath, "", doc))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON Document
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, doc.Summary, fromJSON.Summary)
	assert.Equal(t, "POSITIVE", fromJSON.Analysis.Sentiment.Label)

	yamlPath := filepath.Join(dir, "summary.yaml")
	require.NoError(t, WriteFile(yamlPath, FormatYAML, doc))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML Document
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, doc.Title, fromYAML.Title)
	assert.Equal(t, 10, fromYAML.Analysis.Stats.Words)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatMarkdown, sampleDocument()))

	out := buf.String()
	assert.Contains(t, out, "# Budget meeting")
	assert.Contains(t, out, "_Source: minutes.txt_")
	assert.Contains(t, out, "**Sentiment:** POSITIVE (0.91)")
	assert.Contains(t, out, "- budget (0.042)")
}

func TestWriteFilePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.pdf")
	require.NoError(t, WriteFile(path, "", sampleDocument()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestWriteFileArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summaries.db")
	doc := sampleDocument()
	doc.Chunks = 3
	doc.Degraded = true
	require.NoError(t, WriteFile(path, "", doc))
	require.NoError(t, WriteFile(path, FormatSQLite, NewDocument("A second export.")))

	store := archive.NewSQLiteStore(nil)
	require.NoError(t, store.Initialize(path))
	defer func() { _ = store.Close() }()

	entries, err := store.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var first archive.Entry
	for _, e := range entries {
		if e.Source == "minutes.txt" {
			first = e
		}
	}
	assert.Equal(t, doc.Summary, first.Summary)
	assert.Equal(t, 3, first.Chunks)
	assert.True(t, first.Degraded)
}

func TestWriteEmptySummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.txt")
	err := WriteFile(path, FormatText, NewDocument("  \n"))
	require.Error(t, err)
	assert.True(t, errortypes.IsValidationError(err))
	assert.Contains(t, err.Error(), "No summary to save.")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	assert.True(t, errortypes.IsValidationError(Write(&bytes.Buffer{}, FormatJSON, nil)))
	assert.True(t, errortypes.IsValidationError(CopyToClipboard("")))
}

func TestWritePDFRequiresFile(t *testing.T) {
	err := Write(&bytes.Buffer{}, FormatPDF, sampleDocument())
	assert.True(t, errortypes.IsValidationError(err))
}
