// Package document loads the text to summarize from files and web pages.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"code.sajari.com/docconv"
	"github.com/go-shiori/go-readability"

	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/resilience/circuitbreaker"
)

const (
	// DefaultMaxBytes bounds how much of a file or response is read.
	DefaultMaxBytes = 20 << 20

	DefaultFetchTimeout = 30 * time.Second
)

// ErrNoText is returned when a source yields no readable text.
var ErrNoText = errors.New("no readable text")

// Document is loaded text with where it came from.
type Document struct {
	Source string `json:"source"`
	Title  string `json:"title,omitempty"`
	Format string `json:"format"`
	Text   string `json:"text"`
}

// Loader reads local files and fetches URLs.
type Loader struct {
	client   *http.Client
	breaker  *circuitbreaker.CircuitBreaker
	maxBytes int64
	logger   *slog.Logger
}

// NewLoader returns a loader using client for URLs, or a client with
// DefaultFetchTimeout when nil.
func NewLoader(client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client: client,
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "document-fetch",
			MaxRequests:      5,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		}),
		maxBytes: DefaultMaxBytes,
		logger:   logger,
	}
}

// IsURL reports whether source is an http or https URL.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load reads source, an http(s) URL or a file path. Plain text and markdown
// are read as is, HTML goes through readability and other formats through
// docconv.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errortypes.ValidationError(errors.New("empty source"), "a file path or URL is required")
	}

	var (
		doc *Document
		err error
	)
	if IsURL(source) {
		doc, err = l.fetch(ctx, source)
	} else {
		doc, err = l.readFile(ctx, source)
	}
	if err != nil {
		return nil, err
	}

	doc.Text = strings.TrimSpace(strings.ToValidUTF8(doc.Text, ""))
	if doc.Text == "" {
		return nil, errortypes.ValidationError(ErrNoText, fmt.Sprintf("no readable text in %s", source))
	}
	l.logger.Debug("Loaded document", "source", source, "format", doc.Format, "chars", len(doc.Text))
	return doc, nil
}

func (l *Loader) readFile(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errortypes.ValidationError(err, fmt.Sprintf("file not found: %s", path))
		}
		return nil, errortypes.InternalError(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	data, err := l.readLimited(f)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	doc := &Document{Source: path, Format: strings.TrimPrefix(ext, ".")}
	switch ext {
	case ".txt", ".md", ".markdown", "":
		doc.Format = "text"
		doc.Text = string(data)
	case ".html", ".htm":
		return l.fromHTML(doc, data, nil)
	default:
		mime := docconv.MimeTypeByExtension(path)
		res, err := docconv.Convert(bytes.NewReader(data), mime, true)
		if err != nil {
			return nil, errortypes.ExternalError(err, fmt.Sprintf("failed to extract text from %s", path))
		}
		doc.Text = res.Body
		doc.Title = res.Meta["title"]
	}
	return doc, nil
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, errortypes.InternalError(err, "failed to read document")
	}
	if int64(len(data)) > l.maxBytes {
		return nil, errortypes.ValidationError(
			fmt.Errorf("document exceeds %d bytes", l.maxBytes), "document too large")
	}
	return data, nil
}

func (l *Loader) fromHTML(doc *Document, data []byte, pageURL *url.URL) (*Document, error) {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return nil, errortypes.ExternalError(err, fmt.Sprintf("failed to extract article from %s", doc.Source))
	}
	doc.Format = "html"
	doc.Title = article.Title
	doc.Text = article.TextContent
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*Document, error) {
	var doc *Document
	_, err := l.breaker.Call(func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return "", errortypes.ValidationError(err, "invalid URL")
		}
		req.Header.Set("User-Agent", "aisummarizer/1.0")

		resp, err := l.client.Do(req)
		if err != nil {
			return "", errortypes.NetworkError(err, fmt.Sprintf("failed to fetch %s", rawURL))
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return "", errortypes.NetworkError(fmt.Errorf("HTTP %d", resp.StatusCode), fmt.Sprintf("failed to fetch %s", rawURL))
		}

		data, err := l.readLimited(resp.Body)
		if err != nil {
			return "", err
		}

		pageURL, _ := url.Parse(rawURL)
		if resp.Request != nil && resp.Request.URL != nil {
			pageURL = resp.Request.URL
		}
		doc = &Document{Source: rawURL}
		if ct := resp.Header.Get("Content-Type"); ct != "" && strings.HasPrefix(ct, "text/plain") {
			doc.Format = "text"
			doc.Text = string(data)
			return "", nil
		}
		doc, err = l.fromHTML(doc, data, pageURL)
		return "", err
	})
	if circuitbreaker.IsOpenError(err) {
		return nil, errortypes.NetworkError(err, "too many failed fetches, try again later")
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}
