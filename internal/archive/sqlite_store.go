package archive

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"crawshaw.io/sqlite"

	"github.com/localrivet/aisummarizer/internal/errortypes"
	"github.com/localrivet/aisummarizer/internal/util"
	"github.com/localrivet/aisummarizer/internal/vector"
)

// DefaultListLimit caps List and Search when no limit is given.
const DefaultListLimit = 20

const entryColumns = `id, source, summary, min_length, max_length, chunks, degraded, created_at`

// SQLiteStore is a Store backed by a single SQLite connection.
type SQLiteStore struct {
	mu       sync.Mutex
	conn     *sqlite.Conn
	dbPath   string
	embedder vector.Embedder
}

// NewSQLiteStore returns a store that embeds summaries with embedder, or a
// hashing embedder when nil.
func NewSQLiteStore(embedder vector.Embedder) *SQLiteStore {
	if embedder == nil {
		embedder = vector.NewHashingEmbedder(vector.DefaultDimensions)
	}
	return &SQLiteStore{embedder: embedder}
}

// Initialize opens the database file, creating it and the table if needed.
func (s *SQLiteStore) Initialize(dbPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := sqlite.OpenConn(dbPath, sqlite.SQLITE_OPEN_CREATE|sqlite.SQLITE_OPEN_READWRITE)
	if err != nil {
		return errortypes.DatabaseError(err, "failed to open archive")
	}
	s.conn = conn
	s.dbPath = dbPath

	if err := s.createTable(); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return errortypes.DatabaseError(err, "failed to create archive table")
	}
	return nil
}

func (s *SQLiteStore) createTable() error {
	stmt, err := s.conn.Prepare(`
	CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL,
		min_length INTEGER NOT NULL,
		max_length INTEGER NOT NULL,
		chunks INTEGER NOT NULL,
		degraded INTEGER NOT NULL,
		embedding BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("failed to prepare create table statement: %w", err)
	}
	defer func() { _ = stmt.Reset() }()

	if _, err := stmt.Step(); err != nil {
		return fmt.Errorf("failed to execute create table statement: %w", err)
	}
	return nil
}

// Close releases the connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *SQLiteStore) ready() error {
	if s.conn == nil {
		return errortypes.DatabaseError(fmt.Errorf("archive not initialized"), "archive unavailable")
	}
	return nil
}

// Save inserts or replaces entry.
func (s *SQLiteStore) Save(entry Entry) (Entry, error) {
	if strings.TrimSpace(entry.Summary) == "" {
		return Entry{}, errortypes.ValidationError(fmt.Errorf("empty summary"), "No summary to save.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Entry{}, err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.ID == "" {
		entry.ID = util.GenerateHash(entry.Summary, entry.CreatedAt.UnixNano())
	}
	embedding, err := s.embedder.Embed(entry.Summary)
	if err != nil {
		return Entry{}, errortypes.InternalError(err, "failed to embed summary")
	}

	stmt, err := s.conn.Prepare(`
	INSERT OR REPLACE INTO summaries (` + entryColumns + `, embedding)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return Entry{}, errortypes.DatabaseError(err, "failed to prepare insert statement")
	}
	defer func() { _ = stmt.Reset() }()

	degraded := int64(0)
	if entry.Degraded {
		degraded = 1
	}
	stmt.BindText(1, entry.ID)
	stmt.BindText(2, entry.Source)
	stmt.BindText(3, entry.Summary)
	stmt.BindInt64(4, int64(entry.MinLength))
	stmt.BindInt64(5, int64(entry.MaxLength))
	stmt.BindInt64(6, int64(entry.Chunks))
	stmt.BindInt64(7, degraded)
	stmt.BindInt64(8, entry.CreatedAt.UnixNano())
	stmt.BindBytes(9, vector.Encode(embedding))

	if _, err := stmt.Step(); err != nil {
		return Entry{}, errortypes.DatabaseError(err, "failed to insert summary")
	}
	return entry, nil
}

func scanEntry(stmt *sqlite.Stmt) Entry {
	return Entry{
		ID:        stmt.ColumnText(0),
		Source:    stmt.ColumnText(1),
		Summary:   stmt.ColumnText(2),
		MinLength: int(stmt.ColumnInt64(3)),
		MaxLength: int(stmt.ColumnInt64(4)),
		Chunks:    int(stmt.ColumnInt64(5)),
		Degraded:  stmt.ColumnInt64(6) != 0,
		CreatedAt: time.Unix(0, stmt.ColumnInt64(7)),
	}
}

// Get looks an entry up by id.
func (s *SQLiteStore) Get(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Entry{}, err
	}

	stmt, err := s.conn.Prepare(`SELECT ` + entryColumns + ` FROM summaries WHERE id = ?;`)
	if err != nil {
		return Entry{}, errortypes.DatabaseError(err, "failed to prepare select statement")
	}
	defer func() { _ = stmt.Reset() }()
	stmt.BindText(1, id)

	hasRow, err := stmt.Step()
	if err != nil {
		return Entry{}, errortypes.DatabaseError(err, "failed to read summary")
	}
	if !hasRow {
		return Entry{}, errortypes.ValidationError(ErrNotFound, fmt.Sprintf("no summary with id %q", id))
	}
	return scanEntry(stmt), nil
}

// List returns up to limit entries, newest first.
func (s *SQLiteStore) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	stmt, err := s.conn.Prepare(`SELECT ` + entryColumns + ` FROM summaries ORDER BY created_at DESC LIMIT ?;`)
	if err != nil {
		return nil, errortypes.DatabaseError(err, "failed to prepare list statement")
	}
	defer func() { _ = stmt.Reset() }()
	stmt.BindInt64(1, int64(limit))

	entries := []Entry{}
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, errortypes.DatabaseError(err, "failed to list summaries")
		}
		if !hasRow {
			break
		}
		entries = append(entries, scanEntry(stmt))
	}
	return entries, nil
}

// Search ranks every archived summary by cosine similarity to query.
// Entries whose vectors have no magnitude are skipped.
func (s *SQLiteStore) Search(query string, limit int) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errortypes.ValidationError(fmt.Errorf("empty query"), "search query is required")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	queryVec, err := s.embedder.Embed(query)
	if err != nil {
		return nil, errortypes.InternalError(err, "failed to embed query")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	stmt, err := s.conn.Prepare(`SELECT ` + entryColumns + `, embedding FROM summaries;`)
	if err != nil {
		return nil, errortypes.DatabaseError(err, "failed to prepare search statement")
	}
	defer func() { _ = stmt.Reset() }()

	matches := []Match{}
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, errortypes.DatabaseError(err, "failed to search summaries")
		}
		if !hasRow {
			break
		}
		entry := scanEntry(stmt)

		blob := make([]byte, stmt.ColumnLen(8))
		stmt.ColumnBytes(8, blob)
		stored, err := vector.Decode(blob)
		if err != nil {
			return nil, errortypes.DatabaseError(err, fmt.Sprintf("corrupt embedding for %s", entry.ID))
		}
		similarity, err := vector.CosineSimilarity(queryVec, stored)
		if err != nil {
			continue
		}
		matches = append(matches, Match{Entry: entry, Similarity: similarity})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Delete removes an entry. Deleting a missing id is not an error.
func (s *SQLiteStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}

	stmt, err := s.conn.Prepare(`DELETE FROM summaries WHERE id = ?;`)
	if err != nil {
		return errortypes.DatabaseError(err, "failed to prepare delete statement")
	}
	defer func() { _ = stmt.Reset() }()
	stmt.BindText(1, id)

	if _, err := stmt.Step(); err != nil {
		return errortypes.DatabaseError(err, "failed to delete summary")
	}
	return nil
}

// Path returns the database file in use.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}
