// Package archive keeps exported summaries in a local SQLite file and finds
// earlier summaries similar to a query.
package archive

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("summary not found")

// Entry is one archived summary.
type Entry struct {
	ID        string    `json:"id" yaml:"id"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Summary   string    `json:"summary" yaml:"summary"`
	MinLength int       `json:"min_length" yaml:"min_length"`
	MaxLength int       `json:"max_length" yaml:"max_length"`
	Chunks    int       `json:"chunks" yaml:"chunks"`
	Degraded  bool      `json:"degraded" yaml:"degraded"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Match is an entry with its similarity to a search query.
type Match struct {
	Entry
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// Store persists summaries.
type Store interface {
	// Initialize opens or creates the archive at dbPath.
	Initialize(dbPath string) error

	// Close releases the database.
	Close() error

	// Save stores entry, assigning ID and CreatedAt when empty.
	Save(entry Entry) (Entry, error)

	// Get returns the entry with id or ErrNotFound.
	Get(id string) (Entry, error)

	// List returns the newest entries first.
	List(limit int) ([]Entry, error)

	// Search returns the entries most similar to query.
	Search(query string, limit int) ([]Match, error)

	// Delete removes the entry with id.
	Delete(id string) error
}
