// Package models defines the domain types for jot.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Note is a persisted title/body record.
type Note struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ImportHash *string   `json:"import_hash,omitempty"`
}

// Imported reports whether the note was created by a file import.
func (n *Note) Imported() bool {
	return n.ImportHash != nil
}

// SearchResult is the compact projection returned by search listings.
type SearchResult struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	BodyPreview string    `json:"body_preview"`
	CreatedAt   time.Time `json:"created_at"`
	WordCount   int       `json:"word_count"`
}

// DisplayText joins title and preview on one line, collapsing whitespace,
// and truncates to maxLen runes with a trailing "...".
func (r SearchResult) DisplayText(maxLen int) string {
	combined := r.Title
	if r.BodyPreview != "" {
		combined = r.Title + " - " + r.BodyPreview
	}
	clean := strings.Join(strings.Fields(combined), " ")

	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	keep := maxLen - 3
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + "..."
}

// DateString formats the creation date as MM/DD/YY.
func (r SearchResult) DateString() string {
	return r.CreatedAt.Format("01/02/06")
}

// WordsString formats the word count compactly, e.g. "42w" or "12k".
func (r SearchResult) WordsString() string {
	if r.WordCount >= 10000 {
		return fmt.Sprintf("%dk", r.WordCount/1000)
	}
	return fmt.Sprintf("%dw", r.WordCount)
}

// ImportResult summarises a batch import.
type ImportResult struct {
	Imported int     `json:"imported"`
	Skipped  int     `json:"skipped"`
	IDs      []int64 `json:"ids"`
}

// ExportResult summarises an export run.
type ExportResult struct {
	Count int    `json:"count"`
	Dir   string `json:"dir"`
}

// Message renders the result the way the GUI shell displays it.
func (r ExportResult) Message() string {
	return fmt.Sprintf("Exported %d notes to %s", r.Count, r.Dir)
}

// FileEntry is an import candidate found by a directory scan.
type FileEntry struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}
