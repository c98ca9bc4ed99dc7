package index

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Entry is the indexed projection of a content document.
type Entry struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Path       string    `bun:"path,notnull,unique" json:"path"`
	Collection string    `bun:"collection,notnull" json:"collection"`
	Permalink  string    `bun:"permalink,notnull" json:"permalink"`
	Title      string    `bun:"title" json:"title"`
	Slug       string    `bun:"slug" json:"slug,omitempty"`
	Category   string    `bun:"category" json:"category,omitempty"`
	Date       time.Time `bun:"date,nullzero" json:"date,omitempty"`
	Published  bool      `bun:"published,notnull" json:"published"`
	Checksum   string    `bun:"checksum,notnull" json:"checksum"`
	// KeySet holds the sorted front matter keys joined by commas.
	KeySet    string    `bun:"keys" json:"keys"`
	IndexedAt time.Time `bun:"indexed_at,nullzero" json:"indexed_at"`
}

// Keys returns the front matter keys recorded for the entry.
func (e *Entry) Keys() []string {
	if e == nil || e.KeySet == "" {
		return nil
	}
	return strings.Split(e.KeySet, ",")
}

// EntryFromDocument projects doc into an index entry.
func EntryFromDocument(doc *interfaces.Document, indexedAt time.Time) *Entry {
	if doc == nil {
		return nil
	}
	return &Entry{
		ID:         doc.ID,
		Path:       doc.FilePath,
		Collection: doc.Collection,
		Permalink:  markdown.NormalizePermalink(doc.Permalink()),
		Title:      doc.FrontMatter.Title,
		Slug:       doc.FrontMatter.Slug,
		Category:   doc.FrontMatter.Category,
		Date:       doc.FrontMatter.Date,
		Published:  doc.Published(),
		Checksum:   hex.EncodeToString(doc.Checksum),
		KeySet:     strings.Join(doc.FrontMatter.Keys(), ","),
		IndexedAt:  indexedAt,
	}
}

// DuplicateGroup lists the entries that claim the same permalink.
type DuplicateGroup struct {
	Permalink string   `json:"permalink"`
	Entries   []*Entry `json:"entries"`
}

// Paths returns the file paths in the group.
func (g DuplicateGroup) Paths() []string {
	paths := make([]string, 0, len(g.Entries))
	for _, entry := range g.Entries {
		paths = append(paths, entry.Path)
	}
	return paths
}

// SyncResult summarises an index synchronisation.
type SyncResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Deleted   int `json:"deleted"`
}

// NotFoundError is returned when an entry cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func cloneEntry(entry *Entry) *Entry {
	if entry == nil {
		return nil
	}
	cloned := *entry
	return &cloned
}
