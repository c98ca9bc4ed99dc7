package index

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository exposes persistence operations for index entries.
type Repository interface {
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	Update(ctx context.Context, entry *Entry) (*Entry, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByPath(ctx context.Context, path string) (*Entry, error)
	List(ctx context.Context) ([]*Entry, error)
	ListByCollection(ctx context.Context, collection string) ([]*Entry, error)
	ListByPermalink(ctx context.Context, permalink string) ([]*Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// NewEntryRepository creates a go-repository-bun repository for entries.
func NewEntryRepository(db *bun.DB) repository.Repository[*Entry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entry]{
		NewRecord: func() *Entry { return &Entry{} },
		GetID: func(entry *Entry) uuid.UUID {
			return entry.ID
		},
		SetID: func(entry *Entry, id uuid.UUID) {
			entry.ID = id
		},
		GetIdentifier: func() string {
			return "path"
		},
		GetIdentifierValue: func(entry *Entry) string {
			return entry.Path
		},
	})
}
