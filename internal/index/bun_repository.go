package index

import (
	"context"
	"fmt"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRepository implements Repository with optional caching.
type BunRepository struct {
	repo repository.Repository[*Entry]
}

var _ Repository = (*BunRepository)(nil)

// NewBunRepository creates an entry repository without caching.
func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache creates an entry repository with caching support.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewEntryRepository(db)
	if cacheService != nil && serializer != nil {
		base = repositorycache.New(base, cacheService, serializer)
	}
	return &BunRepository{repo: base}
}

func (r *BunRepository) Create(ctx context.Context, entry *Entry) (*Entry, error) {
	return r.repo.Create(ctx, entry)
}

func (r *BunRepository) Update(ctx context.Context, entry *Entry) (*Entry, error) {
	updated, err := r.repo.Update(ctx, entry,
		repository.UpdateByID(entry.ID.String()),
		repository.UpdateColumns(
			"path",
			"collection",
			"permalink",
			"title",
			"slug",
			"category",
			"date",
			"published",
			"checksum",
			"keys",
			"indexed_at",
		),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "entry", entry.Path)
	}
	return updated, nil
}

func (r *BunRepository) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "entry", id.String())
	}
	return record, nil
}

func (r *BunRepository) GetByPath(ctx context.Context, path string) (*Entry, error) {
	record, err := r.repo.GetByIdentifier(ctx, path)
	if err != nil {
		return nil, mapRepositoryError(err, "entry", path)
	}
	return record, nil
}

func (r *BunRepository) List(ctx context.Context) ([]*Entry, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias.path ASC")
	}))
	return records, err
}

func (r *BunRepository) ListByCollection(ctx context.Context, collection string) ([]*Entry, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.collection = ?", collection).
			OrderExpr("?TableAlias.date DESC").
			OrderExpr("?TableAlias.path ASC")
	}))
	return records, err
}

func (r *BunRepository) ListByPermalink(ctx context.Context, permalink string) ([]*Entry, error) {
	records, _, err := r.repo.List(ctx, repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.permalink = ?", permalink).OrderExpr("?TableAlias.path ASC")
	}))
	return records, err
}

func (r *BunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.repo.Delete(ctx, &Entry{ID: id})
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if errors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
