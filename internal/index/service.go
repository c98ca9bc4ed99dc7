package index

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-homepage/internal/logging"
	"github.com/goliatone/go-homepage/internal/markdown"
	"github.com/goliatone/go-homepage/pkg/interfaces"
)

// ErrRepositoryRequired is returned when the service has no backing store.
var ErrRepositoryRequired = errors.New("index: repository is required")

// Service keeps the index in step with the corpus and answers queries about it.
type Service struct {
	repo   Repository
	logger interfaces.Logger
	now    func() time.Time
}

// ServiceOption customises the index service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the clock used for indexed_at stamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs an index service over repo.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	svc := &Service{
		repo:   repo,
		logger: logging.NoOp(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// SyncOption narrows the deletion pass of Sync to the part of the corpus
// that was actually loaded.
type SyncOption func(*syncScope)

type syncScope struct {
	dir        string
	keepDrafts bool
}

// WithinDirectory limits deletions to entries under dir, relative to the
// site root. Entries elsewhere are left as they are.
func WithinDirectory(dir string) SyncOption {
	return func(scope *syncScope) {
		clean := strings.Trim(path.Clean("/"+strings.ReplaceAll(strings.TrimSpace(dir), "\\", "/")), "/")
		scope.dir = clean
	}
}

// KeepDrafts leaves entries under _drafts untouched, for loads that skipped them.
func KeepDrafts() SyncOption {
	return func(scope *syncScope) {
		scope.keepDrafts = true
	}
}

func (scope syncScope) covers(entryPath string) bool {
	if scope.dir != "" && entryPath != scope.dir && !strings.HasPrefix(entryPath, scope.dir+"/") {
		return false
	}
	if scope.keepDrafts && markdown.IsDraftPath(entryPath) {
		return false
	}
	return true
}

// Sync upserts entries whose checksum changed and deletes entries whose file
// is no longer part of docs. Options restrict which entries may be deleted.
func (s *Service) Sync(ctx context.Context, docs []*interfaces.Document, opts ...SyncOption) (SyncResult, error) {
	var result SyncResult
	if s == nil || s.repo == nil {
		return result, ErrRepositoryRequired
	}
	var scope syncScope
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}

	existing, err := s.repo.List(ctx)
	if err != nil {
		return result, fmt.Errorf("index: list entries: %w", err)
	}
	byPath := make(map[string]*Entry, len(existing))
	for _, entry := range existing {
		byPath[entry.Path] = entry
	}

	now := s.now().UTC()
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		entry := EntryFromDocument(doc, now)
		if entry == nil {
			continue
		}
		seen[entry.Path] = struct{}{}

		current, ok := byPath[entry.Path]
		switch {
		case !ok:
			if _, err := s.repo.Create(ctx, entry); err != nil {
				return result, fmt.Errorf("index: create %s: %w", entry.Path, err)
			}
			result.Created++
		case sameEntry(current, entry):
			result.Unchanged++
		default:
			entry.ID = current.ID
			if _, err := s.repo.Update(ctx, entry); err != nil {
				return result, fmt.Errorf("index: update %s: %w", entry.Path, err)
			}
			result.Updated++
		}
	}

	for _, entry := range existing {
		if _, ok := seen[entry.Path]; ok || !scope.covers(entry.Path) {
			continue
		}
		if err := s.repo.Delete(ctx, entry.ID); err != nil {
			return result, fmt.Errorf("index: delete %s: %w", entry.Path, err)
		}
		result.Deleted++
	}

	s.logger.Info("index.sync.complete",
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"deleted", result.Deleted,
	)
	return result, nil
}

// Duplicates groups entries sharing a permalink, ordered by permalink.
func (s *Service) Duplicates(ctx context.Context) ([]DuplicateGroup, error) {
	if s == nil || s.repo == nil {
		return nil, ErrRepositoryRequired
	}
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	grouped := map[string][]*Entry{}
	for _, entry := range entries {
		key := markdown.RouteKey(entry.Permalink)
		grouped[key] = append(grouped[key], entry)
	}
	var groups []DuplicateGroup
	for permalink, members := range grouped {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Path < members[j].Path })
		groups = append(groups, DuplicateGroup{Permalink: permalink, Entries: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Permalink < groups[j].Permalink })
	return groups, nil
}

// Collection lists a collection's entries, newest first.
func (s *Service) Collection(ctx context.Context, name string) ([]*Entry, error) {
	if s == nil || s.repo == nil {
		return nil, ErrRepositoryRequired
	}
	return s.repo.ListByCollection(ctx, name)
}

// Lookup lists every entry claiming permalink.
func (s *Service) Lookup(ctx context.Context, permalink string) ([]*Entry, error) {
	if s == nil || s.repo == nil {
		return nil, ErrRepositoryRequired
	}
	return s.repo.ListByPermalink(ctx, markdown.NormalizePermalink(permalink))
}

// sameEntry ignores indexed_at so unchanged files keep their stamp.
func sameEntry(a, b *Entry) bool {
	return a.Checksum == b.Checksum &&
		a.Permalink == b.Permalink &&
		a.Collection == b.Collection
}
