package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	manifestFileName    = ".homepage-manifest.json"
	manifestFileVersion = 1
)

// buildManifest stores metadata about the last successful build to support incremental runs.
type buildManifest struct {
	Version     int                      `json:"version"`
	GeneratedAt time.Time                `json:"generated_at"`
	Pages       map[string]manifestPage  `json:"pages"`
	Assets      map[string]manifestAsset `json:"assets"`
}

type manifestPage struct {
	DocumentID   string    `json:"document_id"`
	Source       string    `json:"source"`
	Permalink    string    `json:"permalink"`
	Output       string    `json:"output"`
	Layout       string    `json:"layout"`
	Hash         string    `json:"hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
}

type manifestAsset struct {
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	CopiedAt time.Time `json:"copied_at"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version: manifestFileVersion,
		Pages:   map[string]manifestPage{},
		Assets:  map[string]manifestAsset{},
	}
}

// parseManifest accepts the ordered on-disk layout written by marshal.
func parseManifest(data []byte) (*buildManifest, error) {
	manifest := newBuildManifest()
	if len(data) == 0 {
		return manifest, nil
	}
	var ordered orderedManifest
	if err := json.Unmarshal(data, &ordered); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}
	if ordered.Version != 0 {
		manifest.Version = ordered.Version
	}
	manifest.GeneratedAt = ordered.GeneratedAt
	for _, entry := range ordered.Pages {
		manifest.setPage(entry)
	}
	for _, entry := range ordered.Assets {
		manifest.setAsset(entry)
	}
	return manifest, nil
}

type orderedManifest struct {
	Version     int             `json:"version"`
	GeneratedAt time.Time       `json:"generated_at"`
	Pages       []manifestPage  `json:"pages"`
	Assets      []manifestAsset `json:"assets"`
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	ordered := orderedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		Pages:       make([]manifestPage, 0, len(m.Pages)),
		Assets:      make([]manifestAsset, 0, len(m.Assets)),
	}
	if ordered.Version == 0 {
		ordered.Version = manifestFileVersion
	}
	for _, entry := range m.Pages {
		ordered.Pages = append(ordered.Pages, entry)
	}
	sort.Slice(ordered.Pages, func(i, j int) bool {
		return ordered.Pages[i].Permalink < ordered.Pages[j].Permalink
	})
	for _, entry := range m.Assets {
		ordered.Assets = append(ordered.Assets, entry)
	}
	sort.Slice(ordered.Assets, func(i, j int) bool {
		return ordered.Assets[i].Source < ordered.Assets[j].Source
	})
	return json.MarshalIndent(ordered, "", "  ")
}

func (m *buildManifest) setPage(entry manifestPage) {
	if m.Pages == nil {
		m.Pages = map[string]manifestPage{}
	}
	m.Pages[strings.ToLower(strings.TrimSpace(entry.DocumentID))] = entry
}

func (m *buildManifest) lookupPage(documentID string) (manifestPage, bool) {
	if m == nil || len(m.Pages) == 0 {
		return manifestPage{}, false
	}
	entry, ok := m.Pages[strings.ToLower(strings.TrimSpace(documentID))]
	return entry, ok
}

func (m *buildManifest) shouldSkipPage(documentID, hash, output string) bool {
	entry, ok := m.lookupPage(documentID)
	if !ok {
		return false
	}
	return entry.Hash == hash && strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

func (m *buildManifest) setAsset(entry manifestAsset) {
	if m.Assets == nil {
		m.Assets = map[string]manifestAsset{}
	}
	m.Assets[strings.TrimSpace(entry.Source)] = entry
}

func (m *buildManifest) shouldSkipAsset(source, checksum, output string) bool {
	if m == nil {
		return false
	}
	entry, ok := m.Assets[strings.TrimSpace(source)]
	if !ok {
		return false
	}
	return entry.Checksum == checksum && strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

// prunePages drops entries for documents that were not part of this build
// and returns their outputs that no current page still writes.
func (m *buildManifest) prunePages(keep map[string]struct{}, outputs map[string]struct{}) []string {
	var stale []string
	for key, entry := range m.Pages {
		if _, ok := keep[key]; ok {
			continue
		}
		delete(m.Pages, key)
		output := strings.TrimSpace(entry.Output)
		if output == "" {
			continue
		}
		if _, ok := outputs[output]; !ok {
			stale = append(stale, output)
		}
	}
	sort.Strings(stale)
	return stale
}

func (m *buildManifest) pruneAssets(keep map[string]struct{}) {
	for key := range m.Assets {
		if _, ok := keep[key]; !ok {
			delete(m.Assets, key)
		}
	}
}
