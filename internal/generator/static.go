package generator

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

type assetCopySummary struct {
	Built   int
	Skipped int
}

// copyStatic mirrors the configured static directories of src into the
// output, keeping their relative paths.
func (s *service) copyStatic(
	ctx context.Context,
	sink *artifactSink,
	manifest *buildManifest,
	force bool,
	dryRun bool,
) (assetCopySummary, map[string]struct{}, error) {
	summary := assetCopySummary{}
	seen := map[string]struct{}{}
	if s.deps.Static == nil {
		return summary, seen, nil
	}

	for _, dir := range s.cfg.StaticDirs {
		dir = strings.Trim(filepath.ToSlash(strings.TrimSpace(dir)), "/")
		if dir == "" || !fs.ValidPath(dir) {
			continue
		}
		err := fs.WalkDir(s.deps.Static, dir, func(current string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if current == dir && errors.Is(walkErr, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if entry.IsDir() {
				if current != dir && strings.HasPrefix(entry.Name(), ".") {
					return fs.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(entry.Name(), ".") {
				return nil
			}

			data, err := fs.ReadFile(s.deps.Static, current)
			if err != nil {
				return err
			}
			checksum := computeHash(data)
			seen[current] = struct{}{}
			if s.cfg.Incremental && !force && manifest.shouldSkipAsset(current, checksum, current) {
				summary.Skipped++
				return nil
			}
			if !dryRun {
				if err := sink.write(ctx, writeFileRequest{
					Path:        current,
					Content:     bytes.NewReader(data),
					Size:        int64(len(data)),
					Category:    categoryAsset,
					ContentType: detectAssetContentType(current),
					Checksum:    checksum,
				}); err != nil {
					return err
				}
				manifest.setAsset(manifestAsset{
					Source:   current,
					Output:   current,
					Checksum: checksum,
					Size:     int64(len(data)),
					CopiedAt: s.now(),
				})
			}
			summary.Built++
			return nil
		})
		if err != nil {
			return summary, seen, err
		}
	}
	return summary, seen, nil
}

func detectAssetContentType(asset string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(asset), "."))
	switch ext {
	case "css":
		return "text/css"
	case "js":
		return "application/javascript"
	case "json":
		return "application/json"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
