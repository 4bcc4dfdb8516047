package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"vecindex/internal/domain"
)

var mimeByExt = map[string]string{
	".pdf": "application/pdf",
	".txt": "text/plain",
	".md":  "text/markdown",
}

// Source walks a directory tree and loads every file matching the
// include globs as a candidate document. Document IDs are slash-separated
// paths relative to the root, so the same tree indexed from a different
// mount point produces the same IDs.
type Source struct {
	root     string
	includes []string
	excludes []string
}

func NewSource(root string, includes, excludes []string) *Source {
	if len(includes) == 0 {
		includes = []string{"**/*.pdf", "**/*.txt", "**/*.md"}
	}
	return &Source{
		root:     root,
		includes: includes,
		excludes: excludes,
	}
}

func (s *Source) Discover(ctx context.Context) ([]domain.Document, error) {
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			if s.shouldExclude(relPath + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if s.shouldInclude(relPath) && !s.shouldExclude(relPath) {
			paths = append(paths, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(paths)

	docs := make([]domain.Document, 0, len(paths))
	for _, relPath := range paths {
		raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
		}
		docs = append(docs, domain.Document{
			ID:       relPath,
			Name:     filepath.Base(relPath),
			Raw:      raw,
			MimeType: MimeType(relPath),
			Size:     int64(len(raw)),
		})
	}
	return docs, nil
}

// MimeType maps a file extension to the type the extractor registry
// dispatches on. Unknown extensions get application/octet-stream, which
// no extractor supports.
func MimeType(path string) string {
	if mt, ok := mimeByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "application/octet-stream"
}

func (s *Source) shouldInclude(path string) bool {
	for _, pattern := range s.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (s *Source) shouldExclude(path string) bool {
	for _, pattern := range s.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
