package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIncludes matches the plain-text formats indexed when no include
// patterns are configured.
var DefaultIncludes = []string{"**/*.txt", "**/*.md", "**/*.rst"}

// Walker finds documents under a root directory by glob patterns matched
// against slash-separated relative paths.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Source is a candidate document. ID is the path relative to the walk root
// and is used as the document id.
type Source struct {
	ID   string
	Path string
	Size int64
}

// Walk returns the matching files under root sorted by ID.
func (w *Walker) Walk(root string) ([]Source, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []Source{{ID: filepath.Base(root), Path: root, Size: info.Size()}}, nil
	}

	var sources []Source
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && w.excluded(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.included(rel) || w.excluded(rel) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		sources = append(sources, Source{ID: rel, Path: path, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })
	return sources, nil
}

func (w *Walker) included(path string) bool {
	return matchAny(w.includes, path)
}

func (w *Walker) excluded(path string) bool {
	return matchAny(w.excludes, path)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

// ReadText reads a file as UTF-8 text.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return DecodeText(path, data)
}

// DecodeText returns data as a string, or an error naming name when it is
// not valid UTF-8.
func DecodeText(name string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s is not valid UTF-8 text", name)
	}
	return string(data), nil
}
