package core

import (
	"fmt"
	"path/filepath"
)

// FileCache is the source-loading boundary between the driver and the
// semantic analyser: the core never touches the filesystem
// directly, so tests can swap in an in-memory implementation.
type FileCache interface {
	GetFileContents(path string) (string, error)
	AddImportPath(path string)
	Canonicalize(path string) (string, error)
}

// MapFileCache is the in-repo FileCache: a fixed map of path to source
// text plus an ordered list of import search paths, following the same
// "fixed table, no surprises" approach as the builtin registry's
// init()-populated table (builtins.go).
type MapFileCache struct {
	files       map[string]string
	importPaths []string
}

// NewMapFileCache builds a MapFileCache pre-populated with files.
func NewMapFileCache(files map[string]string) *MapFileCache {
	m := make(map[string]string, len(files))
	for k, v := range files {
		m[k] = v
	}
	return &MapFileCache{files: m}
}

func (c *MapFileCache) GetFileContents(path string) (string, error) {
	canon, err := c.Canonicalize(path)
	if err != nil {
		return "", err
	}
	src, ok := c.files[canon]
	if !ok {
		return "", fmt.Errorf("reading %s: %w", path, errFileNotFound)
	}
	return src, nil
}

func (c *MapFileCache) AddImportPath(path string) {
	c.importPaths = append(c.importPaths, path)
}

// Canonicalize resolves path directly, then against each registered
// import path in order, returning the first candidate present in the
// map. No import path matching is attempted for an already-absolute
// path.
func (c *MapFileCache) Canonicalize(path string) (string, error) {
	if _, ok := c.files[path]; ok {
		return path, nil
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("resolving %s: %w", path, errFileNotFound)
	}
	for _, dir := range c.importPaths {
		candidate := filepath.Join(dir, path)
		if _, ok := c.files[candidate]; ok {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("resolving %s: %w", path, errFileNotFound)
}

var errFileNotFound = fmt.Errorf("file not found in cache")
