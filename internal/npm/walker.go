package npm

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultScanDepth bounds package-directory scans for binary and data
	// file patterns. Native addons sit shallow (build/Release, prebuilds).
	DefaultScanDepth = 3

	// WasmScanDepth bounds .wasm discovery, which reaches into deeper
	// vendored trees than addon binaries do.
	WasmScanDepth = 16

	walkerCacheSize = 256
)

// Walker enumerates files under package directories with a depth bound.
// Classification and materialization list the same directories, so results
// are memoized in an LRU cache keyed by directory and depth.
type Walker struct {
	cache *lru.Cache[string, []string]
}

func NewWalker() *Walker {
	cache, _ := lru.New[string, []string](walkerCacheSize)
	return &Walker{cache: cache}
}

// EnumerateFiles returns relative forward-slash paths of regular files under
// dir, descending at most maxDepth levels. A file directly under dir has
// depth 1. Unreadable entries and symlinks are skipped, and an absent
// directory yields nil; enumeration never fails.
func (w *Walker) EnumerateFiles(dir string, maxDepth int) []string {
	key := fmt.Sprintf("%s|%d", dir, maxDepth)
	if files, ok := w.cache.Get(key); ok {
		return files
	}

	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1

		if d.IsDir() {
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if depth > maxDepth {
			return nil
		}
		files = append(files, rel)
		return nil
	})

	w.cache.Add(key, files)
	return files
}
