package npm

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Package is a dependency resolved to its on-disk directory.
type Package struct {
	Name string
	Dir  string
}

// Layout resolves package names to directories inside a node_modules tree.
// Package managers arrange the tree differently, so each arrangement gets
// its own implementation.
type Layout interface {
	// Name identifies the layout in logs.
	Name() string

	// Resolve returns the directory holding the package's files, or false
	// when the package is not present in this layout.
	Resolve(pkg string) (string, bool)
}

// Resolver tries a fixed sequence of layouts until one locates the package.
type Resolver struct {
	root    string
	layouts []Layout
}

// NewResolver builds a resolver for the node_modules directory at root.
// The flat layout is tried before the pnpm store so hoisted packages win
// over store entries when both exist.
func NewResolver(root string) *Resolver {
	return &Resolver{
		root:    root,
		layouts: []Layout{&flatLayout{root: root}, &storeLayout{root: root}},
	}
}

// Root returns the node_modules directory the resolver was built for.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve locates pkg in the dependency tree. The boolean reports whether
// any layout found it; callers skip packages that are not installed.
func (r *Resolver) Resolve(pkg string) (Package, bool) {
	for _, layout := range r.layouts {
		dir, ok := layout.Resolve(pkg)
		if !ok {
			continue
		}
		log.Debug().
			Str("package", pkg).
			Str("layout", layout.Name()).
			Str("dir", dir).
			Msg("Resolved package directory")
		return Package{Name: pkg, Dir: dir}, true
	}
	log.Debug().Str("package", pkg).Msg("Package not found in dependency tree")
	return Package{}, false
}

// flatLayout is the classic npm arrangement: every package sits directly
// under node_modules, scoped packages under their @scope directory.
type flatLayout struct {
	root string
}

func (f *flatLayout) Name() string { return "flat" }

func (f *flatLayout) Resolve(pkg string) (string, bool) {
	dir := filepath.Join(f.root, filepath.FromSlash(pkg))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	// pnpm exposes direct dependencies as symlinks into the store.
	// Canonicalize so later file enumeration walks the real directory.
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", false
	}
	return resolved, true
}

// storeLayout is the pnpm arrangement: real package directories live under
// node_modules/.pnpm/<name>@<version>/node_modules/<name>, with the scoped
// separator flattened to "+" in the store entry name.
type storeLayout struct {
	root string
}

func (s *storeLayout) Name() string { return "pnpm-store" }

func (s *storeLayout) Resolve(pkg string) (string, bool) {
	storeDir := filepath.Join(s.root, ".pnpm")
	entries, err := os.ReadDir(storeDir)
	if err != nil {
		return "", false
	}

	prefix := strings.ReplaceAll(pkg, "/", "+") + "@"

	var matches []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	// Multiple store entries mean multiple installed versions; take the
	// first in sorted order so repeated builds resolve identically.
	sort.Strings(matches)

	dir := filepath.Join(storeDir, matches[0], "node_modules", filepath.FromSlash(pkg))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// OwnerFromPath derives the owning package name from a path relative to the
// node_modules root, in either layout. Store paths look like
// .pnpm/<name>@<version>/node_modules/..., flat paths like <name>/... or
// @scope/<name>/.... The boolean is false for paths that do not sit inside
// a package, such as files under .bin.
func OwnerFromPath(rel string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", false
	}

	if parts[0] == ".pnpm" {
		if len(parts) < 2 {
			return "", false
		}
		return ownerFromStoreEntry(parts[1])
	}
	if strings.HasPrefix(parts[0], ".") {
		return "", false
	}

	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 3 {
			return "", false
		}
		return parts[0] + "/" + parts[1], true
	}
	if len(parts) < 2 {
		return "", false
	}
	return parts[0], true
}

// ownerFromStoreEntry strips the version suffix from a pnpm store entry and
// restores the scoped separator: @scope+name@1.2.3 becomes @scope/name.
// The version always follows the last "@"; a leading "@" marks a scope.
func ownerFromStoreEntry(entry string) (string, bool) {
	at := strings.LastIndex(entry, "@")
	if at <= 0 {
		return "", false
	}
	name := entry[:at]
	if strings.HasPrefix(name, "@") {
		name = strings.Replace(name, "+", "/", 1)
	}
	if name == "" {
		return "", false
	}
	return name, true
}
