package assets

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/packmule-dev/packmule/internal/npm"
	"github.com/packmule-dev/packmule/internal/plan"
)

// CopyRecord describes one file carried into the output tree.
type CopyRecord struct {
	Category plan.Category
	Package  string
	Source   string
	Target   string
	Size     int64
}

// Result is the outcome of materializing one category.
type Result struct {
	Externals []string
	Copied    []CopyRecord
}

// TargetRelPath returns the bundle-relative location for rel of pkg under
// the category plan: <outputDir>/<pkg>/<rel> when structure is preserved,
// otherwise <outputDir>/<pkg>-<rel> with every slash flattened to "-".
//
// The path rewriter derives replacement literals from this same function,
// so rewritten references and physical copies cannot diverge.
func TargetRelPath(cp plan.CategoryPlan, pkg, rel string) string {
	if cp.PreserveStructure {
		return path.Join(cp.OutputDir, pkg, rel)
	}
	flat := strings.ReplaceAll(pkg+"-"+rel, "/", "-")
	return path.Join(cp.OutputDir, flat)
}

// Materializer copies qualifying package files into the output tree.
type Materializer struct {
	resolver *npm.Resolver
	walker   *npm.Walker
	outRoot  string
}

func NewMaterializer(resolver *npm.Resolver, walker *npm.Walker, outRoot string) *Materializer {
	return &Materializer{resolver: resolver, walker: walker, outRoot: outRoot}
}

// Materialize handles every package in the category plan. Packages missing
// from the dependency tree are skipped, and per-file copy failures are
// logged without stopping the run; materialization never aborts a build.
// Inline never reaches this point: plan resolution degrades it to copy.
func (m *Materializer) Materialize(cp plan.CategoryPlan) Result {
	var res Result
	for _, name := range cp.Packages {
		pkg, ok := m.resolver.Resolve(name)
		if !ok {
			log.Debug().
				Str("package", name).
				Str("category", cp.Category.String()).
				Msg("Package directory not found, skipping")
			continue
		}

		switch cp.Strategy {
		case plan.StrategyCopy:
			res.Copied = append(res.Copied, m.copyPackage(cp, pkg)...)
			res.Externals = append(res.Externals, name)
		case plan.StrategyExternal:
			res.Externals = append(res.Externals, name)
		case plan.StrategyIgnore:
			// Left to default bundling.
		}
	}
	return res
}

func (m *Materializer) copyPackage(cp plan.CategoryPlan, pkg npm.Package) []CopyRecord {
	var records []CopyRecord
	for _, rel := range m.walker.EnumerateFiles(pkg.Dir, cp.ScanDepth()) {
		if !cp.MatchFile(rel) {
			continue
		}

		source := filepath.Join(pkg.Dir, filepath.FromSlash(rel))
		targetRel := TargetRelPath(cp, pkg.Name, rel)
		target := filepath.Join(m.outRoot, filepath.FromSlash(targetRel))

		size, err := copyFile(source, target)
		if err != nil {
			log.Warn().
				Err(err).
				Str("package", pkg.Name).
				Str("source", source).
				Msg("Failed to copy file")
			continue
		}

		records = append(records, CopyRecord{
			Category: cp.Category,
			Package:  pkg.Name,
			Source:   source,
			Target:   target,
			Size:     size,
		})
		log.Debug().
			Str("package", pkg.Name).
			Str("file", rel).
			Str("target", targetRel).
			Msg("Copied file")
	}
	return records
}

// copyFile copies source to target byte-for-byte, creating intermediate
// directories and overwriting any previous copy.
func copyFile(source, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	src, err := os.Open(source)
	if err != nil {
		return 0, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("failed to create target file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(target)
		return 0, fmt.Errorf("failed to copy file: %w", err)
	}
	return size, nil
}
