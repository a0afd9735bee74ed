package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/packmule-dev/packmule/internal/assets"
	"github.com/packmule-dev/packmule/internal/classify"
	"github.com/packmule-dev/packmule/internal/config"
	"github.com/packmule-dev/packmule/internal/detect"
	"github.com/packmule-dev/packmule/internal/npm"
	"github.com/packmule-dev/packmule/internal/plan"
	"github.com/packmule-dev/packmule/internal/rewrite"
)

// Summary reports one completed build.
type Summary struct {
	Entry      string
	Framework  string
	OutputFile string
	OutputRoot string
	OutputSize int64
	Duration   time.Duration
	Plan       *plan.Plan
	Externals  []string
	Copied     []assets.CopyRecord
	Warnings   []string
}

// Inspection is the resolved build plan for a project, computed without
// invoking the engine. Entry is empty when no entry point was found.
type Inspection struct {
	Entry     string
	Framework string
	Plan      *plan.Plan
}

// Bundler runs the full packaging pipeline for one project: entry
// detection, plan resolution, asset materialization, and the engine build
// with the path rewriter installed.
type Bundler struct {
	cfg    *config.Config
	walker *npm.Walker
}

func New(cfg *config.Config) *Bundler {
	return &Bundler{cfg: cfg, walker: npm.NewWalker()}
}

// resolve runs the phases shared by Build and Inspect: entry detection and
// strategy resolution against the project's dependency tree.
func (b *Bundler) resolve(base string) (*detect.Result, *npm.Resolver, *plan.Plan) {
	detection := detect.Detect(base, b.cfg.Entry)
	resolver := npm.NewResolver(filepath.Join(base, "node_modules"))
	p := plan.Resolve(b.cfg, classify.New(b.walker), resolver, directDependencies(base))
	return detection, resolver, p
}

// Inspect reports what a build of the project at dir would do.
func (b *Bundler) Inspect(dir string) *Inspection {
	detection, _, p := b.resolve(absDir(dir))
	return &Inspection{
		Entry:     detection.Entry,
		Framework: detection.FrameworkName(),
		Plan:      p,
	}
}

// Build packages the project at dir into its configured output directory.
// Asset problems degrade to warnings; only engine diagnostics and a missing
// entry point fail the build.
func (b *Bundler) Build(ctx context.Context, dir string) (*Summary, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("build canceled: %w", ctx.Err())
	default:
	}

	start := time.Now()
	base := absDir(dir)

	detection, resolver, p := b.resolve(base)
	if detection.Entry == "" {
		return nil, fmt.Errorf("no entry point found in %s, set entry in packmule.yaml or pass --entry", dir)
	}
	log.Debug().
		Str("entry", detection.Entry).
		Str("framework", detection.FrameworkName()).
		Msg("Resolved entry point")

	outRoot := filepath.Join(base, b.cfg.OutDir)
	materializer := assets.NewMaterializer(resolver, b.walker, outRoot)

	var copied []assets.CopyRecord
	materialized := make([][]string, 0, 3)
	for _, cp := range p.Categories() {
		res := materializer.Materialize(cp)
		copied = append(copied, res.Copied...)
		materialized = append(materialized, res.Externals)
	}
	externals := plan.FinalExternals(p.Externals, materialized...)

	outputFile := filepath.Join(outRoot, outputName(detection.Entry))

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{filepath.Join(base, detection.Entry)},
		Outfile:           outputFile,
		Bundle:            true,
		Write:             true,
		Platform:          api.PlatformNode,
		Format:            formatFor(b.cfg.Format),
		Target:            targetFor(b.cfg.Target),
		MinifyWhitespace:  b.cfg.Minify,
		MinifyIdentifiers: b.cfg.Minify,
		MinifySyntax:      b.cfg.Minify,
		Sourcemap:         sourcemapFor(b.cfg.Sourcemap),
		External:          externals,
		AbsWorkingDir:     base,
		LogLevel:          api.LogLevelSilent,
		Plugins: []api.Plugin{
			rewrite.New(p).Plugin(),
		},
	})

	// Engine warnings travel back on the summary; presenting them is the
	// caller's job.
	warnings := messageTexts(result.Warnings)
	for _, warning := range warnings {
		log.Debug().Msg(warning)
	}

	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("bundle failed: %s", strings.Join(messageTexts(result.Errors), "; "))
	}

	summary := &Summary{
		Entry:      detection.Entry,
		Framework:  detection.FrameworkName(),
		OutputFile: outputFile,
		OutputRoot: outRoot,
		Duration:   time.Since(start),
		Plan:       p,
		Externals:  externals,
		Copied:     copied,
		Warnings:   warnings,
	}
	if info, err := os.Stat(outputFile); err == nil {
		summary.OutputSize = info.Size()
	} else {
		log.Debug().Err(err).Str("file", outputFile).Msg("Could not stat output file")
	}

	log.Debug().
		Str("output", outputFile).
		Int64("size", summary.OutputSize).
		Dur("duration", summary.Duration).
		Msg("Bundle completed")
	return summary, nil
}

// directDependencies returns the sorted runtime dependency names of the
// project, or nil when package.json is unreadable.
func directDependencies(dir string) []string {
	pkg, err := npm.ReadPackageJSON(dir)
	if err != nil {
		return nil
	}
	deps := make([]string, 0, len(pkg.Dependencies))
	for name := range pkg.Dependencies {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}

// outputName maps the entry file name onto the bundle file name.
func outputName(entry string) string {
	base := filepath.Base(entry)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + ".js"
}

func formatFor(format string) api.Format {
	if format == "esm" {
		return api.FormatESModule
	}
	return api.FormatCommonJS
}

func sourcemapFor(enabled bool) api.SourceMap {
	if enabled {
		return api.SourceMapLinked
	}
	return api.SourceMapNone
}

// targetFor maps the configured ECMAScript target onto the engine's enum.
func targetFor(target string) api.Target {
	switch strings.ToLower(target) {
	case "es2015", "es6":
		return api.ES2015
	case "es2016":
		return api.ES2016
	case "es2017":
		return api.ES2017
	case "es2018":
		return api.ES2018
	case "es2019":
		return api.ES2019
	case "es2020":
		return api.ES2020
	case "es2021":
		return api.ES2021
	case "es2022":
		return api.ES2022
	case "es2023":
		return api.ES2023
	case "es2024":
		return api.ES2024
	case "esnext", "":
		return api.ESNext
	default:
		log.Warn().Str("target", target).Msg("Unknown target, using es2022")
		return api.ES2022
	}
}

func messageTexts(msgs []api.Message) []string {
	texts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		text := msg.Text
		if msg.Location != nil {
			text = fmt.Sprintf("%s:%d: %s", msg.Location.File, msg.Location.Line, msg.Text)
		}
		texts = append(texts, text)
	}
	return texts
}

func absDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
