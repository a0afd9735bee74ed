package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/packmule-dev/packmule/internal/bundler"
	"github.com/packmule-dev/packmule/internal/output"
	"github.com/packmule-dev/packmule/internal/report"
)

var (
	buildEntry     string
	buildOutDir    string
	buildFormat    string
	buildMinify    bool
	buildSourcemap bool
	buildExternal  []string
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Bundle a project for deployment",
	Long: `Bundle the Node.js project in the given directory (default ".").

The project's entry point is taken from the configuration, package.json,
or framework conventions. Native addons, WebAssembly modules, and
configured data assets are copied next to the bundle according to their
strategies, and references to them are rewritten to the copied locations.

Examples:
  packmule build
  packmule build ./services/api
  packmule build --entry src/server.ts --minify
  packmule build --format esm --external aws-sdk`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: initOutput,
	RunE:    runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildEntry, "entry", "", "Entry point file (overrides detection)")
	buildCmd.Flags().StringVar(&buildOutDir, "out-dir", "", "Output directory (default \"dist\")")
	buildCmd.Flags().StringVar(&buildFormat, "format", "", "Bundle format: cjs or esm")
	buildCmd.Flags().BoolVar(&buildMinify, "minify", false, "Minify the bundle")
	buildCmd.Flags().BoolVar(&buildSourcemap, "sourcemap", false, "Emit a source map")
	buildCmd.Flags().StringArrayVar(&buildExternal, "external", nil, "Additional external package (repeatable)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	dir := projectDir(args)

	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}

	// Flags override both the config file and environment variables.
	flags := cmd.Flags()
	if flags.Changed("entry") {
		cfg.Entry = buildEntry
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = buildOutDir
	}
	if flags.Changed("format") {
		cfg.Format = buildFormat
	}
	if flags.Changed("minify") {
		cfg.Minify = buildMinify
	}
	if flags.Changed("sourcemap") {
		cfg.Sourcemap = buildSourcemap
	}
	cfg.External = append(cfg.External, buildExternal...)

	// Re-validate since flag values bypass the load-time checks.
	if err := cfg.Validate(); err != nil {
		return err
	}

	summary, err := bundler.New(cfg).Build(context.Background(), dir)
	if err != nil {
		return err
	}

	formatter := GetFormatter()
	for _, warning := range summary.Warnings {
		formatter.PrintWarning(warning)
	}
	if formatter.Format == output.FormatTable {
		if !formatter.Quiet {
			report.DisplayBuild(os.Stdout, summary)
		}
		return nil
	}
	return formatter.Print(newBuildView(summary))
}

// buildView is the machine-readable form of a build summary.
type buildView struct {
	Entry      string     `json:"entry" yaml:"entry"`
	Framework  string     `json:"framework,omitempty" yaml:"framework,omitempty"`
	OutputFile string     `json:"output_file" yaml:"output_file"`
	OutputSize int64      `json:"output_size" yaml:"output_size"`
	DurationMS int64      `json:"duration_ms" yaml:"duration_ms"`
	Externals  []string   `json:"externals" yaml:"externals"`
	Copied     []copyView `json:"copied" yaml:"copied"`
	Warnings   []string   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type copyView struct {
	Category string `json:"category" yaml:"category"`
	Package  string `json:"package" yaml:"package"`
	Target   string `json:"target" yaml:"target"`
	Size     int64  `json:"size" yaml:"size"`
}

func newBuildView(s *bundler.Summary) buildView {
	view := buildView{
		Entry:      s.Entry,
		Framework:  s.Framework,
		OutputFile: s.OutputFile,
		OutputSize: s.OutputSize,
		DurationMS: s.Duration.Milliseconds(),
		Externals:  s.Externals,
		Copied:     make([]copyView, 0, len(s.Copied)),
		Warnings:   s.Warnings,
	}
	for _, record := range s.Copied {
		view.Copied = append(view.Copied, copyView{
			Category: record.Category.String(),
			Package:  record.Package,
			Target:   record.Target,
			Size:     record.Size,
		})
	}
	return view
}
