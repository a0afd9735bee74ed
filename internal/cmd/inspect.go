package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/packmule-dev/packmule/internal/bundler"
	"github.com/packmule-dev/packmule/internal/output"
	"github.com/packmule-dev/packmule/internal/plan"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [dir]",
	Short: "Show what a build would do",
	Long: `Inspect the project in the given directory (default ".") without
building it: the detected entry point and framework, the per-category
strategies, the packages each strategy applies to, and the external
packages the bundle would depend on at runtime.

Examples:
  packmule inspect
  packmule inspect ./services/api
  packmule inspect -o json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: initOutput,
	RunE:    runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	dir := projectDir(args)

	cfg, err := loadConfig(dir)
	if err != nil {
		return err
	}

	insp := bundler.New(cfg).Inspect(dir)

	formatter := GetFormatter()
	if formatter.Format != output.FormatTable {
		return formatter.Print(newInspectView(insp))
	}

	entry := insp.Entry
	if entry == "" {
		entry = "(not found)"
	}
	formatter.PrintKeyValue("Entry", entry)
	if insp.Framework != "" {
		formatter.PrintKeyValue("Framework", insp.Framework)
	}

	data := output.TableData{
		Headers: []string{"CATEGORY", "STRATEGY", "OUTPUT DIR", "PACKAGES"},
		Rows:    make([][]string, 0, 3),
	}
	for _, cp := range insp.Plan.Categories() {
		data.Rows = append(data.Rows, []string{
			cp.Category.String(),
			cp.Strategy.String(),
			cp.OutputDir,
			displayPackages(cp),
		})
	}
	formatter.PrintInfo("")
	formatter.PrintTable(data)

	if externals := insp.Plan.ProjectedExternals(); len(externals) > 0 {
		formatter.PrintInfo("")
		formatter.PrintInfo("External packages (resolved at runtime):")
		formatter.PrintList(externals)
	}
	return nil
}

// displayPackages renders a category's package list for the table, with a
// placeholder for categories that apply to nothing.
func displayPackages(cp plan.CategoryPlan) string {
	if cp.Strategy == plan.StrategyIgnore {
		return "-"
	}
	if len(cp.Packages) == 0 {
		return "(none)"
	}
	return strings.Join(cp.Packages, ", ")
}

// inspectView is the machine-readable form of an inspection.
type inspectView struct {
	Entry      string         `json:"entry" yaml:"entry"`
	Framework  string         `json:"framework,omitempty" yaml:"framework,omitempty"`
	Categories []categoryView `json:"categories" yaml:"categories"`
	Externals  []string       `json:"externals" yaml:"externals"`
}

type categoryView struct {
	Category          string   `json:"category" yaml:"category"`
	Strategy          string   `json:"strategy" yaml:"strategy"`
	OutputDir         string   `json:"output_dir" yaml:"output_dir"`
	PreserveStructure bool     `json:"preserve_structure" yaml:"preserve_structure"`
	Extensions        []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Packages          []string `json:"packages" yaml:"packages"`
}

func newInspectView(insp *bundler.Inspection) inspectView {
	view := inspectView{
		Entry:      insp.Entry,
		Framework:  insp.Framework,
		Categories: make([]categoryView, 0, 3),
		Externals:  insp.Plan.ProjectedExternals(),
	}
	for _, cp := range insp.Plan.Categories() {
		view.Categories = append(view.Categories, categoryView{
			Category:          cp.Category.String(),
			Strategy:          cp.Strategy.String(),
			OutputDir:         cp.OutputDir,
			PreserveStructure: cp.PreserveStructure,
			Extensions:        cp.Extensions,
			Packages:          cp.Packages,
		})
	}
	return view
}
