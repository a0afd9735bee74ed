// Package report renders the advisory build report: what was bundled, what
// was copied, and what the deployment environment still has to provide. The
// report is printed, never persisted.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/packmule-dev/packmule/internal/assets"
	"github.com/packmule-dev/packmule/internal/bundler"
	"github.com/packmule-dev/packmule/internal/plan"
)

// DisplayBuild prints the full report for one completed build.
func DisplayBuild(w io.Writer, s *bundler.Summary) {
	_, _ = fmt.Fprintf(w, "\n=== Bundle: %s ===\n", s.OutputFile)
	if s.Framework != "" {
		_, _ = fmt.Fprintf(w, "Entry:    %s (%s)\n", s.Entry, s.Framework)
	} else {
		_, _ = fmt.Fprintf(w, "Entry:    %s\n", s.Entry)
	}
	_, _ = fmt.Fprintf(w, "Size:     %s\n", humanize.Bytes(uint64(s.OutputSize)))
	_, _ = fmt.Fprintf(w, "Duration: %s\n", s.Duration.Round(time.Millisecond))

	if len(s.Externals) > 0 {
		_, _ = fmt.Fprintln(w, "\nExternal packages (resolved at runtime):")
		for _, name := range s.Externals {
			_, _ = fmt.Fprintf(w, "  - %s\n", name)
		}
	}

	if s.Plan != nil {
		for _, cp := range s.Plan.Categories() {
			displayCopied(w, cp, copiedFor(s.Copied, cp.Category), s.OutputRoot)
		}
	}

	displayNotes(w, s)
	_, _ = fmt.Fprintln(w)
}

// displayCopied prints one category's copied files with a per-file size
// table and a total.
func displayCopied(w io.Writer, cp plan.CategoryPlan, records []assets.CopyRecord, outRoot string) {
	if len(records) == 0 {
		return
	}

	_, _ = fmt.Fprintf(w, "\n=== Copied %s files (strategy: %s) ===\n", cp.Category, cp.Strategy)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"PACKAGE", "FILE", "SIZE"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	var total int64
	for _, record := range records {
		total += record.Size
		table.Append([]string{
			record.Package,
			displayTarget(record.Target, outRoot),
			humanize.Bytes(uint64(record.Size)),
		})
	}
	table.Render()

	_, _ = fmt.Fprintf(w, "%d files, %s total\n", len(records), humanize.Bytes(uint64(total)))
}

// displayNotes prints deployment advice derived from what the build did.
// Binary-architecture compatibility is advisory text only; nothing validates
// it at deploy time.
func displayNotes(w io.Writer, s *bundler.Summary) {
	var notes []string

	if len(copiedFor(s.Copied, plan.CategoryBinary)) > 0 {
		notes = append(notes,
			"Copied native binaries were built for this machine's platform and architecture; rebuild on the deployment platform if it differs.")
	}
	if externalOnly(s) {
		notes = append(notes,
			"External packages are not part of the bundle; install them (node_modules) in the deployment environment.")
	}

	if len(notes) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "\nDeployment notes:")
	for _, note := range notes {
		_, _ = fmt.Fprintf(w, "  - %s\n", note)
	}
}

// copiedFor filters the copy records down to one category.
func copiedFor(records []assets.CopyRecord, cat plan.Category) []assets.CopyRecord {
	var out []assets.CopyRecord
	for _, record := range records {
		if record.Category == cat {
			out = append(out, record)
		}
	}
	return out
}

// externalOnly reports whether any external package has no copied files, so
// the runtime depends on an installed node_modules tree.
func externalOnly(s *bundler.Summary) bool {
	copied := make(map[string]bool, len(s.Copied))
	for _, record := range s.Copied {
		copied[record.Package] = true
	}
	for _, name := range s.Externals {
		if !copied[name] {
			return true
		}
	}
	return false
}

// displayTarget shortens a copy target to its output-root-relative form.
func displayTarget(target, outRoot string) string {
	if outRoot == "" {
		return target
	}
	rel, err := filepath.Rel(outRoot, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}
