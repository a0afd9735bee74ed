package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/packmule-dev/packmule/internal/assets"
	"github.com/packmule-dev/packmule/internal/bundler"
	"github.com/packmule-dev/packmule/internal/output"
	"github.com/packmule-dev/packmule/internal/plan"
)

func writeProjectFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunBuildPrintsEngineWarnings(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, filepath.Join(dir, "package.json"), `{"name": "fixture", "main": "index.js"}`)
	writeProjectFile(t, filepath.Join(dir, "index.js"), "const o = { a: 1, a: 2 };\nconsole.log(o);\n")

	var buf bytes.Buffer
	formatter = output.NewFormatter(output.FormatJSON, false, false)
	formatter.Writer = &buf
	t.Cleanup(func() { formatter = nil })

	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	runErr := runBuild(buildCmd, []string{dir})
	os.Stderr = oldStderr
	_ = w.Close()

	captured, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		t.Fatal(err)
	}
	if runErr != nil {
		t.Fatalf("build failed: %v", runErr)
	}

	stderrText := string(captured)
	if !strings.Contains(stderrText, "Warning:") || !strings.Contains(stderrText, "Duplicate key") {
		t.Errorf("engine warning not surfaced on stderr: %q", stderrText)
	}
	if !strings.Contains(buf.String(), "Duplicate key") {
		t.Errorf("warnings missing from the build view:\n%s", buf.String())
	}
}

func TestNewBuildView(t *testing.T) {
	summary := &bundler.Summary{
		Entry:      "src/index.ts",
		Framework:  "Express",
		OutputFile: "/app/dist/index.js",
		OutputSize: 2048,
		Duration:   1500 * time.Millisecond,
		Externals:  []string{"sharp", "tiktoken"},
		Copied: []assets.CopyRecord{
			{
				Category: plan.CategoryBinary,
				Package:  "sharp",
				Target:   "/app/dist/node_modules/sharp/build/Release/sharp.node",
				Size:     4096,
			},
		},
	}

	view := newBuildView(summary)

	if view.Entry != "src/index.ts" {
		t.Errorf("entry = %q", view.Entry)
	}
	if view.DurationMS != 1500 {
		t.Errorf("duration_ms = %d, want 1500", view.DurationMS)
	}
	if len(view.Copied) != 1 {
		t.Fatalf("copied = %d records, want 1", len(view.Copied))
	}
	if view.Copied[0].Category != "binary" {
		t.Errorf("copied category = %q, want %q", view.Copied[0].Category, "binary")
	}
	if view.Copied[0].Size != 4096 {
		t.Errorf("copied size = %d, want 4096", view.Copied[0].Size)
	}
	if view.Warnings != nil {
		t.Errorf("warnings should stay empty, got %v", view.Warnings)
	}
}
