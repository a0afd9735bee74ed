package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// starterConfig is the commented packmule.yaml written by init. Every value
// shown is the default, so uncommenting a line is a no-op until edited.
const starterConfig = `# packmule configuration
# Settings can also come from PACKMULE_* environment variables
# (e.g. PACKMULE_OUT_DIR); command-line flags override both.

# Entry point. Leave unset to detect it from package.json and
# framework conventions.
# entry: src/index.ts

# out_dir: dist
# format: cjs        # cjs or esm
# target: es2022
# minify: false
# sourcemap: false

# Packages to leave out of the bundle in addition to the ones the
# strategies below mark external.
# external:
#   - aws-sdk

# Native addon packages (compiled .node/.so/.dll/.dylib artifacts).
# Strategies: copy (carry files next to the bundle), external (leave to
# the deployment's node_modules), ignore (default bundling).
binary_packages:
  strategy: external
  # packages: []     # empty list auto-detects
  # preserve_structure: true

# WebAssembly packages. An empty package list auto-detects .wasm files
# across the dependency tree.
wasm_packages:
  strategy: copy
  # output_dir: assets/wasm

# Data file packages. No auto-detection; list the packages explicitly.
asset_packages:
  strategy: copy
  # packages:
  #   - geo-tz
  # extensions: [".json", ".txt", ".xml", ".yaml", ".yml"]
`

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter configuration file",
	Long: `Create a commented packmule.yaml in the given directory (default ".").

Examples:
  packmule init
  packmule init ./services/api`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	path := filepath.Join(projectDir(args), "packmule.yaml")

	// Refuse to clobber an existing configuration.
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists at %s", path)
	}

	if err := os.WriteFile(path, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("Run 'packmule inspect' to see what a build would do.")
	return nil
}
