// Package cmd provides the Cobra commands for the packmule CLI.
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/packmule-dev/packmule/internal/config"
	"github.com/packmule-dev/packmule/internal/output"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	// Global flags
	cfgFile   string
	outputFmt string
	noHeaders bool
	quiet     bool
	debug     bool

	// Shared across commands
	formatter *output.Formatter
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "packmule",
	Short: "packmule - Bundle Node.js backend apps for deployment",
	Long: `packmule bundles Node.js backend applications into a deployable artifact.

It detects your entry point and framework, bundles your code with esbuild,
and carries along what cannot live inside a JavaScript bundle: native
addons, WebAssembly modules, and data assets. References to copied files
are rewritten so they resolve from the output directory at runtime.

Get started:
  packmule init           Write a starter packmule.yaml
  packmule inspect        Show what a build would do
  packmule build          Bundle the project in the current directory

Configuration is read from packmule.yaml (or PACKMULE_* environment
variables); command-line flags override both.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Silence errors only when --quiet is used
		cmd.SilenceErrors = quiet

		if viper.GetBool("debug") {
			debug = true
		}
		if debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is packmule.yaml in the project directory)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false,
		"hide table headers")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"minimal output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug output")

	// Bind environment variables
	viper.SetEnvPrefix("PACKMULE")
	_ = viper.BindEnv("debug") // PACKMULE_DEBUG

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}

// loadConfig loads the project configuration and raises the log level when
// the config asks for debug output.
func loadConfig(projectDir string) (*config.Config, error) {
	cfg, err := config.Load(projectDir, cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg, nil
}

// projectDir returns the positional project directory, defaulting to the
// working directory.
func projectDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// initOutput validates the output flags and sets up the shared formatter;
// commands that print structured output use it as PreRunE.
func initOutput(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(outputFmt)
	if err != nil {
		return err
	}
	formatter = output.NewFormatter(format, noHeaders, quiet)
	return nil
}

// GetFormatter returns the output formatter (for use by subcommands)
func GetFormatter() *output.Formatter {
	if formatter == nil {
		format, _ := output.ParseFormat(outputFmt)
		formatter = output.NewFormatter(format, noHeaders, quiet)
	}
	return formatter
}
