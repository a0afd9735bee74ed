package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config represents the packmule configuration for one project
type Config struct {
	Entry     string   `mapstructure:"entry"`
	OutDir    string   `mapstructure:"out_dir"`
	Format    string   `mapstructure:"format"`
	Target    string   `mapstructure:"target"`
	Minify    bool     `mapstructure:"minify"`
	Sourcemap bool     `mapstructure:"sourcemap"`
	External  []string `mapstructure:"external"`
	Debug     bool     `mapstructure:"debug"`

	BinaryPackages CategoryConfig `mapstructure:"binary_packages"`
	WasmPackages   CategoryConfig `mapstructure:"wasm_packages"`
	AssetPackages  CategoryConfig `mapstructure:"asset_packages"`
}

// CategoryConfig controls how one category of special packages is handled
type CategoryConfig struct {
	Strategy          string   `mapstructure:"strategy"`
	Packages          []string `mapstructure:"packages"`
	OutputDir         string   `mapstructure:"output_dir"`
	PreserveStructure bool     `mapstructure:"preserve_structure"`
	Extensions        []string `mapstructure:"extensions"`
}

// Load loads configuration from file and environment variables. The config
// file is searched in projectDir then the working directory unless cfgFile
// names one explicitly.
func Load(projectDir, cfgFile string) (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := loadEnvFile(projectDir); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("packmule")
		v.SetConfigType("yaml")
		v.AddConfigPath(projectDir)
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable support with underscore replacer
	v.AutomaticEnv()
	v.SetEnvPrefix("PACKMULE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (if it exists)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment variables
		log.Debug().Msg("No config file found, using environment variables and defaults")
	} else {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("Config file loaded")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads environment variables from .env file
func loadEnvFile(projectDir string) error {
	locations := []string{
		filepath.Join(projectDir, ".env"),
		".env",
		".env.local",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			if err := godotenv.Load(location); err != nil {
				return fmt.Errorf("error loading .env file from %s: %w", location, err)
			}
			log.Debug().Str("file", location).Msg(".env file loaded")
			return nil
		}
	}

	return fmt.Errorf("no .env file found")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Build defaults
	v.SetDefault("entry", "")
	v.SetDefault("out_dir", "dist")
	v.SetDefault("format", "cjs")
	v.SetDefault("target", "es2022")
	v.SetDefault("minify", false)
	v.SetDefault("sourcemap", false)
	v.SetDefault("debug", false)

	// Binary packages: left alone by default, the runtime loads native
	// addons from node_modules at deploy time. The output directory default
	// depends on preserve_structure, so it is resolved at plan time.
	v.SetDefault("binary_packages.strategy", "external")
	v.SetDefault("binary_packages.preserve_structure", true)

	// WASM packages: carried next to the bundle by default.
	v.SetDefault("wasm_packages.strategy", "copy")
	v.SetDefault("wasm_packages.output_dir", "assets/wasm")
	v.SetDefault("wasm_packages.preserve_structure", true)

	// Asset packages: opt-in via an explicit package list.
	v.SetDefault("asset_packages.strategy", "copy")
	v.SetDefault("asset_packages.output_dir", "assets")
	v.SetDefault("asset_packages.preserve_structure", true)
	v.SetDefault("asset_packages.extensions", []string{".json", ".txt", ".xml", ".yaml", ".yml"})
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Format != "cjs" && c.Format != "esm" {
		return fmt.Errorf("format must be 'cjs' or 'esm', got %q", c.Format)
	}

	if c.OutDir == "" {
		return fmt.Errorf("out_dir must not be empty")
	}

	return nil
}
