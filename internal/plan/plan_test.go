package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packmule-dev/packmule/internal/classify"
	"github.com/packmule-dev/packmule/internal/config"
	"github.com/packmule-dev/packmule/internal/npm"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Strategy
	}{
		{name: "copy", raw: "copy", expected: StrategyCopy},
		{name: "external", raw: "external", expected: StrategyExternal},
		{name: "ignore", raw: "ignore", expected: StrategyIgnore},
		{name: "inline", raw: "inline", expected: StrategyInline},
		{name: "mixed case", raw: "Copy", expected: StrategyCopy},
		{name: "surrounding whitespace", raw: " external ", expected: StrategyExternal},
		{name: "unknown value", raw: "embed", expected: StrategyIgnore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStrategy(tt.raw, CategoryWasm))
		})
	}
}

func TestCategoryPlanMatchFile(t *testing.T) {
	binary := CategoryPlan{Category: CategoryBinary}
	assert.True(t, binary.MatchFile("build/Release/addon.node"))
	assert.False(t, binary.MatchFile("lib/index.js"))

	wasm := CategoryPlan{Category: CategoryWasm}
	assert.True(t, wasm.MatchFile("lib/mod.wasm"))
	assert.False(t, wasm.MatchFile("lib/mod.js"))

	asset := CategoryPlan{Category: CategoryAsset, Extensions: []string{".json"}}
	assert.True(t, asset.MatchFile("data/zones.json"))
	assert.False(t, asset.MatchFile("data/zones.yaml"))
}

func TestCategoryPlanScanDepth(t *testing.T) {
	assert.Equal(t, npm.DefaultScanDepth, CategoryPlan{Category: CategoryBinary}.ScanDepth())
	assert.Equal(t, npm.WasmScanDepth, CategoryPlan{Category: CategoryWasm}.ScanDepth())
	assert.Equal(t, npm.DefaultScanDepth, CategoryPlan{Category: CategoryAsset}.ScanDepth())
}

func TestFinalExternals(t *testing.T) {
	externals := FinalExternals(
		[]string{"zlib-sync", "fs", "aws-sdk", "node:crypto"},
		[]string{"sharp", "aws-sdk"},
		[]string{"tiktoken", ""},
	)
	assert.Equal(t, []string{"aws-sdk", "sharp", "tiktoken", "zlib-sync"}, externals)
}

func TestProjectedExternals(t *testing.T) {
	p := &Plan{
		Binary: CategoryPlan{Category: CategoryBinary, Strategy: StrategyExternal, Packages: []string{"sharp"}},
		Wasm:   CategoryPlan{Category: CategoryWasm, Strategy: StrategyCopy, Packages: []string{"tiktoken"}},
		Asset:  CategoryPlan{Category: CategoryAsset, Strategy: StrategyIgnore, Packages: []string{"geo-tz"}},

		Externals: []string{"aws-sdk"},
	}

	// Ignored categories contribute nothing; copy and external both do.
	assert.Equal(t, []string{"aws-sdk", "sharp", "tiktoken"}, p.ProjectedExternals())
}

func testConfig() *config.Config {
	return &config.Config{
		Format: "cjs",
		OutDir: "dist",
		BinaryPackages: config.CategoryConfig{
			Strategy:          "external",
			PreserveStructure: true,
		},
		WasmPackages: config.CategoryConfig{
			Strategy:          "copy",
			OutputDir:         "assets/wasm",
			PreserveStructure: true,
		},
		AssetPackages: config.CategoryConfig{
			Strategy:          "copy",
			OutputDir:         "assets",
			PreserveStructure: true,
			Extensions:        []string{".json", ".txt", ".xml", ".yaml", ".yml"},
		},
	}
}

func writeTreeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("fixture"), 0644))
}

func resolveFixture(t *testing.T, cfg *config.Config, root string, deps []string) *Plan {
	t.Helper()
	walker := npm.NewWalker()
	return Resolve(cfg, classify.New(walker), npm.NewResolver(root), deps)
}

func TestResolveDefaults(t *testing.T) {
	p := resolveFixture(t, testConfig(), t.TempDir(), nil)

	assert.Equal(t, StrategyExternal, p.Binary.Strategy)
	assert.Equal(t, "node_modules", p.Binary.OutputDir)
	assert.True(t, p.Binary.PreserveStructure)
	assert.Empty(t, p.Binary.Packages)

	assert.Equal(t, StrategyCopy, p.Wasm.Strategy)
	assert.Equal(t, "assets/wasm", p.Wasm.OutputDir)
	assert.Empty(t, p.Wasm.Packages)

	assert.Equal(t, StrategyCopy, p.Asset.Strategy)
	assert.Equal(t, "assets", p.Asset.OutputDir)
	assert.Equal(t, []string{".json", ".txt", ".xml", ".yaml", ".yml"}, p.Asset.Extensions)

	assert.Empty(t, p.Externals)
}

func TestResolveAutoDetection(t *testing.T) {
	root := t.TempDir()
	writeTreeFile(t, filepath.Join(root, "sharp", "package.json"))
	writeTreeFile(t, filepath.Join(root, "native-lib", "prebuilds", "linux-x64", "addon.node"))
	writeTreeFile(t, filepath.Join(root, "tiktoken", "lite", "tiktoken_bg.wasm"))

	p := resolveFixture(t, testConfig(), root, []string{"native-lib"})

	assert.Equal(t, []string{"native-lib", "sharp"}, p.Binary.Packages)
	assert.Equal(t, []string{"tiktoken"}, p.Wasm.Packages)
}

func TestResolveExplicitPackagesWinVerbatim(t *testing.T) {
	root := t.TempDir()
	writeTreeFile(t, filepath.Join(root, "sharp", "package.json"))
	writeTreeFile(t, filepath.Join(root, "tiktoken", "lite", "tiktoken_bg.wasm"))

	cfg := testConfig()
	cfg.BinaryPackages.Packages = []string{"onnxruntime-node"}
	cfg.WasmPackages.Packages = []string{"@dqbd/tiktoken"}

	p := resolveFixture(t, cfg, root, nil)

	// No partial merge with detection results.
	assert.Equal(t, []string{"onnxruntime-node"}, p.Binary.Packages)
	assert.Equal(t, []string{"@dqbd/tiktoken"}, p.Wasm.Packages)
}

func TestResolveUnknownStrategyDisablesDetection(t *testing.T) {
	root := t.TempDir()
	writeTreeFile(t, filepath.Join(root, "tiktoken", "lite", "tiktoken_bg.wasm"))

	cfg := testConfig()
	cfg.WasmPackages.Strategy = "embed"

	p := resolveFixture(t, cfg, root, nil)

	assert.Equal(t, StrategyIgnore, p.Wasm.Strategy)
	assert.Empty(t, p.Wasm.Packages)
}

func TestResolveInlineDegradesToCopy(t *testing.T) {
	cfg := testConfig()
	cfg.WasmPackages.Strategy = "inline"

	p := resolveFixture(t, cfg, t.TempDir(), nil)
	assert.Equal(t, StrategyCopy, p.Wasm.Strategy)
}

func TestResolveFlattenedBinaryOutputDir(t *testing.T) {
	cfg := testConfig()
	cfg.BinaryPackages.PreserveStructure = false

	p := resolveFixture(t, cfg, t.TempDir(), nil)
	assert.Equal(t, "binaries", p.Binary.OutputDir)
}

func TestResolveFiltersConfiguredBuiltins(t *testing.T) {
	cfg := testConfig()
	cfg.External = []string{"fs", "aws-sdk", "node:path"}

	p := resolveFixture(t, cfg, t.TempDir(), nil)
	assert.Equal(t, []string{"aws-sdk"}, p.Externals)
}
