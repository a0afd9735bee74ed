package plan

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/packmule-dev/packmule/internal/classify"
	"github.com/packmule-dev/packmule/internal/npm"
)

// Category partitions special dependency files by what keeps them out of a
// JS bundle: native code, WebAssembly modules, or plain data files.
type Category int

const (
	CategoryBinary Category = iota
	CategoryWasm
	CategoryAsset
)

func (c Category) String() string {
	switch c {
	case CategoryBinary:
		return "binary"
	case CategoryWasm:
		return "wasm"
	case CategoryAsset:
		return "asset"
	}
	return "unknown"
}

// Strategy selects how a category's packages reach the output artifact.
type Strategy int

const (
	// StrategyCopy materializes matching files under the output tree and
	// marks the package external; code still imports it at runtime, from
	// the copied location.
	StrategyCopy Strategy = iota

	// StrategyExternal marks the package external without copying; the
	// deployment environment provides it.
	StrategyExternal

	// StrategyIgnore leaves the package to default bundling.
	StrategyIgnore

	// StrategyInline asks for direct embedding; compiled code and data
	// blobs cannot be textually inlined, so it degrades to copy during
	// plan resolution.
	StrategyInline
)

func (s Strategy) String() string {
	switch s {
	case StrategyCopy:
		return "copy"
	case StrategyExternal:
		return "external"
	case StrategyIgnore:
		return "ignore"
	case StrategyInline:
		return "inline"
	}
	return "unknown"
}

// ParseStrategy maps a configuration string to a Strategy. Unrecognized
// values become ignore with a warning, so a typo disables special handling
// loudly instead of borrowing another strategy's behavior.
func ParseStrategy(raw string, cat Category) Strategy {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "copy":
		return StrategyCopy
	case "external":
		return StrategyExternal
	case "ignore":
		return StrategyIgnore
	case "inline":
		return StrategyInline
	default:
		log.Warn().
			Str("strategy", raw).
			Str("category", cat.String()).
			Msg("Unknown strategy, treating as ignore")
		return StrategyIgnore
	}
}

// CategoryPlan is the resolved handling for one category.
type CategoryPlan struct {
	Category          Category
	Strategy          Strategy
	Packages          []string
	OutputDir         string
	PreserveStructure bool
	Extensions        []string
}

// MatchFile reports whether rel, a forward-slash path inside a package
// directory, is one of the files this category carries to the output.
func (cp CategoryPlan) MatchFile(rel string) bool {
	switch cp.Category {
	case CategoryBinary:
		return classify.IsBinaryPath(rel)
	case CategoryWasm:
		return classify.IsWasmPath(rel)
	case CategoryAsset:
		return classify.HasExtension(rel, cp.Extensions)
	}
	return false
}

// ScanDepth is how deep package directories are enumerated for this
// category's files.
func (cp CategoryPlan) ScanDepth() int {
	if cp.Category == CategoryWasm {
		return npm.WasmScanDepth
	}
	return npm.DefaultScanDepth
}

// Plan is the full bundling strategy for one build: the per-category plans
// plus the user-configured extra externals.
type Plan struct {
	Binary CategoryPlan
	Wasm   CategoryPlan
	Asset  CategoryPlan

	Externals []string
}

// Categories returns the per-category plans in materialization order.
func (p *Plan) Categories() []CategoryPlan {
	return []CategoryPlan{p.Binary, p.Wasm, p.Asset}
}

// ProjectedExternals returns the external list a build with this plan would
// produce, assuming every listed package resolves. Copy and external
// strategies both leave their packages unresolved in the bundle.
func (p *Plan) ProjectedExternals() []string {
	lists := make([][]string, 0, 3)
	for _, cp := range p.Categories() {
		if cp.Strategy == StrategyCopy || cp.Strategy == StrategyExternal {
			lists = append(lists, cp.Packages)
		}
	}
	return FinalExternals(p.Externals, lists...)
}

// FinalExternals merges the configured externals with the package names the
// materializer marked external. Node builtins are dropped since the engine
// already externalizes them for platform=node. The result is sorted and
// deduplicated.
func FinalExternals(configured []string, materialized ...[]string) []string {
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, name := range names {
			if name == "" {
				continue
			}
			if npm.IsBuiltin(name) {
				log.Debug().Str("module", name).Msg("Dropping Node builtin from externals")
				continue
			}
			seen[name] = true
		}
	}

	add(configured)
	for _, names := range materialized {
		add(names)
	}

	externals := make([]string, 0, len(seen))
	for name := range seen {
		externals = append(externals, name)
	}
	sort.Strings(externals)
	return externals
}
