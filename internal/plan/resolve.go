package plan

import (
	"github.com/rs/zerolog/log"

	"github.com/packmule-dev/packmule/internal/classify"
	"github.com/packmule-dev/packmule/internal/config"
	"github.com/packmule-dev/packmule/internal/npm"
)

// Resolve merges configuration with auto-detection into the build plan for
// the dependency tree behind resolver. deps are the project's direct
// dependency names, used when binary packages have to be detected.
//
// An explicit package list always wins verbatim over detection; there is no
// partial merge.
func Resolve(cfg *config.Config, classifier *classify.Classifier, resolver *npm.Resolver, deps []string) *Plan {
	p := &Plan{
		Binary: resolveBinary(cfg.BinaryPackages, classifier, resolver, deps),
		Wasm:   resolveWasm(cfg.WasmPackages, classifier, resolver),
		Asset:  resolveAsset(cfg.AssetPackages),
	}
	p.Externals = FinalExternals(cfg.External)
	return p
}

func resolveBinary(cc config.CategoryConfig, classifier *classify.Classifier, resolver *npm.Resolver, deps []string) CategoryPlan {
	cp := CategoryPlan{
		Category:          CategoryBinary,
		Strategy:          resolveStrategy(cc.Strategy, CategoryBinary, StrategyExternal),
		Packages:          cc.Packages,
		OutputDir:         cc.OutputDir,
		PreserveStructure: cc.PreserveStructure,
	}
	if cp.OutputDir == "" {
		if cp.PreserveStructure {
			cp.OutputDir = "node_modules"
		} else {
			cp.OutputDir = "binaries"
		}
	}
	if len(cp.Packages) == 0 && cp.Strategy != StrategyIgnore {
		cp.Packages = classifier.DetectBinaryPackages(resolver, deps)
	}
	return cp
}

func resolveWasm(cc config.CategoryConfig, classifier *classify.Classifier, resolver *npm.Resolver) CategoryPlan {
	cp := CategoryPlan{
		Category:          CategoryWasm,
		Strategy:          resolveStrategy(cc.Strategy, CategoryWasm, StrategyCopy),
		Packages:          cc.Packages,
		OutputDir:         cc.OutputDir,
		PreserveStructure: cc.PreserveStructure,
	}
	if cp.OutputDir == "" {
		cp.OutputDir = "assets/wasm"
	}
	if len(cp.Packages) == 0 && cp.Strategy != StrategyIgnore {
		cp.Packages = classifier.DetectWasmPackages(resolver.Root())
	}
	return cp
}

func resolveAsset(cc config.CategoryConfig) CategoryPlan {
	cp := CategoryPlan{
		Category:          CategoryAsset,
		Strategy:          resolveStrategy(cc.Strategy, CategoryAsset, StrategyCopy),
		Packages:          cc.Packages,
		OutputDir:         cc.OutputDir,
		PreserveStructure: cc.PreserveStructure,
		Extensions:        cc.Extensions,
	}
	if cp.OutputDir == "" {
		cp.OutputDir = "assets"
	}
	if len(cp.Extensions) == 0 {
		cp.Extensions = []string{".json", ".txt", ".xml", ".yaml", ".yml"}
	}
	// Asset packages cannot be auto-detected; without an explicit list the
	// category does nothing.
	if len(cp.Packages) == 0 && cp.Strategy != StrategyIgnore {
		log.Debug().Msg("No asset packages configured, skipping asset handling")
	}
	return cp
}

func resolveStrategy(raw string, cat Category, def Strategy) Strategy {
	s := def
	if raw != "" {
		s = ParseStrategy(raw, cat)
	}
	if s == StrategyInline {
		log.Debug().Str("category", cat.String()).Msg("Inline strategy degrades to copy")
		s = StrategyCopy
	}
	return s
}
