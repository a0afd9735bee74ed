package rewrite

import (
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
)

// codeFileFilter selects the source files the rewriter inspects during the
// engine's load phase.
const codeFileFilter = `\.(js|jsx|ts|tsx|mjs|cjs)$`

// Plugin adapts the rewriter to the engine's load phase. Each callback
// reads one source file and either returns nothing, letting the engine
// load the file itself, or the rewritten text with the original loader so
// TypeScript stays TypeScript.
func (r *Rewriter) Plugin() api.Plugin {
	return api.Plugin{
		Name: "packmule-rewrite",
		Setup: func(build api.PluginBuild) {
			if len(r.rules) == 0 {
				return
			}
			build.OnLoad(api.OnLoadOptions{Filter: codeFileFilter}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
				data, err := os.ReadFile(args.Path)
				if err != nil {
					return api.OnLoadResult{}, err
				}

				text, changed := r.Rewrite(args.Path, string(data))
				if !changed {
					return api.OnLoadResult{}, nil
				}
				return api.OnLoadResult{
					Contents: &text,
					Loader:   loaderForPath(args.Path),
				}, nil
			})
		},
	}
}

func loaderForPath(path string) api.Loader {
	switch filepath.Ext(path) {
	case ".ts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	case ".jsx":
		return api.LoaderJSX
	default:
		return api.LoaderJS
	}
}
