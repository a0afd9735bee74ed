package detect

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/packmule-dev/packmule/internal/npm"
)

// Framework is a server-framework preset: the dependency name that marks
// it and the entry points its project templates conventionally use.
type Framework struct {
	Package     string
	DisplayName string
	Entries     []string
}

// frameworks holds the presets, checked in order. The first framework found
// in the project's dependencies wins.
var frameworks = []Framework{
	{
		Package:     "@nestjs/core",
		DisplayName: "NestJS",
		Entries:     []string{"src/main.ts", "src/main.js"},
	},
	{
		Package:     "fastify",
		DisplayName: "Fastify",
		Entries:     []string{"src/app.ts", "src/app.js", "app.js"},
	},
	{
		Package:     "express",
		DisplayName: "Express",
		Entries:     []string{"src/app.ts", "src/app.js", "app.js", "bin/www"},
	},
	{
		Package:     "koa",
		DisplayName: "Koa",
		Entries:     []string{"src/app.ts", "src/app.js", "app.js"},
	},
	{
		Package:     "@hapi/hapi",
		DisplayName: "hapi",
		Entries:     []string{"src/server.ts", "src/server.js", "server.js"},
	},
	{
		Package:     "hono",
		DisplayName: "Hono",
		Entries:     []string{"src/index.ts", "src/index.js"},
	},
	{
		Package:     "restify",
		DisplayName: "Restify",
		Entries:     []string{"src/server.ts", "src/server.js", "server.js"},
	},
}

// fallbackEntries are tried last, whatever the framework.
var fallbackEntries = []string{
	"src/index.ts",
	"src/index.js",
	"src/server.ts",
	"src/server.js",
	"index.ts",
	"index.js",
	"server.js",
	"app.js",
}

// Result is what detection learned about a project. Entry is empty when no
// entry point could be found.
type Result struct {
	Framework *Framework
	Entry     string
}

// FrameworkName returns the display name of the detected framework, or ""
// when none was recognized.
func (r *Result) FrameworkName() string {
	if r.Framework == nil {
		return ""
	}
	return r.Framework.DisplayName
}

// Detect inspects the project at dir. An explicit entryOverride is used
// verbatim; otherwise the entry is taken from package.json main when that
// file exists, then from framework candidates, then from the common
// fallbacks.
func Detect(dir, entryOverride string) *Result {
	result := &Result{}

	pkg, err := npm.ReadPackageJSON(dir)
	if err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("No readable package.json")
	} else {
		for i := range frameworks {
			if pkg.HasDependency(frameworks[i].Package) {
				result.Framework = &frameworks[i]
				log.Debug().Str("framework", frameworks[i].DisplayName).Msg("Detected framework")
				break
			}
		}
	}

	if entryOverride != "" {
		result.Entry = entryOverride
		return result
	}

	if pkg != nil && pkg.Main != "" && fileExists(filepath.Join(dir, pkg.Main)) {
		result.Entry = pkg.Main
		return result
	}

	var candidates []string
	if result.Framework != nil {
		candidates = append(candidates, result.Framework.Entries...)
	}
	candidates = append(candidates, fallbackEntries...)

	for _, candidate := range candidates {
		if fileExists(filepath.Join(dir, candidate)) {
			result.Entry = candidate
			return result
		}
	}

	return result
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
