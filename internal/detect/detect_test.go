package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProjectFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDetectFrameworkFromDependencies(t *testing.T) {
	tests := []struct {
		name      string
		deps      string
		framework string
	}{
		{name: "express", deps: `{"express": "^4.19.0"}`, framework: "Express"},
		{name: "fastify", deps: `{"fastify": "^4.26.0"}`, framework: "Fastify"},
		{name: "nest", deps: `{"@nestjs/core": "^10.0.0", "express": "^4.19.0"}`, framework: "NestJS"},
		{name: "hono", deps: `{"hono": "^4.0.0"}`, framework: "Hono"},
		{name: "none", deps: `{"lodash": "^4.17.0"}`, framework: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeProjectFile(t, filepath.Join(dir, "package.json"), `{"name": "app", "dependencies": `+tt.deps+`}`)

			result := Detect(dir, "")
			assert.Equal(t, tt.framework, result.FrameworkName())
		})
	}
}

func TestDetectEntryOverrideWinsVerbatim(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, filepath.Join(dir, "package.json"), `{"main": "lib/main.js"}`)
	writeProjectFile(t, filepath.Join(dir, "lib", "main.js"), "")

	result := Detect(dir, "custom/entry.ts")
	assert.Equal(t, "custom/entry.ts", result.Entry)
}

func TestDetectEntryFromMainField(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, filepath.Join(dir, "package.json"), `{"main": "lib/main.js"}`)
	writeProjectFile(t, filepath.Join(dir, "lib", "main.js"), "")
	// A fallback candidate also exists but main wins.
	writeProjectFile(t, filepath.Join(dir, "src", "index.js"), "")

	result := Detect(dir, "")
	assert.Equal(t, "lib/main.js", result.Entry)
}

func TestDetectIgnoresDanglingMainField(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, filepath.Join(dir, "package.json"), `{"main": "dist/built.js"}`)
	writeProjectFile(t, filepath.Join(dir, "src", "index.ts"), "")

	result := Detect(dir, "")
	assert.Equal(t, "src/index.ts", result.Entry)
}

func TestDetectFrameworkCandidatesBeforeFallbacks(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, filepath.Join(dir, "package.json"), `{"dependencies": {"@nestjs/core": "^10.0.0"}}`)
	writeProjectFile(t, filepath.Join(dir, "src", "main.ts"), "")
	writeProjectFile(t, filepath.Join(dir, "src", "index.ts"), "")

	result := Detect(dir, "")
	assert.Equal(t, "NestJS", result.FrameworkName())
	assert.Equal(t, "src/main.ts", result.Entry)
}

func TestDetectFallbackEntries(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, filepath.Join(dir, "server.js"), "")

	result := Detect(dir, "")
	assert.Nil(t, result.Framework)
	assert.Equal(t, "server.js", result.Entry)
}

func TestDetectNothingFound(t *testing.T) {
	result := Detect(t.TempDir(), "")
	assert.Nil(t, result.Framework)
	assert.Empty(t, result.Entry)
}
