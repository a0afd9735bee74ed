package npm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBuiltin(t *testing.T) {
	tests := []struct {
		name     string
		module   string
		expected bool
	}{
		{name: "bare core module", module: "fs", expected: true},
		{name: "node scheme", module: "node:fs", expected: true},
		{name: "subpath import", module: "fs/promises", expected: true},
		{name: "node scheme with subpath", module: "node:stream/web", expected: true},
		{name: "worker threads", module: "worker_threads", expected: true},
		{name: "npm package", module: "lodash", expected: false},
		{name: "scoped package", module: "@fastify/static", expected: false},
		{name: "framework", module: "express", expected: false},
		{name: "empty", module: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsBuiltin(tt.module))
		})
	}
}
