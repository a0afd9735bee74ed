package classify

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/packmule-dev/packmule/internal/npm"
)

// knownBinaryPackages lists common native-addon packages. Name lookup runs
// before any directory scan, so these classify as binary even when the
// compiled artifact only appears after a postinstall step.
var knownBinaryPackages = map[string]bool{
	"argon2":                true,
	"bcrypt":                true,
	"better-sqlite3":        true,
	"bufferutil":            true,
	"canvas":                true,
	"couchbase":             true,
	"cpu-features":          true,
	"fsevents":              true,
	"kerberos":              true,
	"keytar":                true,
	"leveldown":             true,
	"msgpackr-extract":      true,
	"node-pty":              true,
	"onnxruntime-node":      true,
	"oracledb":              true,
	"re2":                   true,
	"rocksdb":               true,
	"serialport":            true,
	"sharp":                 true,
	"snappy":                true,
	"sodium-native":         true,
	"sqlite3":               true,
	"ssh2":                  true,
	"usb":                   true,
	"utf-8-validate":        true,
	"@tensorflow/tfjs-node": true,
}

var binaryExtensions = []string{".node", ".so", ".dll", ".dylib", ".exe"}

// Versioned shared objects like libvips.so.42 or libcrypto.so.1.1.
var versionedSharedObject = regexp.MustCompile(`\.so(\.\d+)+$`)

// Directory trees excluded from WASM auto-detection; fixtures and demos
// routinely carry .wasm files the application never loads.
var excludedWasmSegments = []string{"test", "tests", "example", "examples"}

// IsKnownBinary reports whether name is on the native-addon allow-list.
func IsKnownBinary(name string) bool {
	return knownBinaryPackages[name]
}

// BinaryExtensions returns the file extensions that mark compiled
// artifacts. The returned slice is a copy.
func BinaryExtensions() []string {
	return append([]string(nil), binaryExtensions...)
}

// IsBinaryPath reports whether rel, a forward-slash path inside a package
// directory, names a compiled artifact or native build output.
func IsBinaryPath(rel string) bool {
	if path.Base(rel) == "binding.gyp" {
		return true
	}
	for _, ext := range binaryExtensions {
		if strings.HasSuffix(rel, ext) {
			return true
		}
	}
	if versionedSharedObject.MatchString(rel) {
		return true
	}
	slashed := "/" + rel
	return strings.Contains(slashed, "/prebuilds/") || strings.Contains(slashed, "/build/Release/")
}

// IsWasmPath reports whether rel names a WebAssembly module.
func IsWasmPath(rel string) bool {
	return strings.HasSuffix(rel, ".wasm")
}

// HasExtension reports whether rel's extension appears in exts. Matching is
// case-sensitive and includes the leading dot, exactly as configured.
func HasExtension(rel string, exts []string) bool {
	ext := path.Ext(rel)
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func inExcludedTree(rel string) bool {
	for _, segment := range strings.Split(path.Dir(rel), "/") {
		for _, excluded := range excludedWasmSegments {
			if segment == excluded {
				return true
			}
		}
	}
	return false
}

// Classifier decides which categories a package belongs to by name lookup
// and bounded file-pattern scans.
type Classifier struct {
	walker *npm.Walker
}

func New(walker *npm.Walker) *Classifier {
	return &Classifier{walker: walker}
}

// IsBinaryPackage reports whether the package at dir ships native code.
func (c *Classifier) IsBinaryPackage(name, dir string) bool {
	if IsKnownBinary(name) {
		return true
	}
	for _, rel := range c.walker.EnumerateFiles(dir, npm.DefaultScanDepth) {
		if IsBinaryPath(rel) {
			return true
		}
	}
	return false
}

// IsWasmPackage reports whether the package at dir ships a WebAssembly
// module outside its test and example trees.
func (c *Classifier) IsWasmPackage(dir string) bool {
	for _, rel := range c.walker.EnumerateFiles(dir, npm.WasmScanDepth) {
		if IsWasmPath(rel) && !inExcludedTree(rel) {
			return true
		}
	}
	return false
}

// DetectBinaryPackages returns the sorted names of dependencies that ship
// native code: allow-listed packages present anywhere in the tree, plus any
// of the given dependencies whose directory scan finds binary artifacts.
func (c *Classifier) DetectBinaryPackages(resolver *npm.Resolver, deps []string) []string {
	seen := make(map[string]bool)

	for name := range knownBinaryPackages {
		if _, ok := resolver.Resolve(name); ok {
			seen[name] = true
		}
	}

	for _, dep := range deps {
		if seen[dep] {
			continue
		}
		pkg, ok := resolver.Resolve(dep)
		if !ok {
			continue
		}
		if c.IsBinaryPackage(dep, pkg.Dir) {
			seen[dep] = true
		}
	}

	names := setToSorted(seen)
	log.Debug().Strs("packages", names).Msg("Detected binary packages")
	return names
}

// DetectWasmPackages scans the whole dependency tree for WebAssembly
// modules and returns the sorted names of the packages that own them.
func (c *Classifier) DetectWasmPackages(root string) []string {
	seen := make(map[string]bool)

	for _, rel := range c.walker.EnumerateFiles(root, npm.WasmScanDepth) {
		if !IsWasmPath(rel) || inExcludedTree(rel) {
			continue
		}
		if name, ok := npm.OwnerFromPath(rel); ok {
			seen[name] = true
		}
	}

	names := setToSorted(seen)
	log.Debug().Strs("packages", names).Msg("Detected WASM packages")
	return names
}

func setToSorted(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
