package rewrite

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/packmule-dev/packmule/internal/assets"
	"github.com/packmule-dev/packmule/internal/classify"
	"github.com/packmule-dev/packmule/internal/plan"
)

// rule pairs one copy-strategy category with the literal pattern for its
// file extensions.
type rule struct {
	cp plan.CategoryPlan
	re *regexp.Regexp
}

// Rewriter rewrites string literals that point into node_modules at files
// the materializer carried into the output tree. It is pure text
// transformation over pre-computed state, safe to call from the engine's
// concurrent load callbacks.
type Rewriter struct {
	rules []rule
}

// New derives one rewrite rule per category with an active copy strategy.
// Target paths come from assets.TargetRelPath, the same function the
// materializer used, so rewritten references match the physical copies.
func New(p *plan.Plan) *Rewriter {
	var rules []rule
	for _, cp := range p.Categories() {
		if cp.Strategy != plan.StrategyCopy {
			continue
		}
		exts := patternExtensions(cp)
		if len(exts) == 0 {
			continue
		}
		rules = append(rules, rule{cp: cp, re: literalPattern(exts)})
	}
	return &Rewriter{rules: rules}
}

func patternExtensions(cp plan.CategoryPlan) []string {
	switch cp.Category {
	case plan.CategoryBinary:
		return classify.BinaryExtensions()
	case plan.CategoryWasm:
		return []string{".wasm"}
	case plan.CategoryAsset:
		return cp.Extensions
	}
	return nil
}

// literalPattern matches a quoted literal whose path ends in one of the
// given extensions and crosses a node_modules segment. The prefix group is
// empty or slash-terminated, so node_modules only matches as a whole path
// segment and a lookalike directory name earlier in the literal cannot
// absorb the real one. Submatches: opening quote, prefix, package name
// (optionally scoped), package-relative path, closing quote. Quote pairing
// is checked by the caller since the regexp engine has no backreferences.
func literalPattern(exts []string) *regexp.Regexp {
	quoted := make([]string, len(exts))
	for i, ext := range exts {
		quoted[i] = regexp.QuoteMeta(ext)
	}
	pattern := "(['\"`])((?:[^'\"`]*?/)?)node_modules/((?:@[^'\"`/]+/)?[^'\"`/]+)/([^'\"`]+?(?:" +
		strings.Join(quoted, "|") + "))(['\"`])"
	return regexp.MustCompile(pattern)
}

// Rewrite scans source for literals referencing copied dependency files and
// redirects them to the materialized output location. Text outside matching
// literals is preserved byte-for-byte. The boolean reports whether anything
// changed; file is used for logging only.
func (r *Rewriter) Rewrite(file, source string) (string, bool) {
	text := source
	changed := false

	for _, rl := range r.rules {
		text = rl.re.ReplaceAllStringFunc(text, func(match string) string {
			parts := rl.re.FindStringSubmatch(match)
			if parts == nil {
				return match
			}
			opening, pkg, rest, closing := parts[1], parts[3], parts[4], parts[5]

			if opening != closing {
				return match
			}

			replacement := opening + "./" + assets.TargetRelPath(rl.cp, pkg, rest) + closing
			if replacement == match {
				return match
			}
			changed = true
			return replacement
		})
	}

	if changed {
		log.Debug().Str("file", file).Msg("Rewrote asset references")
	}
	return text, changed
}
