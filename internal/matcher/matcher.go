// Package matcher implements scope-eligibility evaluation for the hint
// store, grounded on
// _examples/original_source/src/nudge/core/matching.py. Compiled glob
// matchers are cached with an LRU, the same caching idiom the teacher uses
// for its L1 template cache in
// _examples/ipiton-alert-history-service/go-app/internal/infrastructure/template/cache.go,
// repurposed here to avoid recompiling cwd_glob patterns on every
// is_eligible call.
package matcher

import (
	"fmt"
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ipeerbhai/nudge/internal/model"
)

const defaultGlobCacheSize = 1024

// Matcher evaluates scope predicates against a runtime context.
type Matcher struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

// New creates a Matcher with an LRU of the given capacity for compiled glob
// patterns. A non-positive size falls back to defaultGlobCacheSize.
func New(cacheSize int) *Matcher {
	if cacheSize <= 0 {
		cacheSize = defaultGlobCacheSize
	}
	c, err := lru.New[string, *regexp.Regexp](cacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which we already
		// guarded against above.
		panic(fmt.Sprintf("matcher: unexpected LRU init error: %v", err))
	}
	return &Matcher{cache: c}
}

func (m *Matcher) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := m.cache.Get(pattern); ok {
		return re, nil
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return nil, err
	}
	m.cache.Add(pattern, re)
	return re, nil
}

// IsEligible reports whether hint is eligible under context, and the
// human-readable reasons behind that verdict. All scope conditions present
// must hold; any present condition whose referenced context field is absent
// is skipped except env_required/env_match, which require context.Env
// itself to be present.
func (m *Matcher) IsEligible(hint model.Hint, ctx model.Context) (bool, []string) {
	scope := hint.Meta.Scope
	if scope.IsZero() {
		return true, []string{"no scope restrictions"}
	}

	var reasons []string

	if len(scope.CwdGlob) > 0 && ctx.Cwd != "" {
		ok, pattern := m.matchCwdGlob(scope.CwdGlob, ctx.Cwd)
		if !ok {
			return false, nil
		}
		if pattern != "" {
			reasons = append(reasons, fmt.Sprintf("cwd matched %s", pattern))
		}
	}

	if len(scope.Repo) > 0 && ctx.Repo != "" {
		if !scope.Repo.Contains(ctx.Repo) {
			return false, nil
		}
		reasons = append(reasons, "repo matched")
	}

	if len(scope.Branch) > 0 && ctx.Branch != "" {
		found := false
		for _, b := range scope.Branch {
			if b == ctx.Branch {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
		reasons = append(reasons, fmt.Sprintf("branch=%s allowed", ctx.Branch))
	}

	if len(scope.OS) > 0 && ctx.OS != "" {
		found := false
		for _, o := range scope.OS {
			if o == ctx.OS {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
		reasons = append(reasons, fmt.Sprintf("os=%s matched", ctx.OS))
	}

	if len(scope.EnvRequired) > 0 && ctx.Env != nil {
		for _, name := range scope.EnvRequired {
			if _, ok := ctx.Env[name]; !ok {
				return false, nil
			}
		}
		reasons = append(reasons, fmt.Sprintf("required env vars present: %s", joinComma(scope.EnvRequired)))
	}

	if len(scope.EnvMatch) > 0 && ctx.Env != nil {
		for key, expected := range scope.EnvMatch {
			actual, ok := ctx.Env[key]
			if !ok || actual == nil {
				return false, nil
			}
			if !expected.Contains(*actual) {
				return false, nil
			}
		}
		reasons = append(reasons, "env values matched")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "all scope conditions matched")
	}
	return true, reasons
}

func (m *Matcher) matchCwdGlob(patterns []string, cwd string) (bool, string) {
	for _, pattern := range patterns {
		re, err := m.compile(pattern)
		if err != nil {
			continue
		}
		if re.MatchString(cwd) {
			return true, pattern
		}
	}
	return false, ""
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// CountScopeSpecificity counts how many scope conditions are specified,
// weighting env_required/env_match by the number of variables they name.
// Ported from Matcher.count_scope_specificity.
func CountScopeSpecificity(scope *model.Scope) int {
	if scope.IsZero() {
		return 0
	}
	count := 0
	if len(scope.CwdGlob) > 0 {
		count++
	}
	if len(scope.Repo) > 0 {
		count++
	}
	if len(scope.Branch) > 0 {
		count++
	}
	if len(scope.OS) > 0 {
		count++
	}
	count += len(scope.EnvRequired)
	count += len(scope.EnvMatch)
	return count
}
