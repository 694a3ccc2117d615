// Package guard implements the hint store's secret detection and
// path/glob validation, grounded on
// _examples/original_source/src/nudge/core/safety.py.
package guard

import (
	"path"
	"regexp"
	"strings"

	"github.com/ipeerbhai/nudge/internal/model"
)

// secretPatterns is the fixed battery of regular expressions checked
// against the textual projection of a hint value. Ported verbatim (modulo
// Go regexp syntax) from SafetyGuard.SECRET_PATTERNS.
var secretPatterns = []*regexp.Regexp{
	// AWS access key ids.
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Generic long hex runs (API keys, hashes).
	regexp.MustCompile(`\b[0-9a-fA-F]{32,64}\b`),
	// JWT triplets.
	regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\b`),
	// PEM private key headers.
	regexp.MustCompile(`-----BEGIN [A-Z ]+ PRIVATE KEY-----`),
	// password|token|secret assignments.
	regexp.MustCompile(`(?i)(?:password|passwd|pwd|secret|token)\s*[:=]\s*['"]?[\w\-.@]{8,}`),
	// DB connection strings with embedded credentials.
	regexp.MustCompile(`(?i)(?:mongodb|postgres|mysql|redis)://[^:]+:[^@]+@`),
}

const maxGlobPatternLength = 500

// Guard performs secret detection and path/glob validation ahead of a set.
type Guard struct {
	// Enabled mirrors NUDGE_SECRET_GUARD; when false all secret checks are
	// bypassed regardless of sensitivity/allow_secret.
	Enabled bool
}

// New returns a Guard with secret detection enabled or disabled per cfg.
func New(enabled bool) *Guard {
	return &Guard{Enabled: enabled}
}

// CheckForSecrets reports whether value appears to contain a secret, and if
// so, a human-readable reason. A declared sensitivity=secret with
// allow_secret=true bypasses the check entirely, as does a disabled guard.
func (g *Guard) CheckForSecrets(value model.HintValue, sensitivity model.Sensitivity, allowSecret bool) (bool, string) {
	if !g.Enabled {
		return false, ""
	}
	if sensitivity == model.SensitivitySecret && allowSecret {
		return false, ""
	}

	text := value.Text()
	for _, pattern := range secretPatterns {
		if pattern.MatchString(text) {
			src := pattern.String()
			if len(src) > 50 {
				src = src[:50]
			}
			return true, "potential secret detected (pattern: " + src + "...)"
		}
	}
	return false, ""
}

// ValidatePath rejects a path containing a ".." traversal segment.
func ValidatePath(p string) (bool, string) {
	for _, seg := range strings.Split(path.Clean(p), "/") {
		if seg == ".." {
			return false, "path traversal (..) not allowed"
		}
	}
	if strings.Contains(p, "..") {
		// path.Clean collapses ".." against a preceding segment, so also
		// reject any raw occurrence the clean pass may have absorbed.
		return false, "path contains suspicious traversal"
	}
	return true, ""
}

// ValidateGlobPattern rejects glob patterns that traverse outside their
// root or are unreasonably long.
func ValidateGlobPattern(pattern string) (bool, string) {
	if strings.HasPrefix(pattern, "..") {
		return false, "glob pattern cannot start with .."
	}
	if len(pattern) > maxGlobPatternLength {
		return false, "glob pattern too long (max 500 characters)"
	}
	return true, ""
}

// SanitizeForDisplay renders value for display, redacting all but the first
// and last 4 characters when isSecret is true. Supplemented from the
// original's SafetyGuard.sanitize_for_display, dropped from the distilled
// spec but kept here as a building block for any future debug surface.
func SanitizeForDisplay(value model.HintValue, isSecret bool) string {
	text := value.Text()
	if !isSecret {
		return text
	}
	if len(text) <= 8 {
		return strings.Repeat("*", len(text))
	}
	return text[:4] + strings.Repeat("*", len(text)-8) + text[len(text)-4:]
}

// ValidateHintValue runs the full pre-set validation: secret detection,
// then (for PathValue) path traversal validation, then (when scope is
// non-nil) glob-pattern validation on every cwd_glob entry. Returns
// ok=false with a reason on the first failing check.
func ValidateHintValue(g *Guard, value model.HintValue, sensitivity model.Sensitivity, allowSecret bool, scope *model.Scope) (bool, string) {
	if hasSecret, reason := g.CheckForSecrets(value, sensitivity, allowSecret); hasSecret {
		return false, reason
	}
	if pv, ok := value.(model.PathValue); ok {
		if ok, reason := ValidatePath(pv.Abs); !ok {
			return false, reason
		}
	}
	if scope != nil {
		for _, pattern := range scope.CwdGlob {
			if ok, reason := ValidateGlobPattern(pattern); !ok {
				return false, reason
			}
		}
	}
	return true, ""
}
