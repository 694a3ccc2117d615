package matcher

import (
	"regexp"
	"strings"
)

// compileGlob translates a brace + globstar glob pattern (the semantics the
// original implementation gets from Python's wcmatch.glob with
// GLOBSTAR|BRACE, per
// _examples/original_source/src/nudge/core/matching.py) into a single
// anchored regular expression.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	variants := expandBraces(pattern)
	bodies := make([]string, 0, len(variants))
	for _, v := range variants {
		bodies = append(bodies, globBodyToRegex(v))
	}
	full := "^(?:" + strings.Join(bodies, "|") + ")$"
	return regexp.Compile(full)
}

// expandBraces expands `{a,b}`-style alternation groups into the cartesian
// product of literal patterns, recursing to support nesting.
func expandBraces(pattern string) []string {
	start := strings.IndexByte(pattern, '{')
	if start == -1 {
		return []string{pattern}
	}

	depth := 0
	end := -1
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		// Unbalanced brace: treat literally rather than erroring.
		return []string{pattern}
	}

	prefix := pattern[:start]
	suffix := pattern[end+1:]
	parts := splitTopLevel(pattern[start+1 : end])

	var results []string
	for _, part := range parts {
		results = append(results, expandBraces(prefix+part+suffix)...)
	}
	return results
}

// splitTopLevel splits s on commas that are not nested inside a `{}` group.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])
	return parts
}

// globBodyToRegex translates a single brace-free glob into the body (no ^$
// anchors) of an equivalent regular expression, handling `**` as a
// recursive directory wildcard and `*`/`?` as single-segment wildcards.
func globBodyToRegex(pattern string) string {
	segments := strings.Split(pattern, "/")
	pieces := make([]string, 0, len(segments))

	for idx, seg := range segments {
		if seg == "**" {
			isFirst := idx == 0
			isLast := idx == len(segments)-1
			switch {
			case isFirst && isLast:
				pieces = append(pieces, ".*")
			case isFirst:
				pieces = append(pieces, "(?:.*/)?")
			case isLast:
				pieces = append(pieces, "(?:/.*)?")
			default:
				pieces = append(pieces, "/(?:.*/)?")
			}
			continue
		}

		lit := translateSegment(seg)
		if idx == 0 {
			pieces = append(pieces, lit)
			continue
		}
		if segments[idx-1] == "**" {
			// The globstar piece already consumed the separating slash.
			pieces = append(pieces, lit)
		} else {
			pieces = append(pieces, "/"+lit)
		}
	}

	return strings.Join(pieces, "")
}

// translateSegment converts a single path segment (no `/`) containing `*`
// and `?` wildcards into a regex fragment matching within one segment.
func translateSegment(seg string) string {
	var sb strings.Builder
	for _, r := range seg {
		switch r {
		case '*':
			sb.WriteString("[^/]*")
		case '?':
			sb.WriteString("[^/]")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return sb.String()
}
