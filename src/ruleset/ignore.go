package ruleset

import (
	"path"
	"strings"
)

// Ignored reports whether a forward-slash path relative to the project root
// is excluded by the effective ignore patterns. Patterns are applied in
// order and the last match wins, so a later "!pattern" re-includes a path.
// A pattern without a slash matches at any depth; a trailing slash limits
// it to directories, which also excludes everything beneath them.
func (c *EffectiveConfig) Ignored(p string) bool {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	ignored := false
	for _, pattern := range c.ignorePatterns {
		negate := strings.HasPrefix(pattern, "!")
		if negate {
			pattern = pattern[1:]
		}
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if matchIgnore(pattern, p) {
			ignored = !negate
		}
	}
	return ignored
}

func matchIgnore(pattern, p string) bool {
	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")
	if !anchored {
		pattern = "**/" + pattern
	}

	// A match on any parent directory excludes everything beneath it.
	segs := strings.Split(p, "/")
	for i := 1; i <= len(segs); i++ {
		if dirOnly && i == len(segs) {
			break
		}
		if matchGlob(pattern, strings.Join(segs[:i], "/")) {
			return true
		}
	}
	return false
}

// matchGlob extends path.Match with support for "**" (zero or more path
// segments). Patterns without "**" delegate directly to path.Match.
func matchGlob(pattern, p string) bool {
	if !strings.Contains(pattern, "**") {
		matched, _ := path.Match(pattern, p)
		return matched
	}

	idx := strings.Index(pattern, "**")
	prefix := pattern[:idx]
	suffix := strings.TrimLeft(pattern[idx+2:], "/")

	// The prefix (before **) must match whole leading segments.
	if prefix != "" {
		prefix = strings.TrimRight(prefix, "/")
		n := strings.Count(prefix, "/") + 1
		segs := strings.SplitN(p, "/", n+1)
		if len(segs) < n {
			return false
		}
		if ok, _ := path.Match(prefix, strings.Join(segs[:n], "/")); !ok {
			return false
		}
		if len(segs) == n {
			p = ""
		} else {
			p = segs[n]
		}
	}

	// ** at end matches everything remaining.
	if suffix == "" {
		return true
	}

	// Try the suffix against every tail: "a/b/c", "b/c", "c".
	parts := strings.Split(p, "/")
	for i := range parts {
		if matchGlob(suffix, strings.Join(parts[i:], "/")) {
			return true
		}
	}
	return false
}
