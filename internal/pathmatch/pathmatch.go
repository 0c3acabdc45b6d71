// Package pathmatch compiles glob exclusion patterns into a matcher over
// slash-separated paths relative to a watched root.
//
// A pattern without a slash matches the base name at any depth, so "node_modules"
// or "*.{swp,tmp}" exclude those names wherever they appear. A pattern containing
// a slash is matched against the whole relative path and may use "**". A leading
// slash only anchors the pattern, and a trailing slash is ignored.
package pathmatch

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type rule struct {
	pattern  string
	basename bool
}

// Set matches a path against a list of patterns
type Set struct {
	rules []rule
}

// Compile validates patterns and returns a Set. Blank patterns and lines
// starting with "#" are skipped.
func Compile(patterns []string) (*Set, error) {
	set := &Set{}
	for _, raw := range patterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}

		anchored := strings.HasPrefix(pattern, "/")
		pattern = strings.Trim(pattern, "/")
		if pattern == "" {
			return nil, fmt.Errorf("pattern %q matches nothing", raw)
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", raw)
		}

		set.rules = append(set.rules, rule{
			pattern:  pattern,
			basename: !anchored && !strings.Contains(pattern, "/"),
		})
	}
	return set, nil
}

// MustCompile is like Compile but panics on an invalid pattern
func MustCompile(patterns ...string) *Set {
	set, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return set
}

// Match reports whether rel matches any pattern in the set.
func (s *Set) Match(rel string) bool {
	if s == nil || rel == "" {
		return false
	}
	base := path.Base(rel)
	for _, r := range s.rules {
		target := rel
		if r.basename {
			target = base
		}
		// patterns were validated in Compile
		if ok, _ := doublestar.Match(r.pattern, target); ok {
			return true
		}
	}
	return false
}

// Len returns the number of compiled patterns
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}
