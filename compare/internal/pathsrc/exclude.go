package pathsrc

import (
	"fmt"
	"regexp"
)

// ExcludeList holds compiled exclusion patterns. Matching is
// case-insensitive and evaluated against the normalized path, so
// query-bearing and percent-decoded forms are filtered uniformly.
type ExcludeList struct {
	patterns []*regexp.Regexp
}

// CompileExcludes compiles the configured patterns. A bad pattern is a
// configuration error and fails the whole list.
func CompileExcludes(patterns []string) (*ExcludeList, error) {
	list := &ExcludeList{}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("pathsrc: exclude pattern %q: %w", p, err)
		}
		list.patterns = append(list.patterns, re)
	}
	return list, nil
}

// Match reports whether the normalized path matches any exclusion
// pattern.
func (e *ExcludeList) Match(path string) bool {
	if e == nil {
		return false
	}
	for _, re := range e.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
