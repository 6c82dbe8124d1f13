package main

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// LineFilter restricts which JSON log lines are parsed, matched against the
// envelope's logger_name. Plain-text lines carry no logger name and always
// pass.
type LineFilter struct {
	patterns    []string
	loggerGlobs []glob.Glob
}

// NewLineFilter compiles a set of glob patterns, e.g.
// ["com.acme.dispatch.*", "*Callback*"]. An empty set matches everything.
func NewLineFilter(patterns []string) (*LineFilter, error) {
	filter := &LineFilter{}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid logger pattern %q: %w", pattern, err)
		}
		filter.patterns = append(filter.patterns, pattern)
		filter.loggerGlobs = append(filter.loggerGlobs, g)
	}

	return filter, nil
}

// MatchLogger reports whether a logger name passes the filter.
func (f *LineFilter) MatchLogger(name string) bool {
	if len(f.loggerGlobs) == 0 {
		return true
	}
	for _, g := range f.loggerGlobs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
