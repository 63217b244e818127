// Package rules implements the grouping rules used to classify calendar
// events by summary. A rule is written as /pattern/replacement/flags:
// events whose summary matches pattern are grouped under replacement.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is a single compiled grouping rule.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Set is an ordered list of rules. The first matching rule wins.
type Set struct {
	rules []Rule
}

// Parse compiles a list of /pattern/replacement/flags specs into a Set.
// Supported flags are "i" (case-insensitive) and "s" (dot matches
// newline). A spec without a trailing slash or flags is also accepted,
// e.g. /Standup.*/Meetings.
func Parse(specs []string) (*Set, error) {
	s := &Set{}
	for _, spec := range specs {
		r, err := parseOne(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec, err)
		}
		s.rules = append(s.rules, r)
	}
	return s, nil
}

func parseOne(spec string) (Rule, error) {
	if !strings.HasPrefix(spec, "/") {
		return Rule{}, fmt.Errorf("must start with '/'")
	}
	parts := strings.Split(spec[1:], "/")
	if len(parts) < 2 || len(parts) > 3 {
		return Rule{}, fmt.Errorf("expected /pattern/replacement/flags")
	}

	pattern, replacement := parts[0], parts[1]
	if pattern == "" {
		return Rule{}, fmt.Errorf("empty pattern")
	}
	if replacement == "" {
		return Rule{}, fmt.Errorf("empty replacement")
	}

	var flags string
	if len(parts) == 3 {
		flags = parts[2]
	}
	for _, f := range flags {
		switch f {
		case 'i', 's':
		default:
			return Rule{}, fmt.Errorf("unsupported flag %q", string(f))
		}
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("invalid pattern: %w", err)
	}
	return Rule{Pattern: re, Replacement: replacement}, nil
}

// Empty reports whether the set contains no rules.
func (s *Set) Empty() bool {
	return len(s.rules) == 0
}

// Len returns the number of rules in the set.
func (s *Set) Len() int {
	return len(s.rules)
}

// Label returns the group label for an event summary: the replacement of
// the first rule whose pattern matches at the start of the summary, or
// the summary itself when no rule matches.
func (s *Set) Label(summary string) string {
	for _, r := range s.rules {
		if matchesAtStart(r.Pattern, summary) {
			return r.Replacement
		}
	}
	return summary
}

// Matches reports whether any rule in the set matches the summary.
func (s *Set) Matches(summary string) bool {
	for _, r := range s.rules {
		if matchesAtStart(r.Pattern, summary) {
			return true
		}
	}
	return false
}

// matchesAtStart anchors the match at the beginning of the string. The
// leftmost match of an RE2 pattern starts at index 0 exactly when a
// match anchored there exists.
func matchesAtStart(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}
