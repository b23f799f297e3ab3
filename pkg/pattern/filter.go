package pattern

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/praetorian-inc/wildscan/pkg/types"
)

// FilterConfig selects patterns by ID. Include is applied first; an empty
// Include keeps everything.
type FilterConfig struct {
	Include []string // regexp2 expressions, matched against pattern IDs
	Exclude []string
}

// ParsePatterns splits a comma-separated flag value into trimmed, non-empty
// entries.
func ParsePatterns(csv string) []string {
	result := []string{}
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies config to patterns, preserving order.
func Filter(patterns []*types.Pattern, config FilterConfig) ([]*types.Pattern, error) {
	include, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	result := make([]*types.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if len(include) > 0 && !matchesAny(p.ID, include) {
			continue
		}
		if matchesAny(p.ID, exclude) {
			continue
		}
		result = append(result, p)
	}
	return result, nil
}

// SelectSet keeps the patterns referenced by set, in set order.
func SelectSet(patterns []*types.Pattern, set *types.PatternSet) ([]*types.Pattern, error) {
	byID := make(map[string]*types.Pattern, len(patterns))
	for _, p := range patterns {
		byID[p.ID] = p
	}

	result := make([]*types.Pattern, 0, len(set.PatternIDs))
	for _, id := range set.PatternIDs {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("pattern set %s references unknown pattern ID: %s", set.ID, id)
		}
		result = append(result, p)
	}
	return result, nil
}

func compileAll(exprs []string) ([]*regexp2.Regexp, error) {
	regexes := make([]*regexp2.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp2.Compile(expr, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", expr, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func matchesAny(id string, regexes []*regexp2.Regexp) bool {
	for _, re := range regexes {
		// Errors only come from match timeouts, which are not configured.
		if ok, _ := re.MatchString(id); ok {
			return true
		}
	}
	return false
}
