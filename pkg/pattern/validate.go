package pattern

import (
	"fmt"

	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/praetorian-inc/wildscan/pkg/wildcard"
)

// ValidatePattern checks required fields and runs the pattern against its
// own examples.
func ValidatePattern(p *types.Pattern) error {
	if p == nil {
		return fmt.Errorf("pattern is nil")
	}
	if p.ID == "" {
		return fmt.Errorf("pattern ID is required")
	}
	if p.Name == "" {
		return fmt.Errorf("pattern %s: name is required", p.ID)
	}
	if p.Pattern == "" {
		return fmt.Errorf("pattern %s: pattern text is required", p.ID)
	}

	if expected := p.ComputeStructuralID(); p.StructuralID != "" && p.StructuralID != expected {
		return fmt.Errorf("pattern %s has inconsistent StructuralID: got %s, expected %s",
			p.ID, p.StructuralID, expected)
	}

	w := p.WildcardByte()
	for _, example := range p.Examples {
		if len(wildcard.FindFuzzyMatches(p.Pattern, example, w)) == 0 {
			return fmt.Errorf("pattern %s does not match its example %q", p.ID, example)
		}
	}
	for _, example := range p.NegativeExamples {
		if len(wildcard.FindFuzzyMatches(p.Pattern, example, w)) > 0 {
			return fmt.Errorf("pattern %s matches its negative example %q", p.ID, example)
		}
	}
	return nil
}

// ValidatePatternSet checks a pattern set. knownIDs, when non-nil, must
// contain every referenced pattern.
func ValidatePatternSet(ps *types.PatternSet, knownIDs map[string]bool) error {
	if ps == nil {
		return fmt.Errorf("pattern set is nil")
	}
	if ps.ID == "" {
		return fmt.Errorf("pattern set ID is required")
	}
	if ps.Name == "" {
		return fmt.Errorf("pattern set %s: name is required", ps.ID)
	}
	if len(ps.PatternIDs) == 0 {
		return fmt.Errorf("pattern set %s must reference at least one pattern", ps.ID)
	}

	seen := make(map[string]bool, len(ps.PatternIDs))
	for _, id := range ps.PatternIDs {
		if knownIDs != nil && !knownIDs[id] {
			return fmt.Errorf("pattern set %s references unknown pattern ID: %s", ps.ID, id)
		}
		if seen[id] {
			return fmt.Errorf("pattern set %s contains duplicate pattern ID: %s", ps.ID, id)
		}
		seen[id] = true
	}
	return nil
}

// ValidateAll validates every pattern and rejects duplicate IDs.
func ValidateAll(patterns []*types.Pattern) error {
	seen := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		if err := ValidatePattern(p); err != nil {
			return err
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate pattern ID: %s", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
