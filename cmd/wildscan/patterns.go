package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/praetorian-inc/wildscan/pkg/pattern"
	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/spf13/cobra"
)

var (
	patternsPath    string
	patternsSet     string
	patternsInclude string
	patternsExclude string
	patternsFormat  string
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage detection patterns",
	Long:  "Commands for listing and validating wildcard detection patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available patterns",
	RunE:  runPatternsList,
}

var patternsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check patterns against their examples",
	Long: `Load patterns (builtin, or from --patterns) and verify each one: required
fields are present, every example contains a match, and no negative example does.
Builtin pattern sets are checked for unknown or duplicate pattern IDs.`,
	RunE: runPatternsValidate,
}

func init() {
	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsValidateCmd)

	for _, c := range []*cobra.Command{patternsListCmd, patternsValidateCmd} {
		c.Flags().StringVar(&patternsPath, "patterns", "", "Path to custom patterns file or directory")
	}
	patternsListCmd.Flags().StringVar(&patternsSet, "set", "", "Only list patterns in this builtin pattern set")
	patternsListCmd.Flags().StringVar(&patternsInclude, "include", "", "Include patterns whose ID matches regex (comma-separated)")
	patternsListCmd.Flags().StringVar(&patternsExclude, "exclude", "", "Exclude patterns whose ID matches regex (comma-separated)")
	patternsListCmd.Flags().StringVar(&patternsFormat, "format", "table", "Output format: table, json")
}

// patternSelection describes which patterns a command runs with.
type patternSelection struct {
	Path    string // custom file or directory; empty means builtin
	Set     string // builtin pattern set ID
	Include string
	Exclude string
}

func loadPatterns(sel patternSelection) ([]*types.Pattern, error) {
	loader := pattern.NewLoader()

	var patterns []*types.Pattern
	var err error
	if sel.Path != "" {
		patterns, err = loader.LoadPath(sel.Path)
	} else {
		patterns, err = loader.LoadBuiltinPatterns()
	}
	if err != nil {
		return nil, err
	}

	if sel.Set != "" {
		set, err := findPatternSet(loader, sel.Set)
		if err != nil {
			return nil, err
		}
		if patterns, err = pattern.SelectSet(patterns, set); err != nil {
			return nil, err
		}
	}

	if sel.Include != "" || sel.Exclude != "" {
		patterns, err = pattern.Filter(patterns, pattern.FilterConfig{
			Include: pattern.ParsePatterns(sel.Include),
			Exclude: pattern.ParsePatterns(sel.Exclude),
		})
		if err != nil {
			return nil, fmt.Errorf("filtering patterns: %w", err)
		}
	}

	if len(patterns) == 0 {
		return nil, pattern.ErrNoPatterns
	}
	return patterns, nil
}

func findPatternSet(loader *pattern.Loader, id string) (*types.PatternSet, error) {
	sets, err := loader.LoadBuiltinPatternSets()
	if err != nil {
		return nil, fmt.Errorf("loading pattern sets: %w", err)
	}
	ids := make([]string, 0, len(sets))
	for _, s := range sets {
		if s.ID == id {
			return s, nil
		}
		ids = append(ids, s.ID)
	}
	return nil, fmt.Errorf("unknown pattern set %q (available: %s)", id, strings.Join(ids, ", "))
}

func runPatternsList(cmd *cobra.Command, args []string) error {
	patterns, err := loadPatterns(patternSelection{
		Path:    patternsPath,
		Set:     patternsSet,
		Include: patternsInclude,
		Exclude: patternsExclude,
	})
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	switch patternsFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(patterns)
	case "table":
		return outputPatternsTable(cmd, patterns)
	default:
		return fmt.Errorf("unknown output format: %s", patternsFormat)
	}
}

func outputPatternsTable(cmd *cobra.Command, patterns []*types.Pattern) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "ID\tName\tPattern\tKeyword\n")
	fmt.Fprintf(w, "--\t----\t-------\t-------\n")
	for _, p := range patterns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Pattern, p.Keyword())
	}
	return nil
}

func runPatternsValidate(cmd *cobra.Command, args []string) error {
	loader := pattern.NewLoader()

	var patterns []*types.Pattern
	var err error
	if patternsPath != "" {
		patterns, err = loader.LoadPath(patternsPath)
	} else {
		patterns, err = loader.LoadBuiltinPatterns()
	}
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	if err := pattern.ValidateAll(patterns); err != nil {
		return err
	}

	setCount := 0
	if patternsPath == "" {
		sets, err := loader.LoadBuiltinPatternSets()
		if err != nil {
			return fmt.Errorf("loading pattern sets: %w", err)
		}
		known := make(map[string]bool, len(patterns))
		for _, p := range patterns {
			known[p.ID] = true
		}
		for _, s := range sets {
			if err := pattern.ValidatePatternSet(s, known); err != nil {
				return err
			}
		}
		setCount = len(sets)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d patterns and %d pattern sets are valid\n", len(patterns), setCount)
	return nil
}
