package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/praetorian-inc/wildscan/pkg/store"
	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	reportDatastore  string
	reportFormat     string
	reportColor      string
	reportMaxMatches int
)

const snippetWidth = 500

type styles struct {
	findingHeading *color.Color
	id             *color.Color
	patternName    *color.Color
	heading        *color.Color
	match          *color.Color
	metadata       *color.Color
}

func newStyles(enabled bool) *styles {
	s := &styles{
		findingHeading: color.New(color.Bold, color.FgHiWhite),
		id:             color.New(color.FgHiGreen),
		patternName:    color.New(color.Bold, color.FgHiBlue),
		heading:        color.New(color.Bold),
		match:          color.New(color.FgYellow),
		metadata:       color.New(color.FgHiBlue),
	}
	if !enabled {
		for _, c := range []*color.Color{s.findingHeading, s.id, s.patternName, s.heading, s.match, s.metadata} {
			c.DisableColor()
		}
	}
	return s
}

// snippetParts is a snippet window split around the matched bytes.
type snippetParts struct {
	prefix   string // "..." if truncated at start
	before   string
	matching string
	after    string
	suffix   string // "..." if truncated at end
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from scan results",
	Long:  "Read findings from a datastore and print them grouped by matched text",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "wildscan.db", "SQLite path or postgres:// DSN")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
	reportCmd.Flags().IntVar(&reportMaxMatches, "max-matches", 3, "Matches shown per finding in human output (0 = all)")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportDatastore == ":memory:" {
		return fmt.Errorf("cannot report from in-memory store")
	}
	if !isPostgresTarget(reportDatastore) {
		if _, err := os.Stat(reportDatastore); err != nil {
			return fmt.Errorf("datastore not found: %s", reportDatastore)
		}
	}

	s, err := store.New(store.Config{Path: reportDatastore})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	findings, err := s.GetFindings()
	if err != nil {
		return fmt.Errorf("retrieving findings: %w", err)
	}

	switch reportFormat {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(findings)
	case "sarif":
		matches, err := s.GetAllMatches()
		if err != nil {
			return fmt.Errorf("retrieving matches: %w", err)
		}
		return outputSARIF(cmd, s, nil, matches)
	case "human":
		return outputReportHuman(cmd.OutOrStdout(), s, findings, newStyles(colorEnabled(reportColor)))
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

func isPostgresTarget(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// colorEnabled resolves --color. In auto mode color is used only on a
// terminal and when NO_COLOR is unset.
func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != ""
	}
	return !color.NoColor
}

func outputReportHuman(out io.Writer, s store.Store, findings []*types.Finding, st *styles) error {
	if len(findings) == 0 {
		fmt.Fprintln(out, "No findings.")
		return nil
	}

	for i, f := range findings {
		fmt.Fprintf(out, "%s (%s %s)\n",
			st.findingHeading.Sprintf("Finding %d/%d", i+1, len(findings)),
			st.heading.Sprint("id"),
			st.id.Sprint(f.ID))

		name := f.PatternID
		if len(f.Matches) > 0 && f.Matches[0].PatternName != "" {
			name = f.Matches[0].PatternName
		}
		fmt.Fprintf(out, "%s %s\n", st.heading.Sprint("Pattern:"), st.patternName.Sprint(name))
		fmt.Fprintf(out, "%s %s\n", st.heading.Sprint("Text:"), st.match.Sprint(string(f.Text)))

		shown := f.Matches
		if reportMaxMatches > 0 && len(shown) > reportMaxMatches {
			fmt.Fprintf(out, "Showing %d/%d matches:\n", reportMaxMatches, len(shown))
			shown = shown[:reportMaxMatches]
		}

		for k, m := range shown {
			fmt.Fprintf(out, "\n    %s (%s %s)\n",
				st.heading.Sprintf("Match %d/%d", k+1, len(f.Matches)),
				st.heading.Sprint("id"),
				st.id.Sprint(m.StructuralID))

			if path := blobPath(s, m.BlobID); path != m.BlobID.Hex() {
				fmt.Fprintf(out, "    %s %s\n", st.heading.Sprint("File:"), st.metadata.Sprint(path))
			}
			fmt.Fprintf(out, "    %s %s\n", st.heading.Sprint("Blob:"), st.metadata.Sprint(m.BlobID.Hex()))
			fmt.Fprintf(out, "    %s %d-%d\n", st.heading.Sprint("Offsets:"),
				m.Location.Offset.Start, m.Location.Offset.End)

			if m.Location.Source.Start.Line > 0 {
				fmt.Fprintf(out, "    %s %d:%d-%d:%d\n",
					st.heading.Sprint("Lines:"),
					m.Location.Source.Start.Line, m.Location.Source.Start.Column,
					m.Location.Source.End.Line, m.Location.Source.End.Column)
			}

			parts := splitSnippet(m.Snippet, snippetWidth)
			if parts != (snippetParts{}) {
				fmt.Fprintf(out, "\n        %s%s%s%s%s\n",
					parts.prefix, parts.before, st.match.Sprint(parts.matching), parts.after, parts.suffix)
			}
		}
		fmt.Fprintf(out, "\n\n")
	}
	return nil
}

// splitSnippet trims a snippet to at most maxLen bytes, keeping the match
// centered and marking cut ends with "...".
func splitSnippet(sn types.Snippet, maxLen int) snippetParts {
	before, matching, after := string(sn.Before), string(sn.Matching), string(sn.After)
	if len(before)+len(matching)+len(after) <= maxLen {
		return snippetParts{before: before, matching: matching, after: after}
	}
	if len(matching) >= maxLen {
		return snippetParts{prefix: "...", matching: matching[:maxLen-6], suffix: "..."}
	}

	// 6 bytes reserved for the two ellipses.
	room := maxLen - len(matching) - 6
	left, right := room/2, room-room/2
	if left > len(before) {
		right += left - len(before)
		left = len(before)
	}
	if right > len(after) {
		left = min(len(before), left+right-len(after))
		right = len(after)
	}

	parts := snippetParts{
		before:   before[len(before)-left:],
		matching: matching,
		after:    after[:right],
	}
	if left < len(before) {
		parts.prefix = "..."
	}
	if right < len(after) {
		parts.suffix = "..."
	}
	return parts
}
