package main

import (
	"fmt"

	"github.com/praetorian-inc/wildscan/pkg/store"
	"github.com/spf13/cobra"
)

var mergeOutput string

var mergeCmd = &cobra.Command{
	Use:   "merge <source1.db> <source2.db> [source3.db...]",
	Short: "Merge scan databases",
	Long: `Merge several SQLite scan databases into one.

Blobs, matches, findings, and provenance already present in the output
database are skipped, so merging the same source twice is harmless.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path")
}

func runMerge(cmd *cobra.Command, args []string) error {
	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: args,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Merge complete:\n")
	fmt.Fprintf(out, "  Sources processed: %d\n", stats.SourcesProcessed)
	fmt.Fprintf(out, "  Blobs merged: %d\n", stats.BlobsMerged)
	fmt.Fprintf(out, "  Patterns merged: %d\n", stats.PatternsMerged)
	fmt.Fprintf(out, "  Matches merged: %d\n", stats.MatchesMerged)
	fmt.Fprintf(out, "  Findings merged: %d\n", stats.FindingsMerged)
	fmt.Fprintf(out, "  Provenance merged: %d\n", stats.ProvenanceMerged)
	fmt.Fprintf(out, "  Annotations merged: %d\n", stats.AnnotationsMerged)
	fmt.Fprintf(out, "Output: %s\n", mergeOutput)
	return nil
}
