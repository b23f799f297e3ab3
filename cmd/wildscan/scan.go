package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/praetorian-inc/wildscan/pkg/blobstore"
	"github.com/praetorian-inc/wildscan/pkg/enum"
	"github.com/praetorian-inc/wildscan/pkg/matcher"
	"github.com/praetorian-inc/wildscan/pkg/prefilter"
	"github.com/praetorian-inc/wildscan/pkg/sarif"
	"github.com/praetorian-inc/wildscan/pkg/scanner"
	"github.com/praetorian-inc/wildscan/pkg/store"
	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/spf13/cobra"
)

var (
	scanPatternsPath    string
	scanPatternSet      string
	scanPatternsInclude string
	scanPatternsExclude string
	scanOutputPath      string
	scanOutputFormat    string
	scanGit             bool
	scanHistory         bool
	scanCommitRef       string
	scanMaxFileSize     int64
	scanIncludeHidden   bool
	scanContextLines    int
	scanIncremental     bool
	scanExtract         string
	scanWorkers         int
	scanPrefilter       string
	scanDedupe          string
	scanMaxMatches      int
	scanStoreBlobs      string
)

var scanCmd = &cobra.Command{
	Use:   "scan <target>",
	Short: "Scan a target for pattern matches",
	Long: `Scan a file, directory, or git repository with wildcard detection patterns.
Use "-" as the target to scan standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanPatternsPath, "patterns", "", "Path to custom patterns file or directory")
	scanCmd.Flags().StringVar(&scanPatternSet, "set", "", "Scan with a builtin pattern set")
	scanCmd.Flags().StringVar(&scanPatternsInclude, "include", "", "Include patterns whose ID matches regex (comma-separated)")
	scanCmd.Flags().StringVar(&scanPatternsExclude, "exclude", "", "Exclude patterns whose ID matches regex (comma-separated)")
	scanCmd.Flags().StringVarP(&scanOutputPath, "output", "o", "wildscan.db", "Datastore: SQLite path, postgres:// DSN, or :memory:")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().BoolVar(&scanGit, "git", false, "Treat target as a git repository")
	scanCmd.Flags().BoolVar(&scanHistory, "history", false, "With --git, scan every blob reachable from the commit history")
	scanCmd.Flags().StringVar(&scanCommitRef, "ref", "", "With --git, the revision to scan (default HEAD)")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 10*1024*1024, "Maximum file size to scan (bytes)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().IntVar(&scanContextLines, "context-lines", 3, "Lines of context before/after matches (0 to disable)")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip blobs already in the datastore")
	scanCmd.Flags().StringVar(&scanExtract, "extract", "", "Extract text from documents: all, or a list of xlsx,docx,pptx,pdf,zip")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Parallel file readers (0 = one per CPU)")
	scanCmd.Flags().StringVar(&scanPrefilter, "prefilter", string(prefilter.EngineCloudflare), "Keyword prefilter engine: cloudflare, dfa")
	scanCmd.Flags().StringVar(&scanDedupe, "dedupe", "location", "Match deduplication within a blob: location, content")
	scanCmd.Flags().IntVar(&scanMaxMatches, "max-matches", 0, "Maximum matches per blob (0 = unlimited)")
	scanCmd.Flags().StringVar(&scanStoreBlobs, "store-blobs", "", "Directory to keep the content of blobs with matches")
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]
	logger := slog.Default()

	if target != "-" {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}
	}

	engine, err := prefilter.ParseEngine(scanPrefilter)
	if err != nil {
		return err
	}
	dedupe, err := matcher.ParseDedupeMode(scanDedupe)
	if err != nil {
		return err
	}

	patterns, err := loadPatterns(patternSelection{
		Path:    scanPatternsPath,
		Set:     scanPatternSet,
		Include: scanPatternsInclude,
		Exclude: scanPatternsExclude,
	})
	if err != nil {
		return fmt.Errorf("loading patterns: %w", err)
	}

	var blobs scanner.BlobSink
	if scanStoreBlobs != "" {
		bs, err := blobstore.Open(scanStoreBlobs)
		if err != nil {
			return err
		}
		blobs = bs
	}

	s, err := store.New(store.Config{Path: scanOutputPath})
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}

	core, err := scanner.NewCore(scanner.Config{
		Patterns:          patterns,
		ContextLines:      scanContextLines,
		Prefilter:         engine,
		MaxMatchesPerBlob: scanMaxMatches,
		Dedupe:            dedupe,
		Store:             s,
		Incremental:       scanIncremental,
		Blobs:             blobs,
		Logger:            logger,
	})
	if err != nil {
		s.Close()
		return err
	}
	defer core.Close()

	enumerator := createEnumerator(cmd, target, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = enumerator.Enumerate(ctx, func(content []byte, blobID types.BlobID, prov types.Provenance) error {
		if _, _, err := core.ScanBlob(content, blobID, prov); err != nil {
			return fmt.Errorf("scanning %s: %w", prov.Path(), err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	findings, err := s.GetFindings()
	if err != nil {
		return fmt.Errorf("retrieving findings: %w", err)
	}

	// Keep stdout pure for machine formats.
	summary := cmd.OutOrStdout()
	if scanOutputFormat == "json" || scanOutputFormat == "sarif" {
		summary = cmd.ErrOrStderr()
	}
	stats := core.Stats()
	if scanIncremental {
		fmt.Fprintf(summary, "Scan complete: %d blobs, %d matches, %d findings (%d blobs skipped)\n",
			stats.BlobsScanned, stats.Matches, len(findings), stats.BlobsSkipped)
	} else {
		fmt.Fprintf(summary, "Scan complete: %d blobs, %d matches, %d findings\n",
			stats.BlobsScanned, stats.Matches, len(findings))
	}
	if scanOutputPath != ":memory:" {
		fmt.Fprintf(summary, "Results stored in: %s\n", scanOutputPath)
	}

	switch scanOutputFormat {
	case "json":
		matches, err := s.GetAllMatches()
		if err != nil {
			return fmt.Errorf("retrieving matches: %w", err)
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(matches)
	case "sarif":
		matches, err := s.GetAllMatches()
		if err != nil {
			return fmt.Errorf("retrieving matches: %w", err)
		}
		return outputSARIF(cmd, s, patterns, matches)
	case "human":
		return outputFindingsSummary(cmd, findings)
	default:
		return fmt.Errorf("unknown output format: %s", scanOutputFormat)
	}
}

func createEnumerator(cmd *cobra.Command, target string, logger *slog.Logger) enum.Enumerator {
	if target == "-" {
		return &enum.ReaderEnumerator{Name: "stdin", Reader: cmd.InOrStdin(), MaxSize: scanMaxFileSize}
	}

	config := enum.Config{
		Root:            target,
		IncludeHidden:   scanIncludeHidden,
		MaxFileSize:     scanMaxFileSize,
		ExtractArchives: scanExtract,
		Workers:         scanWorkers,
		Logger:          logger,
	}

	if scanGit {
		g := enum.NewGitEnumerator(config)
		g.History = scanHistory
		if scanCommitRef != "" {
			g.CommitRef = scanCommitRef
		}
		return g
	}
	return enum.NewFilesystemEnumerator(config)
}

func outputFindingsSummary(cmd *cobra.Command, findings []*types.Finding) error {
	out := cmd.OutOrStdout()
	if len(findings) == 0 {
		fmt.Fprintf(out, "\nNo findings.\n")
		return nil
	}

	fmt.Fprintf(out, "\nFindings:\n")
	for i, f := range findings {
		fmt.Fprintf(out, "%d. Pattern: %s (%d matches)\n", i+1, f.PatternID, len(f.Matches))
	}
	return nil
}

// outputSARIF writes matches as a SARIF log, resolving each blob to the first
// path it was seen at.
func outputSARIF(cmd *cobra.Command, s store.Store, patterns []*types.Pattern, matches []*types.Match) error {
	report := sarif.NewReport(version)
	for _, p := range patterns {
		report.AddPattern(p)
	}

	paths := make(map[types.BlobID]string)
	for _, match := range matches {
		path, ok := paths[match.BlobID]
		if !ok {
			path = blobPath(s, match.BlobID)
			paths[match.BlobID] = path
		}
		report.AddResult(match, path)
	}

	if _, err := report.WriteTo(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}

// blobPath returns the first recorded path for a blob, or its ID.
func blobPath(s store.Store, id types.BlobID) string {
	provs, err := s.GetProvenance(id)
	if err != nil {
		return id.Hex()
	}
	for _, p := range provs {
		if p.Path() != "" {
			return p.Path()
		}
	}
	return id.Hex()
}
