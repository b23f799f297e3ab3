package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/praetorian-inc/wildscan/pkg/scanner"
	"github.com/praetorian-inc/wildscan/pkg/serve"
	"github.com/spf13/cobra"
)

var (
	servePatternsPath string
	servePatternSet   string
	serveContextLines int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a streaming NDJSON server",
	Long: `Run Wildscan as a long-lived server that reads newline-delimited JSON
requests on stdin and writes one JSON response per line on stdout.

Patterns are compiled once at startup. The server exits when stdin closes,
a "close" request arrives, or SIGTERM is received.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePatternsPath, "patterns", "", "Path to custom patterns file or directory")
	serveCmd.Flags().StringVar(&servePatternSet, "set", "", "Serve with a builtin pattern set")
	serveCmd.Flags().IntVar(&serveContextLines, "context-lines", 0, "Lines of context before/after matches")
}

func runServe(cmd *cobra.Command, args []string) error {
	patterns, err := loadPatterns(patternSelection{Path: servePatternsPath, Set: servePatternSet})
	if err != nil {
		return err
	}

	core, err := scanner.NewCore(scanner.Config{
		Patterns:     patterns,
		ContextLines: serveContextLines,
		Logger:       slog.Default(),
	})
	if err != nil {
		return err
	}
	defer core.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	return serve.NewServer(core, cmd.InOrStdin(), cmd.OutOrStdout()).
		WithLogger(slog.Default()).
		Run(ctx)
}
