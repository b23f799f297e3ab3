package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/praetorian-inc/wildscan/pkg/explore"
	"github.com/spf13/cobra"
)

var (
	exploreDatastore string
	exploreBlobs     string
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse and review scan findings interactively",
	Long: `Open a terminal UI over a scan database.

Findings can be filtered by pattern, category, source kind and review
status. Accept/reject decisions and comments are written back to the
database, so they survive merges and later reports.`,
	Args: cobra.NoArgs,
	RunE: runExplore,
}

func init() {
	exploreCmd.Flags().StringVar(&exploreDatastore, "datastore", "wildscan.db", "Path to SQLite database or postgres:// URL")
	exploreCmd.Flags().StringVar(&exploreBlobs, "blobs", "", "Blob directory written by scan --store-blobs")
}

func runExplore(cmd *cobra.Command, args []string) error {
	model, err := explore.New(exploreDatastore, exploreBlobs)
	if err != nil {
		return fmt.Errorf("loading datastore: %w", err)
	}
	defer model.Close()

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running explore: %w", err)
	}
	return nil
}
