package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/praetorian-inc/wildscan/pkg/wildcard"
	"github.com/spf13/cobra"
)

var (
	matchWildcard string
	matchTextFile string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find a wildcard pattern in text read from stdin",
	Long: `Read a pattern and a text from standard input, each a whitespace-delimited
token, and print the number of matches on the first line followed by the
0-based start offset of every match on the second.

With --text-file only the pattern is read from stdin; the text is streamed
from the file so it can be arbitrarily large.`,
	Args: cobra.NoArgs,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVar(&matchWildcard, "wildcard", "?", "Wildcard character (a single byte)")
	matchCmd.Flags().StringVar(&matchTextFile, "text-file", "", "Read the text from this file instead of stdin")
}

func runMatch(cmd *cobra.Command, args []string) error {
	wc, err := wildcard.ParseWildcard(matchWildcard)
	if err != nil {
		return err
	}

	tokens := bufio.NewScanner(cmd.InOrStdin())
	tokens.Buffer(make([]byte, 0, 64*1024), 1<<30)
	tokens.Split(bufio.ScanWords)

	pattern := readToken(tokens)
	if err := tokens.Err(); err != nil {
		return fmt.Errorf("reading pattern: %w", err)
	}

	var offsets []int64
	if matchTextFile != "" {
		offsets, err = matchFile(pattern, wc, matchTextFile)
		if err != nil {
			return err
		}
	} else {
		text := readToken(tokens)
		if err := tokens.Err(); err != nil {
			return fmt.Errorf("reading text: %w", err)
		}
		for _, off := range wildcard.FindFuzzyMatches(pattern, text, wc) {
			offsets = append(offsets, int64(off))
		}
	}

	return printOffsets(cmd.OutOrStdout(), offsets)
}

func readToken(s *bufio.Scanner) string {
	if s.Scan() {
		return s.Text()
	}
	return ""
}

// matchFile streams path through a matcher and returns match start offsets.
func matchFile(pattern string, wc byte, path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening text file: %w", err)
	}
	defer f.Close()

	var m wildcard.Matcher
	m.Init(pattern, wc)

	var offsets []int64
	err = m.ScanReader(f, func(end int64) {
		offsets = append(offsets, end+1-int64(len(pattern)))
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return offsets, nil
}

// printOffsets writes the count line and the offsets line, each offset
// followed by a space.
func printOffsets(w io.Writer, offsets []int64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(offsets))
	for _, off := range offsets {
		bw.WriteString(strconv.FormatInt(off, 10))
		bw.WriteByte(' ')
	}
	bw.WriteByte('\n')
	return bw.Flush()
}
