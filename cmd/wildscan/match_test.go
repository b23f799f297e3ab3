package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMatchWith(t *testing.T, stdin, wildcard, textFile string) (string, error) {
	t.Helper()

	matchWildcard = wildcard
	matchTextFile = textFile
	t.Cleanup(func() {
		matchWildcard = "?"
		matchTextFile = ""
	})

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	err := runMatch(cmd, nil)
	return out.String(), err
}

func TestRunMatch(t *testing.T) {
	tests := []struct {
		name     string
		stdin    string
		wildcard string
		want     string
	}{
		{"overlapping", "a?c?\nabcaaccxaxcxacc\n", "?", "4\n0 3 4 8 \n"},
		{"no match", "xyz abcabc", "?", "0\n\n"},
		{"pattern longer than text", "abcd abc", "?", "0\n\n"},
		{"all wildcards", "?? abc", "?", "2\n0 1 \n"},
		{"custom wildcard", "a*a aba?a", "*", "2\n0 2 \n"},
		{"question mark literal with custom wildcard", "a?a aba?a", "*", "1\n2 \n"},
		{"empty input", "", "?", "0\n\n"},
		{"missing text", "abc", "?", "0\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runMatchWith(t, tt.stdin, tt.wildcard, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRunMatch_TextFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.txt")
	require.NoError(t, os.WriteFile(path, []byte("abcaaccxaxcxacc"), 0644))

	out, err := runMatchWith(t, "a?c?\n", "?", path)
	require.NoError(t, err)
	assert.Equal(t, "4\n0 3 4 8 \n", out)
}

func TestRunMatch_TextFileMissing(t *testing.T) {
	_, err := runMatchWith(t, "a?c?", "?", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRunMatch_BadWildcard(t *testing.T) {
	_, err := runMatchWith(t, "a?c? abc", "??", "")
	assert.Error(t, err)
}
