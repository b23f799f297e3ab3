package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunExplore_Errors(t *testing.T) {
	tests := []struct {
		name      string
		datastore string
		want      string
	}{
		{"missing", filepath.Join(t.TempDir(), "none.db"), "datastore not found"},
		{"memory", ":memory:", "in-memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exploreDatastore = tt.datastore
			exploreBlobs = ""
			err := runExplore(exploreCmd, nil)
			assert.ErrorContains(t, err, "loading datastore")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
