// Package pattern loads, validates and filters wildcard detection patterns.
package pattern

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/praetorian-inc/wildscan/pkg/wildcard"
	"gopkg.in/yaml.v3"
)

// ErrNoPatterns is returned when a source yields no patterns.
var ErrNoPatterns = errors.New("no patterns found")

// Loader reads patterns from YAML.
type Loader struct {
	fs fs.FS // source of builtin patterns
}

// NewLoader creates a loader backed by the embedded builtin patterns.
func NewLoader() *Loader {
	return &Loader{fs: builtinFS}
}

// NewLoaderWithFS creates a loader whose builtins come from fsys.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadPatterns parses every pattern in a YAML document.
func (l *Loader) LoadPatterns(data []byte) ([]*types.Pattern, error) {
	var file yamlPatternsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(file.Patterns) == 0 {
		return nil, ErrNoPatterns
	}

	patterns := make([]*types.Pattern, 0, len(file.Patterns))
	for _, yp := range file.Patterns {
		p, err := convertYAMLPattern(yp)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// LoadPatternFile loads the patterns in a single YAML file.
func (l *Loader) LoadPatternFile(path string) ([]*types.Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	patterns, err := l.LoadPatterns(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return patterns, nil
}

// LoadPatternDir loads every .yml and .yaml file below dir, in lexical order.
func (l *Loader) LoadPatternDir(dir string) ([]*types.Pattern, error) {
	patterns, err := loadTree(os.DirFS(dir), ".", l.LoadPatterns)
	if err != nil {
		return nil, fmt.Errorf("loading patterns from %s: %w", dir, err)
	}
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoPatterns)
	}
	return patterns, nil
}

// LoadPath loads a pattern file or directory.
func (l *Loader) LoadPath(path string) ([]*types.Pattern, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return l.LoadPatternDir(path)
	}
	return l.LoadPatternFile(path)
}

// LoadBuiltinPatterns loads the builtin patterns.
func (l *Loader) LoadBuiltinPatterns() ([]*types.Pattern, error) {
	return loadTree(l.fs, "patterns", l.LoadPatterns)
}

// LoadPatternSets parses every pattern set in a YAML document.
func (l *Loader) LoadPatternSets(data []byte) ([]*types.PatternSet, error) {
	var file yamlPatternSetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	sets := make([]*types.PatternSet, 0, len(file.PatternSets))
	for _, ys := range file.PatternSets {
		sets = append(sets, &types.PatternSet{
			ID:          ys.ID,
			Name:        ys.Name,
			Description: ys.Description,
			PatternIDs:  ys.PatternIDs,
		})
	}
	return sets, nil
}

// LoadBuiltinPatternSets loads the builtin pattern sets.
func (l *Loader) LoadBuiltinPatternSets() ([]*types.PatternSet, error) {
	return loadTree(l.fs, "patternsets", l.LoadPatternSets)
}

// loadTree parses every YAML file under root with parse.
func loadTree[T any](fsys fs.FS, root string, parse func([]byte) ([]T, error)) ([]T, error) {
	var out []T
	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(path); ext != ".yml" && ext != ".yaml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		items, err := parse(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		out = append(out, items...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func convertYAMLPattern(yp yamlPattern) (*types.Pattern, error) {
	w, err := wildcard.ParseWildcard(yp.Wildcard)
	if err != nil {
		return nil, fmt.Errorf("pattern %s: %w", yp.ID, err)
	}

	p := &types.Pattern{
		ID:               yp.ID,
		Name:             yp.Name,
		Pattern:          yp.Pattern,
		Wildcard:         w,
		Description:      yp.Description,
		Examples:         yp.Examples,
		NegativeExamples: yp.NegativeExamples,
		References:       yp.References,
		Categories:       yp.Categories,
	}
	p.StructuralID = p.ComputeStructuralID()
	return p, nil
}
