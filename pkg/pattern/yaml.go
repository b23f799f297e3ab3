package pattern

// yamlPattern is the on-disk form of a types.Pattern.
type yamlPattern struct {
	Name             string   `yaml:"name"`
	ID               string   `yaml:"id"`
	Pattern          string   `yaml:"pattern"`
	Wildcard         string   `yaml:"wildcard,omitempty"`
	Description      string   `yaml:"description,omitempty"`
	Examples         []string `yaml:"examples,omitempty"`
	NegativeExamples []string `yaml:"negative_examples,omitempty"`
	References       []string `yaml:"references,omitempty"`
	Categories       []string `yaml:"categories,omitempty"`
}

type yamlPatternsFile struct {
	Patterns []yamlPattern `yaml:"patterns"`
}

type yamlPatternSet struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	PatternIDs  []string `yaml:"include_pattern_ids"`
}

type yamlPatternSetsFile struct {
	PatternSets []yamlPatternSet `yaml:"patternsets"`
}
