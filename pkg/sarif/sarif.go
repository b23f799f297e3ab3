// Package sarif renders scan matches as a SARIF 2.1.0 log.
package sarif

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "wildscan"
)

// Report is the top-level SARIF log.
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`

	ruleIndex map[string]int
}

type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules"`
}

// Rule describes one pattern.
type Rule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ShortDescription Message        `json:"shortDescription"`
	FullDescription  *Message       `json:"fullDescription,omitempty"`
	HelpURI          string         `json:"helpUri,omitempty"`
	Properties       RuleProperties `json:"properties"`
}

// RuleProperties carries the pattern text so a reader can reproduce the match.
type RuleProperties struct {
	Pattern  string   `json:"pattern"`
	Wildcard string   `json:"wildcard"`
	Tags     []string `json:"tags,omitempty"`
}

// Result is a single match.
type Result struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             Message           `json:"message"`
	Locations           []Location        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region columns are 1-based; EndColumn is exclusive.
type Region struct {
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn"`
	EndLine     int      `json:"endLine"`
	EndColumn   int      `json:"endColumn"`
	ByteOffset  int64    `json:"byteOffset"`
	ByteLength  int64    `json:"byteLength"`
	Snippet     *Message `json:"snippet,omitempty"`
}

// NewReport creates an empty report for the given tool version.
func NewReport(toolVersion string) *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{{
			Tool: Tool{Driver: Driver{
				Name:           ToolName,
				Version:        toolVersion,
				InformationURI: "https://github.com/praetorian-inc/wildscan",
				Rules:          []Rule{},
			}},
			Results: []Result{},
		}},
		ruleIndex: make(map[string]int),
	}
}

// AddPattern registers p as a rule. Registering the same ID twice is a no-op.
func (r *Report) AddPattern(p *types.Pattern) {
	if _, ok := r.ruleIndex[p.ID]; ok {
		return
	}

	rule := Rule{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: Message{Text: p.Name},
		Properties: RuleProperties{
			Pattern:  p.Pattern,
			Wildcard: string([]byte{p.WildcardByte()}),
			Tags:     p.Categories,
		},
	}
	if p.Description != "" {
		rule.FullDescription = &Message{Text: p.Description}
	}
	if len(p.References) > 0 {
		rule.HelpURI = p.References[0]
	}

	driver := &r.Runs[0].Tool.Driver
	r.ruleIndex[p.ID] = len(driver.Rules)
	driver.Rules = append(driver.Rules, rule)
}

// AddResult appends match as a result located at path. A pattern that was
// never registered gets a minimal rule entry.
func (r *Report) AddResult(match *types.Match, path string) {
	idx, ok := r.ruleIndex[match.PatternID]
	if !ok {
		r.AddPattern(&types.Pattern{ID: match.PatternID, Name: match.PatternName})
		idx = r.ruleIndex[match.PatternID]
	}

	loc := match.Location
	region := Region{
		StartLine:   loc.Source.Start.Line,
		StartColumn: loc.Source.Start.Column,
		EndLine:     loc.Source.End.Line,
		EndColumn:   loc.Source.End.Column + 1,
		ByteOffset:  loc.Offset.Start,
		ByteLength:  loc.Offset.Len(),
	}
	if len(match.Snippet.Matching) > 0 {
		region.Snippet = &Message{Text: string(match.Snippet.Matching)}
	}

	result := Result{
		RuleID:    match.PatternID,
		RuleIndex: idx,
		Level:     "warning",
		Message:   Message{Text: fmt.Sprintf("%s matched", displayName(match))},
		Locations: []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: formatFileURI(path)},
				Region:           region,
			},
		}},
	}
	if match.FindingID != "" {
		result.PartialFingerprints = map[string]string{"findingId/v1": match.FindingID}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// WriteTo writes the indented JSON log to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling sarif: %w", err)
	}
	data = append(data, '\n')
	n, err := w.Write(data)
	return int64(n), err
}

func displayName(m *types.Match) string {
	if m.PatternName != "" {
		return m.PatternName
	}
	return m.PatternID
}

// formatFileURI turns absolute paths into file:// URIs and leaves relative
// ones as slash-separated paths.
func formatFileURI(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}
