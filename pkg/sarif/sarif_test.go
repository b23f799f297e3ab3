package sarif

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/praetorian-inc/wildscan/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awsPattern() *types.Pattern {
	return &types.Pattern{
		ID:          "ws.aws.access_key_id",
		Name:        "AWS Access Key ID",
		Pattern:     "AKIA????????????????",
		Description: "Long-lived AWS access key",
		References:  []string{"https://docs.aws.amazon.com/IAM/latest/UserGuide/id_credentials_access-keys.html"},
		Categories:  []string{"cloud", "secret"},
	}
}

func awsMatch() *types.Match {
	return &types.Match{
		PatternID:   "ws.aws.access_key_id",
		PatternName: "AWS Access Key ID",
		FindingID:   "f00d",
		Location: types.Location{
			Offset: types.OffsetSpan{Start: 100, End: 120},
			Source: types.SourceSpan{
				Start: types.SourcePoint{Line: 10, Column: 5},
				End:   types.SourcePoint{Line: 10, Column: 24},
			},
		},
		Snippet: types.Snippet{Matching: []byte("AKIATESTFAKEKEY12345")},
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport("1.2.3")

	assert.Equal(t, SchemaURI, report.Schema)
	assert.Equal(t, Version, report.Version)
	require.Len(t, report.Runs, 1)
	assert.Equal(t, ToolName, report.Runs[0].Tool.Driver.Name)
	assert.Equal(t, "1.2.3", report.Runs[0].Tool.Driver.Version)
	assert.Empty(t, report.Runs[0].Results)
}

func TestAddPattern(t *testing.T) {
	report := NewReport("dev")
	report.AddPattern(awsPattern())
	report.AddPattern(awsPattern())

	rules := report.Runs[0].Tool.Driver.Rules
	require.Len(t, rules, 1)
	rule := rules[0]
	assert.Equal(t, "ws.aws.access_key_id", rule.ID)
	assert.Equal(t, "AWS Access Key ID", rule.ShortDescription.Text)
	require.NotNil(t, rule.FullDescription)
	assert.Equal(t, "Long-lived AWS access key", rule.FullDescription.Text)
	assert.Contains(t, rule.HelpURI, "docs.aws.amazon.com")
	assert.Equal(t, RuleProperties{Pattern: "AKIA????????????????", Wildcard: "?", Tags: []string{"cloud", "secret"}}, rule.Properties)
}

func TestAddResult(t *testing.T) {
	report := NewReport("dev")
	report.AddPattern(&types.Pattern{ID: "ws.other", Name: "Other"})
	report.AddPattern(awsPattern())
	report.AddResult(awsMatch(), "/path/to/secrets.txt")

	require.Len(t, report.Runs[0].Results, 1)
	result := report.Runs[0].Results[0]
	assert.Equal(t, "ws.aws.access_key_id", result.RuleID)
	assert.Equal(t, 1, result.RuleIndex)
	assert.Equal(t, "warning", result.Level)
	assert.Equal(t, "AWS Access Key ID matched", result.Message.Text)
	assert.Equal(t, map[string]string{"findingId/v1": "f00d"}, result.PartialFingerprints)

	loc := result.Locations[0].PhysicalLocation
	assert.Equal(t, "file:///path/to/secrets.txt", loc.ArtifactLocation.URI)
	assert.Equal(t, Region{
		StartLine:   10,
		StartColumn: 5,
		EndLine:     10,
		EndColumn:   25,
		ByteOffset:  100,
		ByteLength:  20,
		Snippet:     &Message{Text: "AKIATESTFAKEKEY12345"},
	}, loc.Region)
}

func TestAddResult_UnregisteredPattern(t *testing.T) {
	report := NewReport("dev")
	m := awsMatch()
	m.PatternName = ""
	m.Snippet = types.Snippet{}
	report.AddResult(m, "relative/path/file.txt")

	require.Len(t, report.Runs[0].Tool.Driver.Rules, 1)
	result := report.Runs[0].Results[0]
	assert.Equal(t, 0, result.RuleIndex)
	assert.Equal(t, "ws.aws.access_key_id matched", result.Message.Text)
	assert.Equal(t, "relative/path/file.txt", result.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Nil(t, result.Locations[0].PhysicalLocation.Region.Snippet)
}

func TestWriteTo(t *testing.T) {
	report := NewReport("dev")
	report.AddPattern(awsPattern())
	report.AddResult(awsMatch(), "/test/file.txt")

	var buf bytes.Buffer
	n, err := report.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, SchemaURI, parsed["$schema"])
	assert.Equal(t, Version, parsed["version"])
}
