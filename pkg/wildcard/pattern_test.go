package wildcard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragments(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    []Fragment
	}{
		{"interior wildcards", "a?c?", []Fragment{{"a", 1}, {"c", 3}}},
		{"runs of wildcards", "a??bc?d", []Fragment{{"a", 1}, {"bc", 5}, {"d", 7}}},
		{"leading wildcards", "??ab", []Fragment{{"ab", 4}}},
		{"no wildcard", "secret", []Fragment{{"secret", 6}}},
		{"only wildcards", "???", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fragments(tt.pattern, '?'))
		})
	}
}

func TestParseWildcard(t *testing.T) {
	w, err := ParseWildcard("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWildcard, w)

	w, err = ParseWildcard("*")
	require.NoError(t, err)
	assert.Equal(t, byte('*'), w)

	_, err = ParseWildcard("**")
	assert.ErrorIs(t, err, ErrInvalidWildcard)
}

func TestLongest(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"single fragment", "secret", "secret"},
		{"longest wins", "ab?cde?f", "cde"},
		{"tie keeps leftmost", "abc?xyz", "abc"},
		{"only wildcards", "???", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Longest(Fragments(tt.pattern, '?')))
			assert.Equal(t, tt.want, Compile(tt.pattern, '?').LongestFragment())
		})
	}
}

func TestPattern_Accessors(t *testing.T) {
	p := Compile("ab*cde*f", '*')

	assert.Equal(t, 8, p.Len())
	assert.Equal(t, byte('*'), p.Wildcard())
	assert.Equal(t, "ab*cde*f", p.String())
	assert.Equal(t, "cde", p.LongestFragment())
	assert.Equal(t, "", Compile("**", '*').LongestFragment())

	fragments := p.Fragments()
	fragments[0].Text = "mutated"
	assert.Equal(t, "ab", p.Fragments()[0].Text, "Fragments must return a copy")
}

func TestFindFuzzyMatches(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    []int
	}{
		{"two fragments with gaps", "a?c?", "abcaaccxaxcxacc", []int{0, 3, 4, 8}},
		{"exact substring", "aba", "abababa", []int{0, 2, 4}},
		{"pattern longer than text", "abc?", "abc", nil},
		{"no occurrence", "x?y", "abcabc", nil},
		{"wildcard matches wildcard byte", "a?", "a?", []int{0}},
		{"all wildcards", "??", "abc", []int{0, 1}},
		{"leading and trailing wildcards", "?b?", "abcbd", []int{0, 2}},
		{"empty text", "a", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FindFuzzyMatches(tt.pattern, tt.text, '?'))
		})
	}
}

func TestFindFuzzyMatches_Deterministic(t *testing.T) {
	pattern, text := "s?cr?t", "secret sacrat sxcrxt"

	first := FindFuzzyMatches(pattern, text, '?')
	second := FindFuzzyMatches(pattern, text, '?')

	assert.Equal(t, first, second)
	assert.Equal(t, "s?cr?t", pattern)
	assert.Equal(t, "secret sacrat sxcrxt", text)
}

func TestFindFuzzyMatches_WithoutWildcardIsSubstringSearch(t *testing.T) {
	text := strings.Repeat("the cat sat on the mat; ", 10)
	for _, needle := range []string{"at", "the", "mat; the", "cat sat"} {
		assert.Equal(t, naiveFind(needle, text, '?'), FindFuzzyMatches(needle, text, '?'), needle)
	}
}

// naiveFind checks every alignment of pattern against text.
func naiveFind(pattern, text string, wildcard byte) []int {
	if len(pattern) == 0 {
		return nil
	}
	var out []int
	for start := 0; start+len(pattern) <= len(text); start++ {
		ok := true
		for i := 0; i < len(pattern); i++ {
			if pattern[i] != wildcard && pattern[i] != text[start+i] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, start)
		}
	}
	return out
}

func FuzzFindFuzzyMatches(f *testing.F) {
	f.Add("a?c?", "abcaaccxaxcxacc")
	f.Add("??", "abc")
	f.Add("ab", "abababab")
	f.Add("?a?a?", "aaaaaaaaa")
	f.Add("x", "")

	f.Fuzz(func(t *testing.T, pattern, text string) {
		if len(pattern) > 32 || len(text) > 512 {
			t.Skip()
		}
		want := naiveFind(pattern, text, '?')
		got := FindFuzzyMatches(pattern, text, '?')
		if len(want) == 0 && len(got) == 0 {
			return
		}
		if !assert.Equal(t, want, got) {
			t.Logf("pattern %q text %q", pattern, text)
		}
	})
}
