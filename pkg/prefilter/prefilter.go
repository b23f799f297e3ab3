// Package prefilter narrows the set of patterns worth running on a blob by
// searching for each pattern's longest literal fragment first.
package prefilter

import (
	"fmt"
	"sync"

	cloudflare "github.com/cloudflare/ahocorasick"
	aho "github.com/petar-dambovaliev/aho-corasick"
	"github.com/praetorian-inc/wildscan/pkg/types"
)

// Engine selects the multi-keyword search implementation.
type Engine string

const (
	EngineCloudflare Engine = "cloudflare"
	EngineDFA        Engine = "dfa"
)

// ParseEngine validates an engine name. An empty name selects EngineCloudflare.
func ParseEngine(name string) (Engine, error) {
	switch Engine(name) {
	case "", EngineCloudflare:
		return EngineCloudflare, nil
	case EngineDFA:
		return EngineDFA, nil
	default:
		return "", fmt.Errorf("unknown prefilter engine %q (want %s or %s)", name, EngineCloudflare, EngineDFA)
	}
}

// Config configures a Prefilter.
type Config struct {
	Engine Engine
}

// keywordSearch reports the indices of the keywords present in content.
type keywordSearch interface {
	hits(content []byte) []int
}

// cloudflareSearch serializes searches: the matcher marks visited nodes in
// place while matching.
type cloudflareSearch struct {
	mu sync.Mutex
	m  *cloudflare.Matcher
}

func (s *cloudflareSearch) hits(content []byte) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.Match(content)
}

type dfaSearch struct {
	ac aho.AhoCorasick
}

func (s dfaSearch) hits(content []byte) []int {
	var out []int
	iter := s.ac.IterOverlappingByte(content)
	for m := iter.Next(); m != nil; m = iter.Next() {
		out = append(out, m.Pattern())
	}
	return out
}

// Prefilter maps keyword hits back to patterns. It is safe for concurrent use.
type Prefilter struct {
	patterns     []*types.Pattern
	search       keywordSearch  // nil when no pattern has a keyword
	keywordIndex map[string]int // keyword -> position in keywords
	users        [][]int        // keyword position -> indices into patterns
	always       []int          // patterns without a keyword
}

// New builds a prefilter over patterns.
func New(patterns []*types.Pattern, config Config) (*Prefilter, error) {
	pf := &Prefilter{
		patterns:     patterns,
		keywordIndex: make(map[string]int),
	}

	var keywords []string
	for i, p := range patterns {
		kw := p.Keyword()
		if kw == "" {
			pf.always = append(pf.always, i)
			continue
		}
		k, ok := pf.keywordIndex[kw]
		if !ok {
			k = len(keywords)
			pf.keywordIndex[kw] = k
			keywords = append(keywords, kw)
			pf.users = append(pf.users, nil)
		}
		pf.users[k] = append(pf.users[k], i)
	}

	if len(keywords) == 0 {
		return pf, nil
	}

	switch config.Engine {
	case "", EngineCloudflare:
		pf.search = &cloudflareSearch{m: cloudflare.NewStringMatcher(keywords)}
	case EngineDFA:
		// Overlapping iteration needs the default standard match kind.
		builder := aho.NewAhoCorasickBuilder(aho.Opts{DFA: true})
		pf.search = dfaSearch{ac: builder.Build(keywords)}
	default:
		return nil, fmt.Errorf("unknown prefilter engine %q", config.Engine)
	}
	return pf, nil
}

// Filter returns the patterns whose keyword occurs in content, plus every
// pattern without a keyword, in input order.
func (pf *Prefilter) Filter(content []byte) []*types.Pattern {
	selected := make([]bool, len(pf.patterns))
	for _, i := range pf.always {
		selected[i] = true
	}
	if pf.search != nil {
		for _, k := range pf.search.hits(content) {
			for _, i := range pf.users[k] {
				selected[i] = true
			}
		}
	}

	result := make([]*types.Pattern, 0, len(pf.patterns))
	for i, ok := range selected {
		if ok {
			result = append(result, pf.patterns[i])
		}
	}
	return result
}

// Keywords returns the number of distinct keywords being searched.
func (pf *Prefilter) Keywords() int {
	return len(pf.keywordIndex)
}
