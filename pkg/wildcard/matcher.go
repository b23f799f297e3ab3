package wildcard

import (
	"bufio"
	"fmt"
	"io"

	"github.com/praetorian-inc/wildscan/pkg/ahocorasick"
)

// window is a fixed-capacity FIFO of per-position vote counters. Index 0 is
// the oldest position.
type window struct {
	counts []int
	start  int
	size   int
}

func (w *window) push() {
	if w.size == len(w.counts) {
		w.start = (w.start + 1) % len(w.counts)
		w.size--
	}
	w.counts[(w.start+w.size)%len(w.counts)] = 0
	w.size++
}

func (w *window) at(i int) *int {
	return &w.counts[(w.start+i)%len(w.counts)]
}

func (w *window) full() bool {
	return w.size == len(w.counts)
}

func (w *window) clear() {
	w.start = 0
	w.size = 0
}

// Matcher scans a byte stream for occurrences of one wildcard pattern.
// It keeps O(len(pattern)) state regardless of stream length.
// A Matcher is not safe for concurrent use.
type Matcher struct {
	pattern *Pattern
	state   ahocorasick.NodeRef
	window  window
}

// Init compiles pattern and positions the matcher at the start of a stream.
func (m *Matcher) Init(pattern string, wildcard byte) {
	m.attach(Compile(pattern, wildcard))
}

func (m *Matcher) attach(p *Pattern) {
	m.pattern = p
	m.window = window{counts: make([]int, p.Len())}
	m.state = p.automaton.Root()
}

// Pattern returns the compiled pattern, or nil before Init.
func (m *Matcher) Pattern() *Pattern {
	return m.pattern
}

// Reset starts a new stream. Nothing scanned before Reset affects later matches.
func (m *Matcher) Reset() {
	if m.pattern == nil {
		panic(ErrNotInitialized)
	}
	m.state = m.pattern.automaton.Root()
	m.window.clear()
}

// Scan consumes one byte and calls onMatch, synchronously, when the last
// len(pattern) bytes of the stream match the pattern.
//
// A pattern made only of wildcards matches at every position once enough
// bytes have been read. An empty pattern never matches.
func (m *Matcher) Scan(ch byte, onMatch func()) {
	if m.pattern == nil {
		panic(ErrNotInitialized)
	}
	if m.pattern.Len() == 0 {
		return
	}

	m.window.push()
	m.state = m.state.Next(ch)

	size := m.window.size
	m.pattern.automaton.GenerateMatches(m.state, func(id int) {
		back := id - 1
		if back < size {
			*m.window.at(size - 1 - back)++
		}
	})

	if m.window.full() && *m.window.at(0) == len(m.pattern.fragments) {
		onMatch()
	}
}

// ScanReader scans every byte of r and calls onMatch with the offset of the
// last byte of each match.
func (m *Matcher) ScanReader(r io.Reader, onMatch func(end int64)) error {
	br := bufio.NewReader(r)

	var offset int64
	fire := func() { onMatch(offset) }
	for {
		ch, err := br.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input at offset %d: %w", offset, err)
		}
		m.Scan(ch, fire)
		offset++
	}
}

// FindFuzzyMatches returns the starting offset of every occurrence of pattern
// in text, in increasing order.
func FindFuzzyMatches(pattern, text string, wildcard byte) []int {
	var m Matcher
	m.Init(pattern, wildcard)

	var occurrences []int
	offset := 0
	record := func() {
		occurrences = append(occurrences, offset+1-len(pattern))
	}
	for ; offset < len(text); offset++ {
		m.Scan(text[offset], record)
	}
	return occurrences
}
