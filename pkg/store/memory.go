package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

type provenanceRecord struct {
	payload string
	prov    types.Provenance
}

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu         sync.RWMutex
	blobs      map[types.BlobID]int64
	patterns   map[string]*types.Pattern
	matches    []*types.Match
	matchIDs   map[string]struct{}
	findings   map[string]*types.Finding
	provenance map[types.BlobID][]provenanceRecord
	notes      map[[2]string][2]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		blobs:      make(map[types.BlobID]int64),
		patterns:   make(map[string]*types.Pattern),
		matchIDs:   make(map[string]struct{}),
		findings:   make(map[string]*types.Finding),
		provenance: make(map[types.BlobID][]provenanceRecord),
		notes:      make(map[[2]string][2]string),
	}
}

func (m *MemoryStore) AddBlob(id types.BlobID, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.blobs[id]; !exists {
		m.blobs[id] = size
	}
	return nil
}

func (m *MemoryStore) AddPattern(p *types.Pattern) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.patterns[p.ID] = p
	return nil
}

func (m *MemoryStore) AddMatch(match *types.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.matchIDs[match.StructuralID]; exists {
		return nil
	}
	m.matchIDs[match.StructuralID] = struct{}{}
	m.matches = append(m.matches, match)
	return nil
}

func (m *MemoryStore) AddFinding(f *types.Finding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.findings[f.ID]; !exists {
		m.findings[f.ID] = f
	}
	return nil
}

func (m *MemoryStore) AddProvenance(blobID types.BlobID, prov types.Provenance) error {
	payload, err := encodeProvenance(prov)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.provenance[blobID] {
		if rec.payload == payload {
			return nil
		}
	}
	m.provenance[blobID] = append(m.provenance[blobID], provenanceRecord{payload: payload, prov: prov})
	return nil
}

func (m *MemoryStore) GetMatches(blobID types.BlobID) ([]*types.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []*types.Match{}
	for _, match := range m.matches {
		if match.BlobID == blobID {
			result = append(result, match)
		}
	}
	return result, nil
}

func (m *MemoryStore) GetAllMatches() ([]*types.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Match, len(m.matches))
	copy(result, m.matches)
	return result, nil
}

// GetFindings returns findings sorted by ID. Stored matches are attached
// to each finding by FindingID.
func (m *MemoryStore) GetFindings() ([]*types.Finding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byFinding := make(map[string][]*types.Match)
	for _, match := range m.matches {
		byFinding[match.FindingID] = append(byFinding[match.FindingID], match)
	}

	result := make([]*types.Finding, 0, len(m.findings))
	for _, f := range m.findings {
		out := *f
		if stored := byFinding[f.ID]; len(stored) > 0 {
			out.Matches = stored
		}
		result = append(result, &out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStore) GetProvenance(blobID types.BlobID) ([]types.Provenance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := m.provenance[blobID]
	result := make([]types.Provenance, len(recs))
	for i, rec := range recs {
		result[i] = rec.prov
	}
	return result, nil
}

func (m *MemoryStore) SetAnnotation(kind, id, status, comment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notes[[2]string{kind, id}] = [2]string{status, comment}
	return nil
}

func (m *MemoryStore) GetAnnotation(kind, id string) (string, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	note := m.notes[[2]string{kind, id}]
	return note[0], note[1], nil
}

func (m *MemoryStore) FindingExists(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.findings[id]
	return exists, nil
}

func (m *MemoryStore) BlobExists(id types.BlobID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.blobs[id]
	return exists, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
