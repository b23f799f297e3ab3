package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/praetorian-inc/wildscan/pkg/types"
)

// sqlStore implements Store on database/sql. SQLiteStore and PostgresStore
// differ only in driver and dialect.
type sqlStore struct {
	db *sql.DB
	d  dialect
}

var matchColumnList = []string{
	"blob_id", "pattern_id", "pattern_name", "structural_id", "finding_id",
	"offset_start", "offset_end", "start_line", "start_column", "end_line", "end_column",
	"snippet_before", "snippet_matching", "snippet_after",
}

var matchColumns = strings.Join(matchColumnList, ", ")

func (s *sqlStore) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.d.rebind(query), args...)
}

func (s *sqlStore) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.d.rebind(query), args...)
}

func (s *sqlStore) AddBlob(id types.BlobID, size int64) error {
	_, err := s.exec("INSERT INTO blobs (id, size) VALUES (?, ?) ON CONFLICT DO NOTHING", id.Hex(), size)
	if err != nil {
		return fmt.Errorf("inserting blob: %w", err)
	}
	return nil
}

func (s *sqlStore) AddPattern(p *types.Pattern) error {
	_, err := s.exec(`
		INSERT INTO patterns (id, name, pattern, wildcard, structural_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			pattern = excluded.pattern,
			wildcard = excluded.wildcard,
			structural_id = excluded.structural_id
	`,
		p.ID,
		p.Name,
		p.Pattern,
		string([]byte{p.WildcardByte()}),
		p.StructuralID,
	)
	if err != nil {
		return fmt.Errorf("inserting pattern: %w", err)
	}
	return nil
}

func (s *sqlStore) AddMatch(m *types.Match) error {
	_, err := s.exec(`
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		m.BlobID.Hex(),
		m.PatternID,
		m.PatternName,
		m.StructuralID,
		m.FindingID,
		m.Location.Offset.Start,
		m.Location.Offset.End,
		m.Location.Source.Start.Line,
		m.Location.Source.Start.Column,
		m.Location.Source.End.Line,
		m.Location.Source.End.Column,
		m.Snippet.Before,
		m.Snippet.Matching,
		m.Snippet.After,
	)
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}

func (s *sqlStore) AddFinding(f *types.Finding) error {
	_, err := s.exec(`
		INSERT INTO findings (finding_id, pattern_id, text)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
	`, f.ID, f.PatternID, f.Text)
	if err != nil {
		return fmt.Errorf("inserting finding: %w", err)
	}
	return nil
}

func (s *sqlStore) AddProvenance(blobID types.BlobID, prov types.Provenance) error {
	payload, err := encodeProvenance(prov)
	if err != nil {
		return err
	}

	_, err = s.exec(`
		INSERT INTO provenance (blob_id, kind, path, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`, blobID.Hex(), prov.Kind(), prov.Path(), payload)
	if err != nil {
		return fmt.Errorf("inserting provenance: %w", err)
	}
	return nil
}

func (s *sqlStore) GetMatches(blobID types.BlobID) ([]*types.Match, error) {
	rows, err := s.query("SELECT "+matchColumns+" FROM matches WHERE blob_id = ? ORDER BY id", blobID.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	return scanMatches(rows)
}

func (s *sqlStore) GetAllMatches() ([]*types.Match, error) {
	rows, err := s.query("SELECT " + matchColumns + " FROM matches ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	return scanMatches(rows)
}

func scanMatches(rows *sql.Rows) ([]*types.Match, error) {
	defer rows.Close()

	matches := []*types.Match{}
	for rows.Next() {
		var m types.Match
		var blobIDHex string

		err := rows.Scan(
			&blobIDHex,
			&m.PatternID,
			&m.PatternName,
			&m.StructuralID,
			&m.FindingID,
			&m.Location.Offset.Start,
			&m.Location.Offset.End,
			&m.Location.Source.Start.Line,
			&m.Location.Source.Start.Column,
			&m.Location.Source.End.Line,
			&m.Location.Source.End.Column,
			&m.Snippet.Before,
			&m.Snippet.Matching,
			&m.Snippet.After,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}

		m.BlobID, err = types.ParseBlobID(blobIDHex)
		if err != nil {
			return nil, fmt.Errorf("parsing blob ID: %w", err)
		}
		matches = append(matches, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return matches, nil
}

func (s *sqlStore) GetFindings() ([]*types.Finding, error) {
	rows, err := s.query("SELECT finding_id, pattern_id, text FROM findings ORDER BY finding_id")
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	findings := []*types.Finding{}
	byID := make(map[string]*types.Finding)
	for rows.Next() {
		var f types.Finding
		if err := rows.Scan(&f.ID, &f.PatternID, &f.Text); err != nil {
			return nil, fmt.Errorf("scanning finding: %w", err)
		}
		findings = append(findings, &f)
		byID[f.ID] = &f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating findings: %w", err)
	}
	rows.Close()

	matches, err := s.GetAllMatches()
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if f, ok := byID[m.FindingID]; ok {
			f.Matches = append(f.Matches, m)
		}
	}
	return findings, nil
}

func (s *sqlStore) GetProvenance(blobID types.BlobID) ([]types.Provenance, error) {
	rows, err := s.query("SELECT kind, payload FROM provenance WHERE blob_id = ? ORDER BY id", blobID.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying provenance: %w", err)
	}
	defer rows.Close()

	provs := []types.Provenance{}
	for rows.Next() {
		var kind, payload string
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("scanning provenance: %w", err)
		}
		prov, err := decodeProvenance(kind, payload)
		if err != nil {
			return nil, err
		}
		provs = append(provs, prov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating provenance: %w", err)
	}
	return provs, nil
}

func (s *sqlStore) SetAnnotation(kind, id, status, comment string) error {
	_, err := s.exec(`
		INSERT INTO annotations (kind, target_id, status, comment)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, target_id) DO UPDATE SET
			status = excluded.status,
			comment = excluded.comment
	`, kind, id, status, comment)
	if err != nil {
		return fmt.Errorf("setting annotation: %w", err)
	}
	return nil
}

func (s *sqlStore) GetAnnotation(kind, id string) (string, string, error) {
	var status, comment string
	err := s.db.QueryRow(s.d.rebind("SELECT status, comment FROM annotations WHERE kind = ? AND target_id = ?"), kind, id).
		Scan(&status, &comment)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("getting annotation: %w", err)
	}
	return status, comment, nil
}

func (s *sqlStore) FindingExists(id string) (bool, error) {
	var count int
	err := s.db.QueryRow(s.d.rebind("SELECT COUNT(*) FROM findings WHERE finding_id = ?"), id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking finding existence: %w", err)
	}
	return count > 0, nil
}

func (s *sqlStore) BlobExists(id types.BlobID) (bool, error) {
	var count int
	err := s.db.QueryRow(s.d.rebind("SELECT COUNT(*) FROM blobs WHERE id = ?"), id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking blob existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	return s.db.Close()
}
