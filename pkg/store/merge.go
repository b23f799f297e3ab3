package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the SQLite database files to merge from.
	SourcePaths []string
	// DestPath is the destination SQLite database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	BlobsMerged       int
	PatternsMerged    int
	MatchesMerged     int
	FindingsMerged    int
	ProvenanceMerged  int
	AnnotationsMerged int
	SourcesProcessed  int
}

// mergeTables lists the copied tables in foreign-key order. Surrogate ids
// are left out so the destination assigns its own.
var mergeTables = []struct {
	name    string
	columns []string
	count   func(*MergeStats) *int
}{
	{"blobs", []string{"id", "size"}, func(s *MergeStats) *int { return &s.BlobsMerged }},
	{"patterns", []string{"id", "name", "pattern", "wildcard", "structural_id"}, func(s *MergeStats) *int { return &s.PatternsMerged }},
	{"matches", matchColumnList, func(s *MergeStats) *int { return &s.MatchesMerged }},
	{"findings", []string{"finding_id", "pattern_id", "text"}, func(s *MergeStats) *int { return &s.FindingsMerged }},
	{"provenance", []string{"blob_id", "kind", "path", "payload"}, func(s *MergeStats) *int { return &s.ProvenanceMerged }},
	{"annotations", []string{"kind", "target_id", "status", "comment"}, func(s *MergeStats) *int { return &s.AnnotationsMerged }},
}

// Merge combines several scan databases into one. Rows already present in
// the destination are skipped.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	dest, err := NewSQLite(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer dest.Close()

	stats := &MergeStats{}
	for _, sourcePath := range cfg.SourcePaths {
		if err := mergeFrom(dest.db, sourcePath, stats); err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.SourcesProcessed++
	}
	return stats, nil
}

func mergeFrom(destDB *sql.DB, sourcePath string, stats *MergeStats) error {
	sourceDB, err := sql.Open(sqliteDialect.driver, sourcePath)
	if err != nil {
		return fmt.Errorf("opening source database: %w", err)
	}
	defer sourceDB.Close()

	tx, err := destDB.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range mergeTables {
		n, err := copyTable(tx, sourceDB, table.name, table.columns)
		if err != nil {
			return fmt.Errorf("merging %s: %w", table.name, err)
		}
		*table.count(stats) += n
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// copyTable inserts every row of table from src into tx and returns how many
// rows were new.
func copyTable(tx *sql.Tx, src *sql.DB, table string, columns []string) (int, error) {
	cols := strings.Join(columns, ", ")
	rows, err := src.Query("SELECT " + cols + " FROM " + table)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare("INSERT INTO " + table + " (" + cols + ") VALUES (" + placeholders + ") ON CONFLICT DO NOTHING")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		result, err := stmt.Exec(values...)
		if err != nil {
			return count, err
		}
		if affected, _ := result.RowsAffected(); affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
