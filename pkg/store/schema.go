package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// dialect captures the SQL differences between SQLite and PostgreSQL.
type dialect struct {
	name   string
	driver string
	serial string // auto-incrementing primary key column
	bytes  string // binary column type
	dollar bool   // $1, $2 ... placeholders instead of ?
}

var (
	sqliteDialect = dialect{
		name:   "sqlite",
		driver: "sqlite",
		serial: "INTEGER PRIMARY KEY AUTOINCREMENT",
		bytes:  "BLOB",
	}
	postgresDialect = dialect{
		name:   "postgres",
		driver: "pgx",
		serial: "BIGSERIAL PRIMARY KEY",
		bytes:  "BYTEA",
		dollar: true,
	}
)

// rebind rewrites ? placeholders for the dialect.
func (d dialect) rebind(query string) string {
	if !d.dollar {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (d dialect) statements() []struct{ table, ddl string } {
	return []struct{ table, ddl string }{
		{"blobs", `
		CREATE TABLE IF NOT EXISTS blobs (
			id TEXT PRIMARY KEY NOT NULL,
			size BIGINT NOT NULL
		)`},
		{"patterns", `
		CREATE TABLE IF NOT EXISTS patterns (
			id TEXT PRIMARY KEY NOT NULL,
			name TEXT NOT NULL,
			pattern TEXT NOT NULL,
			wildcard TEXT NOT NULL,
			structural_id TEXT NOT NULL
		)`},
		{"matches", `
		CREATE TABLE IF NOT EXISTS matches (
			id ` + d.serial + `,
			blob_id TEXT NOT NULL REFERENCES blobs(id),
			pattern_id TEXT NOT NULL,
			pattern_name TEXT NOT NULL,
			structural_id TEXT NOT NULL UNIQUE,
			finding_id TEXT NOT NULL,
			offset_start BIGINT NOT NULL,
			offset_end BIGINT NOT NULL,
			start_line INTEGER NOT NULL,
			start_column INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_column INTEGER NOT NULL,
			snippet_before ` + d.bytes + `,
			snippet_matching ` + d.bytes + `,
			snippet_after ` + d.bytes + `
		)`},
		{"findings", `
		CREATE TABLE IF NOT EXISTS findings (
			id ` + d.serial + `,
			finding_id TEXT NOT NULL UNIQUE,
			pattern_id TEXT NOT NULL,
			text ` + d.bytes + `
		)`},
		{"provenance", `
		CREATE TABLE IF NOT EXISTS provenance (
			id ` + d.serial + `,
			blob_id TEXT NOT NULL REFERENCES blobs(id),
			kind TEXT NOT NULL,
			path TEXT NOT NULL,
			payload TEXT NOT NULL,
			UNIQUE(blob_id, kind, payload)
		)`},
		{"annotations", `
		CREATE TABLE IF NOT EXISTS annotations (
			kind TEXT NOT NULL,
			target_id TEXT NOT NULL,
			status TEXT NOT NULL,
			comment TEXT NOT NULL,
			PRIMARY KEY (kind, target_id)
		)`},
		{"provenance index", `CREATE INDEX IF NOT EXISTS idx_provenance_blob_id ON provenance(blob_id)`},
		{"matches index", `CREATE INDEX IF NOT EXISTS idx_matches_blob_id ON matches(blob_id)`},
	}
}

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB, d dialect) error {
	if err := createSchemaVersionTable(db, d); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	for _, stmt := range d.statements() {
		if _, err := db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("creating %s: %w", stmt.table, err)
		}
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB, d dialect) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`)
	if err != nil {
		return err
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec(d.rebind("INSERT INTO schema_version (version) VALUES (?)"), SchemaVersion)
		return err
	}
	return nil
}
