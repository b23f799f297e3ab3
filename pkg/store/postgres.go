package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store on a PostgreSQL server.
type PostgresStore struct {
	*sqlStore
}

// NewPostgres connects to the server named by dsn and creates the schema.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s, err := newPostgresFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresFromDB(db *sql.DB) (*PostgresStore, error) {
	if err := CreateSchema(db, postgresDialect); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &PostgresStore{&sqlStore{db: db, d: postgresDialect}}, nil
}
