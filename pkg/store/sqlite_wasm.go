//go:build wasm

package store

import "errors"

// SQLiteStore is unavailable in wasm builds; use the memory store.
type SQLiteStore struct {
	*sqlStore
}

func NewSQLite(path string) (*SQLiteStore, error) {
	return nil, errors.New("sqlite store is not supported in wasm builds")
}
