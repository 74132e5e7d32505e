package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"musicbingo/models"
)

// Store is the whole-document session table. Every mutation is a load, an
// in-memory change and a save of the full table. There is no locking and no
// compare-and-swap: concurrent writers race and the last save wins.
type Store interface {
	// Load returns the full table. A missing document is an empty table, not an error.
	Load(ctx context.Context) (models.Table, error)
	// Save replaces the full table.
	Save(ctx context.Context, table models.Table) error
}

// StoreError wraps every failure of a store backend so callers can tell
// store trouble apart from game-rule errors.
type StoreError struct {
	Op  string // "load" or "save"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err came from a store backend.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func loadError(err error) error {
	return &StoreError{Op: "load", Err: err}
}

func saveError(err error) error {
	return &StoreError{Op: "save", Err: err}
}

// decodeTable parses a stored document. Empty bodies and JSON null decode to
// an empty table, as do null entries inside the mapping.
func decodeTable(body []byte) (models.Table, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return models.Table{}, nil
	}
	var table models.Table
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("decode session table: %w", err)
	}
	if table == nil {
		return models.Table{}, nil
	}
	for code, s := range table {
		if s == nil {
			delete(table, code)
		}
	}
	return table, nil
}

func encodeTable(table models.Table) ([]byte, error) {
	if table == nil {
		table = models.Table{}
	}
	body, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("encode session table: %w", err)
	}
	return body, nil
}
