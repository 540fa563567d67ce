package table

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a single-record lookup matched nothing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means an insert collided with an existing primary key.
	ErrConflict = errors.New("primary key conflict")
	// ErrDestroyed means the table was used after Destroy.
	ErrDestroyed = errors.New("table destroyed")
)

// StorageError wraps a failure reported by the storage engine.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s on %q: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or already one of the table
// package's errors.
func NewStorageError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Table: table, Err: err}
}
