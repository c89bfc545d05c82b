// Package errors holds the storage-level errors shared by every record
// backend.
package errors

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrEmptyKey     = errors.New("empty record key")
	ErrInvalidData  = errors.New("invalid record data")
	ErrEntityExists = errors.New("record already exists")
)
