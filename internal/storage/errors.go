package storage

import "errors"

var (
	// ErrNotFound is returned when a snapshot file or ledger row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCorruptStore is returned when a clause snapshot cannot be decoded.
	ErrCorruptStore = errors.New("clause store corrupt")
	// ErrOutOfRange is returned for a clause position outside [0, Len).
	ErrOutOfRange = errors.New("clause position out of range")
)
