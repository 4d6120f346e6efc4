package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrLoadSnapshot   = errors.New("failed to load snapshot")
	ErrSaveSnapshot   = errors.New("failed to save snapshot")
	ErrSchemaMismatch = errors.New("snapshot schema version mismatch")
	ErrClosed         = errors.New("store is closed")
)
