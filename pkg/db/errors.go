package db

import "errors"

// Common errors returned by Store implementations
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("conflicting record state")
)
