package storage

import "errors"

// Sentinel errors shared by every Storage implementation. Handlers map
// them to HTTP statuses at the request boundary; stores wrap them with
// detail via fmt.Errorf("...: %w", Err...).
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)
