package service

import "errors"

// Sentinel error kinds returned to the HTTP layer.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrSuperseded    = errors.New("superseded by a newer request for the session")
	ErrBackpressure  = errors.New("batch queue full")
	ErrBatchTooLarge = errors.New("batch too large")
	ErrEmptyBatch    = errors.New("batch has no profiles")
)
