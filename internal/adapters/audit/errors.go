package audit

import "errors"

// Sentinel kinds for audit errors.
var (
	ErrUnknownSink  = errors.New("unknown audit sink")
	ErrSinkConfig   = errors.New("invalid audit sink configuration")
	ErrRecordFailed = errors.New("audit record failed")
)
