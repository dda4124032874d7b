package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidProfile = errors.New("invalid profile")
	ErrInvalidTier    = errors.New("invalid risk tier")
)
