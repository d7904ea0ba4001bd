package usecase

import "errors"

var (
	// ErrValidation covers malformed kinds, timestamps, URLs and payloads.
	// Never retried automatically.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is an unknown clip or tag id.
	ErrNotFound = errors.New("not found")

	// ErrCapacity is an image exceeding the configured hard byte budget.
	ErrCapacity = errors.New("content too large")
)
