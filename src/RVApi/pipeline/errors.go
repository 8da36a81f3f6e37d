package pipeline

import "errors"

var (
	// ErrValidation rejects malformed input before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrIneligible means the purchase exists but cannot author a review:
	// unverified, already reviewed, or buyer/product mismatch.
	ErrIneligible = errors.New("purchase not verified or review not allowed")
)
