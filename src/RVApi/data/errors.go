package data

import "errors"

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("duplicate transaction reference")
	// ErrAlreadySubmitted means the purchase's review permission was already
	// consumed by a competing submission.
	ErrAlreadySubmitted = errors.New("review already submitted for this purchase")
)
