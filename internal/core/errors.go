package core

import "errors"

var (
	// ErrConfiguration marks a missing or unwritable output directory.
	ErrConfiguration = errors.New("configuration error")
	// ErrWriteFailure marks an I/O failure while appending to a log. It is never retried.
	ErrWriteFailure = errors.New("write failure")
	// ErrValidation marks caller input that cannot be stored as given.
	ErrValidation = errors.New("validation error")
)
