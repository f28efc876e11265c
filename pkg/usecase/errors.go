package usecase

import "errors"

// Sentinel errors for use case layer
var (
	ErrContentNotFound = errors.New("content not found")
	ErrPersonNotFound  = errors.New("person not found")

	// Access control errors
	ErrAccessDenied = errors.New("no active access token for platform")
)
