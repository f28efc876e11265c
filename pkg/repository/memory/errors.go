package memory

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for the in-memory backend
var (
	ErrNotFound  = goerr.New("not found")
	ErrConflict  = goerr.New("conflicting write")
	ErrDuplicate = goerr.New("duplicate key")
)
