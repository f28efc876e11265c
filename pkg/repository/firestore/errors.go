package firestore

import (
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Sentinel errors for the Firestore backend
var (
	ErrNotFound  = goerr.New("not found")
	ErrConflict  = goerr.New("conflicting write")
	ErrDuplicate = goerr.New("duplicate key")
)

// txError maps a transaction that exhausted its retries under contention onto
// the conflict sentinel; other failures pass through unchanged.
func txError(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Aborted {
		return goerr.Wrap(ErrConflict, "transaction aborted by contention")
	}
	return err
}
