package interfaces

import (
	"context"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/model/auth"
	"github.com/Rubix982/triage/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	Content() ContentRepository
	Relationship() RelationshipRepository
	Person() PersonRepository
	Event() EventRepository
	SearchIndex() SearchIndexRepository

	// MergePersons folds loser into survivor: all platform identities and
	// collaboration events referencing loser are re-parented to survivor, and
	// loser's ID becomes a permanent alias. The operation is atomic: a failure
	// leaves the pre-merge state intact. Merging an already-merged pair is a
	// no-op.
	MergePersons(ctx context.Context, survivorID, loserID model.PersonID) error

	// Auth methods
	PutToken(ctx context.Context, token *auth.Token) error
	GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error)
	GetActiveToken(ctx context.Context, platform types.Platform) (*auth.Token, error)
	DeleteToken(ctx context.Context, tokenID auth.TokenID) error

	Close() error
}
