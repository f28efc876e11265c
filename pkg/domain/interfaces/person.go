package interfaces

import (
	"context"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
)

// PersonRepository defines the interface for Person and PlatformIdentity
// persistence. The Identity Resolver is the only writer of these tables.
type PersonRepository interface {
	// Create creates a new canonical person
	Create(ctx context.Context, person *model.Person) (*model.Person, error)

	// Get retrieves a person by ID. A merged-away ID does not resolve here;
	// use ResolveAlias first.
	Get(ctx context.Context, id model.PersonID) (*model.Person, error)

	// List retrieves all live (non-aliased) persons
	List(ctx context.Context) ([]*model.Person, error)

	// CreateIdentity binds a platform-local identity to a person. Fails if the
	// (platform, localID) pair is already bound.
	CreateIdentity(ctx context.Context, identity *model.PlatformIdentity) (*model.PlatformIdentity, error)

	// GetIdentity retrieves the binding for a (platform, localID) pair
	GetIdentity(ctx context.Context, platform types.Platform, localID string) (*model.PlatformIdentity, error)

	// ListIdentities retrieves all identities bound to a person
	ListIdentities(ctx context.Context, personID model.PersonID) ([]*model.PlatformIdentity, error)

	// ListAllIdentities retrieves every platform identity binding
	ListAllIdentities(ctx context.Context) ([]*model.PlatformIdentity, error)

	// TouchIdentity updates the LastSeenAt timestamp of a binding
	TouchIdentity(ctx context.Context, id model.IdentityID) error

	// ResolveAlias follows the permanent alias chain left behind by merges.
	// It returns the surviving PersonID for any current or merged-away ID;
	// the input is returned unchanged when no alias exists.
	ResolveAlias(ctx context.Context, id model.PersonID) (model.PersonID, error)
}
