package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type personRepository struct {
	mu         sync.RWMutex
	persons    map[model.PersonID]*model.Person
	identities map[string]*model.PlatformIdentity // keyed by model.IdentityKey
	aliases    map[model.PersonID]model.PersonID  // merged-away ID -> survivor
}

func newPersonRepository() *personRepository {
	return &personRepository{
		persons:    make(map[model.PersonID]*model.Person),
		identities: make(map[string]*model.PlatformIdentity),
		aliases:    make(map[model.PersonID]model.PersonID),
	}
}

func copyPerson(p *model.Person) *model.Person {
	copied := *p
	return &copied
}

func copyIdentity(i *model.PlatformIdentity) *model.PlatformIdentity {
	copied := *i
	return &copied
}

func (r *personRepository) Create(ctx context.Context, person *model.Person) (*model.Person, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyPerson(person)
	if created.ID == "" {
		created.ID = model.NewPersonID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.persons[created.ID] = created
	return copyPerson(created), nil
}

func (r *personRepository) Get(ctx context.Context, id model.PersonID) (*model.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	person, exists := r.persons[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "person not found", goerr.V("id", id))
	}
	return copyPerson(person), nil
}

func (r *personRepository) List(ctx context.Context) ([]*model.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Person, 0, len(r.persons))
	for _, p := range r.persons {
		result = append(result, copyPerson(p))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *personRepository) CreateIdentity(ctx context.Context, identity *model.PlatformIdentity) (*model.PlatformIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := model.IdentityKey(identity.Platform, identity.LocalID)
	if _, exists := r.identities[key]; exists {
		return nil, goerr.Wrap(ErrDuplicate, "platform identity already bound",
			goerr.V("platform", identity.Platform), goerr.V("local_id", identity.LocalID))
	}
	if _, exists := r.persons[identity.PersonID]; !exists {
		return nil, goerr.Wrap(ErrNotFound, "person not found", goerr.V("person_id", identity.PersonID))
	}

	now := time.Now().UTC()
	created := copyIdentity(identity)
	if created.ID == "" {
		created.ID = model.NewIdentityID()
	}
	created.FirstSeenAt = now
	created.LastSeenAt = now

	r.identities[key] = created
	return copyIdentity(created), nil
}

func (r *personRepository) GetIdentity(ctx context.Context, platform types.Platform, localID string) (*model.PlatformIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, exists := r.identities[model.IdentityKey(platform, localID)]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "platform identity not found",
			goerr.V("platform", platform), goerr.V("local_id", localID))
	}
	return copyIdentity(identity), nil
}

func (r *personRepository) ListIdentities(ctx context.Context, personID model.PersonID) ([]*model.PlatformIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.PlatformIdentity
	for _, identity := range r.identities {
		if identity.PersonID == personID {
			result = append(result, copyIdentity(identity))
		}
	}
	sortIdentities(result)
	return result, nil
}

func (r *personRepository) ListAllIdentities(ctx context.Context) ([]*model.PlatformIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.PlatformIdentity, 0, len(r.identities))
	for _, identity := range r.identities {
		result = append(result, copyIdentity(identity))
	}
	sortIdentities(result)
	return result, nil
}

func (r *personRepository) TouchIdentity(ctx context.Context, id model.IdentityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, identity := range r.identities {
		if identity.ID == id {
			identity.LastSeenAt = time.Now().UTC()
			return nil
		}
	}
	return goerr.Wrap(ErrNotFound, "platform identity not found", goerr.V("id", id))
}

func (r *personRepository) ResolveAlias(ctx context.Context, id model.PersonID) (model.PersonID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveAliasLocked(id), nil
}

// resolveAliasLocked follows the alias chain without locking; callers hold mu
func (r *personRepository) resolveAliasLocked(id model.PersonID) model.PersonID {
	seen := make(map[model.PersonID]bool)
	for {
		next, aliased := r.aliases[id]
		if !aliased || seen[id] {
			return id
		}
		seen[id] = true
		id = next
	}
}

func sortIdentities(identities []*model.PlatformIdentity) {
	sort.Slice(identities, func(i, j int) bool {
		ki := model.IdentityKey(identities[i].Platform, identities[i].LocalID)
		kj := model.IdentityKey(identities[j].Platform, identities[j].LocalID)
		return ki < kj
	})
}
