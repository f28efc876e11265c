package firestore

import (
	"context"
	"net/url"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	personCollection   = "persons"
	identityCollection = "platform_identities"
	aliasCollection    = "person_aliases"
)

type personDoc struct {
	ID          string    `firestore:"ID"`
	DisplayName string    `firestore:"DisplayName"`
	CreatedAt   time.Time `firestore:"CreatedAt"`
	UpdatedAt   time.Time `firestore:"UpdatedAt"`
}

type identityDoc struct {
	ID          string    `firestore:"ID"`
	PersonID    string    `firestore:"PersonID"`
	Platform    string    `firestore:"Platform"`
	LocalID     string    `firestore:"LocalID"`
	Confidence  float64   `firestore:"Confidence"`
	FirstSeenAt time.Time `firestore:"FirstSeenAt"`
	LastSeenAt  time.Time `firestore:"LastSeenAt"`
}

// aliasDoc records that a merged-away person ID now resolves to another.
// The document ID is the merged-away person ID.
type aliasDoc struct {
	Survivor string    `firestore:"Survivor"`
	MergedAt time.Time `firestore:"MergedAt"`
}

func fromPersonDoc(d *personDoc) *model.Person {
	return &model.Person{
		ID:          model.PersonID(d.ID),
		DisplayName: d.DisplayName,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func fromIdentityDoc(d *identityDoc) *model.PlatformIdentity {
	return &model.PlatformIdentity{
		ID:          model.IdentityID(d.ID),
		PersonID:    model.PersonID(d.PersonID),
		Platform:    types.Platform(d.Platform),
		LocalID:     d.LocalID,
		Confidence:  d.Confidence,
		FirstSeenAt: d.FirstSeenAt,
		LastSeenAt:  d.LastSeenAt,
	}
}

// identityDocID keeps one document per (platform, localID) pair. Local IDs
// are escaped because slashes are path separators in Firestore
func identityDocID(platform types.Platform, localID string) string {
	return platform.String() + "__" + url.PathEscape(localID)
}

type personRepository struct {
	client *firestore.Client
}

func newPersonRepository(client *firestore.Client) *personRepository {
	return &personRepository{client: client}
}

func (r *personRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(personCollection)
}

func (r *personRepository) identities() *firestore.CollectionRef {
	return r.client.Collection(identityCollection)
}

func (r *personRepository) aliases() *firestore.CollectionRef {
	return r.client.Collection(aliasCollection)
}

func (r *personRepository) Create(ctx context.Context, person *model.Person) (*model.Person, error) {
	now := time.Now().UTC()
	doc := &personDoc{
		ID:          string(person.ID),
		DisplayName: person.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if doc.ID == "" {
		doc.ID = string(model.NewPersonID())
	}
	if _, err := r.collection().Doc(doc.ID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to save person", goerr.V("person_id", doc.ID))
	}
	return fromPersonDoc(doc), nil
}

func (r *personRepository) Get(ctx context.Context, id model.PersonID) (*model.Person, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "person not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get person", goerr.V("id", id))
	}

	var d personDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal person")
	}
	return fromPersonDoc(&d), nil
}

func (r *personRepository) List(ctx context.Context) ([]*model.Person, error) {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var result []*model.Person
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate persons")
		}
		var d personDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal person")
		}
		result = append(result, fromPersonDoc(&d))
	}
	return result, nil
}

func (r *personRepository) CreateIdentity(ctx context.Context, identity *model.PlatformIdentity) (*model.PlatformIdentity, error) {
	docRef := r.identities().Doc(identityDocID(identity.Platform, identity.LocalID))
	personRef := r.collection().Doc(string(identity.PersonID))

	now := time.Now().UTC()
	created := &identityDoc{
		ID:          string(identity.ID),
		PersonID:    string(identity.PersonID),
		Platform:    identity.Platform.String(),
		LocalID:     identity.LocalID,
		Confidence:  identity.Confidence,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	if created.ID == "" {
		created.ID = string(model.NewIdentityID())
	}

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err == nil {
			return goerr.Wrap(ErrDuplicate, "platform identity already bound",
				goerr.V("platform", identity.Platform),
				goerr.V("local_id", identity.LocalID))
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to read identity")
		}

		if _, err := tx.Get(personRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "person not found", goerr.V("person_id", identity.PersonID))
			}
			return goerr.Wrap(err, "failed to read person")
		}

		return tx.Set(docRef, created)
	})
	if err != nil {
		return nil, txError(err)
	}
	return fromIdentityDoc(created), nil
}

func (r *personRepository) GetIdentity(ctx context.Context, platform types.Platform, localID string) (*model.PlatformIdentity, error) {
	doc, err := r.identities().Doc(identityDocID(platform, localID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "platform identity not found",
				goerr.V("platform", platform), goerr.V("local_id", localID))
		}
		return nil, goerr.Wrap(err, "failed to get identity")
	}

	var d identityDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal identity")
	}
	return fromIdentityDoc(&d), nil
}

func (r *personRepository) ListIdentities(ctx context.Context, personID model.PersonID) ([]*model.PlatformIdentity, error) {
	return r.queryIdentities(ctx, r.identities().Where("PersonID", "==", string(personID)))
}

func (r *personRepository) ListAllIdentities(ctx context.Context) ([]*model.PlatformIdentity, error) {
	return r.queryIdentities(ctx, r.identities().Query)
}

func (r *personRepository) queryIdentities(ctx context.Context, q firestore.Query) ([]*model.PlatformIdentity, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*model.PlatformIdentity
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate identities")
		}
		var d identityDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal identity")
		}
		result = append(result, fromIdentityDoc(&d))
	}
	return result, nil
}

func (r *personRepository) TouchIdentity(ctx context.Context, id model.IdentityID) error {
	iter := r.identities().Where("ID", "==", string(id)).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return goerr.Wrap(ErrNotFound, "platform identity not found", goerr.V("id", id))
	}
	if err != nil {
		return goerr.Wrap(err, "failed to query identity", goerr.V("id", id))
	}

	if _, err := doc.Ref.Update(ctx, []firestore.Update{
		{Path: "LastSeenAt", Value: time.Now().UTC()},
	}); err != nil {
		return goerr.Wrap(err, "failed to touch identity", goerr.V("id", id))
	}
	return nil
}

// ResolveAlias follows merge records until it reaches an ID that was never
// merged away. A visited set guards against malformed cyclic alias chains.
func (r *personRepository) ResolveAlias(ctx context.Context, id model.PersonID) (model.PersonID, error) {
	visited := map[model.PersonID]bool{}
	current := id
	for !visited[current] {
		visited[current] = true

		doc, err := r.aliases().Doc(string(current)).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return current, nil
			}
			return "", goerr.Wrap(err, "failed to resolve alias", goerr.V("person_id", id))
		}

		var d aliasDoc
		if err := doc.DataTo(&d); err != nil {
			return "", goerr.Wrap(err, "failed to unmarshal alias")
		}
		current = model.PersonID(d.Survivor)
	}
	return current, nil
}
