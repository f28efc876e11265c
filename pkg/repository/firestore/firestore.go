package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/Rubix982/triage/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

type Firestore struct {
	client       *firestore.Client
	content      *contentRepository
	relationship *relationshipRepository
	person       *personRepository
	event        *eventRepository
	searchIndex  *searchIndexRepository
	tokens       *tokenRepository
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	return &Firestore{
		client:       client,
		content:      newContentRepository(client),
		relationship: newRelationshipRepository(client),
		person:       newPersonRepository(client),
		event:        newEventRepository(client),
		searchIndex:  newSearchIndexRepository(client),
		tokens:       newTokenRepository(client),
	}, nil
}

func (f *Firestore) Content() interfaces.ContentRepository {
	return f.content
}

func (f *Firestore) Relationship() interfaces.RelationshipRepository {
	return f.relationship
}

func (f *Firestore) Person() interfaces.PersonRepository {
	return f.person
}

func (f *Firestore) Event() interfaces.EventRepository {
	return f.event
}

func (f *Firestore) SearchIndex() interfaces.SearchIndexRepository {
	return f.searchIndex
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
