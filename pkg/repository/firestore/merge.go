package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Rubix982/triage/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MergePersons folds loser into survivor inside a single transaction. All
// identity and event documents pointing at loser are re-parented, the loser
// person document is removed, and an alias document keeps old references
// resolvable. Merging IDs that already resolve to the same person is a no-op.
func (f *Firestore) MergePersons(ctx context.Context, survivorID, loserID model.PersonID) error {
	survivor, err := f.person.ResolveAlias(ctx, survivorID)
	if err != nil {
		return err
	}
	loser, err := f.person.ResolveAlias(ctx, loserID)
	if err != nil {
		return err
	}
	if survivor == loser {
		return nil
	}

	survivorRef := f.person.collection().Doc(string(survivor))
	loserRef := f.person.collection().Doc(string(loser))

	err = f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Firestore transactions require all reads before any write
		if _, err := tx.Get(survivorRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "survivor person not found", goerr.V("person_id", survivor))
			}
			return goerr.Wrap(err, "failed to read survivor")
		}
		if _, err := tx.Get(loserRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "loser person not found", goerr.V("person_id", loser))
			}
			return goerr.Wrap(err, "failed to read loser")
		}

		identityRefs, err := collectRefs(tx, f.person.identities().Where("PersonID", "==", string(loser)))
		if err != nil {
			return err
		}
		actorRefs, err := collectRefs(tx, f.event.collection().Where("ActorID", "==", string(loser)))
		if err != nil {
			return err
		}
		subjectRefs, err := collectRefs(tx, f.event.collection().Where("SubjectID", "==", string(loser)))
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		for _, ref := range identityRefs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "PersonID", Value: string(survivor)},
			}); err != nil {
				return goerr.Wrap(err, "failed to re-parent identity")
			}
		}
		for _, ref := range actorRefs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "ActorID", Value: string(survivor)},
			}); err != nil {
				return goerr.Wrap(err, "failed to re-parent event actor")
			}
		}
		for _, ref := range subjectRefs {
			if err := tx.Update(ref, []firestore.Update{
				{Path: "SubjectID", Value: string(survivor)},
			}); err != nil {
				return goerr.Wrap(err, "failed to re-parent event subject")
			}
		}

		if err := tx.Delete(loserRef); err != nil {
			return goerr.Wrap(err, "failed to delete merged person")
		}
		if err := tx.Set(f.person.aliases().Doc(string(loser)), &aliasDoc{
			Survivor: string(survivor),
			MergedAt: now,
		}); err != nil {
			return goerr.Wrap(err, "failed to record alias")
		}
		if err := tx.Update(survivorRef, []firestore.Update{
			{Path: "UpdatedAt", Value: now},
		}); err != nil {
			return goerr.Wrap(err, "failed to touch survivor")
		}
		return nil
	})
	if err != nil {
		return goerr.Wrap(txError(err), "merge transaction failed",
			goerr.V("survivor_id", survivor), goerr.V("loser_id", loser))
	}
	return nil
}

func collectRefs(tx *firestore.Transaction, q firestore.Query) ([]*firestore.DocumentRef, error) {
	iter := tx.Documents(q)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query documents in transaction")
		}
		refs = append(refs, doc.Ref)
	}
	return refs, nil
}
