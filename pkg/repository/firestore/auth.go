package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Rubix982/triage/pkg/domain/model/auth"
	"github.com/Rubix982/triage/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const tokenCollection = "user_auth_tokens"

type tokenDoc struct {
	ID          string    `firestore:"ID"`
	UserID      string    `firestore:"UserID"`
	Platform    string    `firestore:"Platform"`
	TeamID      string    `firestore:"TeamID,omitempty"`
	AccessToken string    `firestore:"AccessToken"`
	ExpiresAt   time.Time `firestore:"ExpiresAt"`
	Scopes      []string  `firestore:"Scopes"`
	IsActive    bool      `firestore:"IsActive"`
	CreatedAt   time.Time `firestore:"CreatedAt"`
	LastUsedAt  time.Time `firestore:"LastUsedAt"`
}

func fromTokenDoc(d *tokenDoc) *auth.Token {
	return &auth.Token{
		ID:          auth.TokenID(d.ID),
		UserID:      d.UserID,
		Platform:    types.Platform(d.Platform),
		TeamID:      d.TeamID,
		AccessToken: d.AccessToken,
		ExpiresAt:   d.ExpiresAt,
		Scopes:      d.Scopes,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		LastUsedAt:  d.LastUsedAt,
	}
}

type tokenRepository struct {
	client *firestore.Client
}

func newTokenRepository(client *firestore.Client) *tokenRepository {
	return &tokenRepository{client: client}
}

func (r *tokenRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(tokenCollection)
}

func (f *Firestore) PutToken(ctx context.Context, token *auth.Token) error {
	doc := &tokenDoc{
		ID:          string(token.ID),
		UserID:      token.UserID,
		Platform:    token.Platform.String(),
		TeamID:      token.TeamID,
		AccessToken: token.AccessToken,
		ExpiresAt:   token.ExpiresAt,
		Scopes:      token.Scopes,
		IsActive:    token.IsActive,
		CreatedAt:   token.CreatedAt,
		LastUsedAt:  token.LastUsedAt,
	}
	if doc.ID == "" {
		doc.ID = string(auth.NewTokenID())
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := f.tokens.collection().Doc(doc.ID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to save token", goerr.V("token_id", doc.ID))
	}
	return nil
}

func (f *Firestore) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	doc, err := f.tokens.collection().Doc(string(tokenID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
		}
		return nil, goerr.Wrap(err, "failed to get token", goerr.V("token_id", tokenID))
	}

	var d tokenDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal token")
	}
	return fromTokenDoc(&d), nil
}

// GetActiveToken returns the most recently used token for the platform that is
// still active and unexpired
func (f *Firestore) GetActiveToken(ctx context.Context, platform types.Platform) (*auth.Token, error) {
	iter := f.tokens.collection().
		Where("Platform", "==", platform.String()).
		Where("IsActive", "==", true).
		Documents(ctx)
	defer iter.Stop()

	now := time.Now().UTC()
	var best *auth.Token
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tokens", goerr.V("platform", platform))
		}
		var d tokenDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal token")
		}
		token := fromTokenDoc(&d)
		if !token.Usable(now) {
			continue
		}
		if best == nil || token.LastUsedAt.After(best.LastUsedAt) {
			best = token
		}
	}
	if best == nil {
		return nil, goerr.Wrap(ErrNotFound, "no active token", goerr.V("platform", platform))
	}
	return best, nil
}

func (f *Firestore) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	docRef := f.tokens.collection().Doc(string(tokenID))
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
		}
		return goerr.Wrap(err, "failed to get token", goerr.V("token_id", tokenID))
	}
	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete token", goerr.V("token_id", tokenID))
	}
	return nil
}
