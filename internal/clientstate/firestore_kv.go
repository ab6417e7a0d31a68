package clientstate

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/platform/firestore"
)

const clientStateCollection = "clientState"

// FirestoreKV stores each shopper profile as one document in the clientState
// collection, one field per key. Field writes are merged so stores never
// clobber each other's keys.
type FirestoreKV struct {
	provider *pfirestore.Provider
}

// NewFirestoreKV constructs a Firestore-backed client-state store.
func NewFirestoreKV(provider *pfirestore.Provider) (*FirestoreKV, error) {
	if provider == nil {
		return nil, errors.New("clientstate: firestore provider is required")
	}
	return &FirestoreKV{provider: provider}, nil
}

// Get implements KV.
func (s *FirestoreKV) Get(ctx context.Context, profileID, key string) (string, error) {
	doc, err := s.docRef(ctx, profileID)
	if err != nil {
		return "", err
	}

	snap, err := doc.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", ErrKeyNotFound
		}
		return "", pfirestore.WrapError("clientstate.get", err)
	}

	raw, err := snap.DataAt(key)
	if err != nil {
		return "", ErrKeyNotFound
	}
	value, ok := raw.(string)
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set implements KV.
func (s *FirestoreKV) Set(ctx context.Context, profileID, key, value string) error {
	doc, err := s.docRef(ctx, profileID)
	if err != nil {
		return err
	}
	_, err = doc.Set(ctx, map[string]any{key: value}, firestore.MergeAll)
	return pfirestore.WrapError("clientstate.set", err)
}

// Delete implements KV. Deleting an absent key or profile is a no-op.
func (s *FirestoreKV) Delete(ctx context.Context, profileID, key string) error {
	doc, err := s.docRef(ctx, profileID)
	if err != nil {
		return err
	}
	_, err = doc.Update(ctx, []firestore.Update{
		{Path: key, Value: firestore.Delete},
	})
	if err != nil && status.Code(err) == codes.NotFound {
		return nil
	}
	return pfirestore.WrapError("clientstate.delete", err)
}

func (s *FirestoreKV) docRef(ctx context.Context, profileID string) (*firestore.DocumentRef, error) {
	id := strings.TrimSpace(profileID)
	if id == "" {
		return nil, errors.New("clientstate: profile id is required")
	}
	client, err := s.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(clientStateCollection).Doc(id), nil
}

var _ KV = (*FirestoreKV)(nil)
