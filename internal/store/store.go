package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// MaxBatchKeys is the per-call key limit of BatchGet. Callers must chunk
// larger key sets themselves.
const MaxBatchKeys = 100

// maxQueryPages caps continuation-cursor loops so a misbehaving store cannot
// keep a request spinning forever.
const maxQueryPages = 50

var (
	ErrNotFound     = errors.New("item not found")
	ErrTooManyKeys  = errors.New("batch get exceeds key limit")
	ErrTooManyPages = errors.New("query exceeded page cap")
)

// Key addresses a single document by partition key and sort key.
// Keys are composite strings of the form ENTITY#id / CATEGORY#sub-id.
type Key struct {
	PK string
	SK string
}

// Item is a stored document.
type Item struct {
	PK      string
	SK      string
	Payload json.RawMessage
}

// Page is one slice of a prefix query. NextCursor is empty when the result
// set is exhausted.
type Page struct {
	Items      []Item
	NextCursor string
}

// Store is the document store collaborator. Put is an unconditional upsert;
// there is no conditional write and no transaction spanning multiple items.
type Store interface {
	Get(ctx context.Context, pk, sk string) (Item, error)
	Query(ctx context.Context, pk, skPrefix, cursor string) (Page, error)
	Put(ctx context.Context, item Item) error
	Delete(ctx context.Context, pk, sk string) error
	BatchGet(ctx context.Context, keys []Key) ([]Item, error)
}

// QueryAll follows the continuation cursor until exhaustion, bounded by
// maxQueryPages.
func QueryAll(ctx context.Context, s Store, pk, skPrefix string) ([]Item, error) {
	var items []Item
	cursor := ""
	for page := 0; ; page++ {
		if page >= maxQueryPages {
			return nil, fmt.Errorf("%w: pk=%s prefix=%s", ErrTooManyPages, pk, skPrefix)
		}
		result, err := s.Query(ctx, pk, skPrefix, cursor)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if result.NextCursor == "" {
			return items, nil
		}
		cursor = result.NextCursor
	}
}

// NewItem marshals v as the payload of a document at pk/sk.
func NewItem(pk, sk string, v any) (Item, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Item{}, fmt.Errorf("could not marshal payload for %s/%s: %w", pk, sk, err)
	}
	return Item{PK: pk, SK: sk, Payload: payload}, nil
}
