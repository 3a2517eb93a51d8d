package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finzhq/finz/internal/store"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const auditSKPrefix = "AUDIT#"

type Repo interface {
	// Append writes one immutable entry. The id and timestamp are assigned
	// here when the caller left them empty.
	Append(ctx context.Context, entry Entry) error
	// ListForEntity returns all entries recorded under an entity partition,
	// oldest first.
	ListForEntity(ctx context.Context, entityPK string) ([]Entry, error)
}

type RepoImpl struct {
	store store.Store
}

func NewRepo(s store.Store) *RepoImpl {
	return &RepoImpl{store: s}
}

func (r *RepoImpl) Append(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	// Timestamp-first sort key keeps entries in chronological order; the id
	// suffix disambiguates same-instant writes.
	sk := fmt.Sprintf("%s%s#%s", auditSKPrefix, entry.At.Format(time.RFC3339Nano), entry.ID)
	item, err := store.NewItem(entry.EntityPK, sk, entry)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return fmt.Errorf("could not append audit entry for %s/%s: %w", entry.EntityPK, entry.EntitySK, err)
	}
	return nil
}

func (r *RepoImpl) ListForEntity(ctx context.Context, entityPK string) ([]Entry, error) {
	items, err := store.QueryAll(ctx, r.store, entityPK, auditSKPrefix)
	if err != nil {
		return nil, fmt.Errorf("could not list audit entries for %s: %w", entityPK, err)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		var entry Entry
		if err := json.Unmarshal(item.Payload, &entry); err != nil {
			log.Warnf("skipping malformed audit entry %s/%s: %v", item.PK, item.SK, err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
