package rubro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finzhq/finz/internal/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrAttachmentNotFound = errors.New("rubro attachment not found")

const rubroSKPrefix = "RUBRO#"

type Repo interface {
	// Upsert replaces any prior attachment of the same project/rubro pair.
	Upsert(ctx context.Context, a Attachment) error
	Get(ctx context.Context, projectID, rubroID string) (Attachment, error)
	Delete(ctx context.Context, projectID, rubroID string) error
	ListForProject(ctx context.Context, projectID string) ([]Attachment, error)
}

type RepoImpl struct {
	store store.Store
}

func NewRepo(s store.Store) *RepoImpl {
	return &RepoImpl{store: s}
}

type attachmentDoc struct {
	RubroID    string          `json:"rubro_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Currency   string          `json:"currency"`
	Recurring  bool            `json:"recurring"`
	OneTime    bool            `json:"one_time"`
	StartMonth int             `json:"start_month"`
	EndMonth   int             `json:"end_month"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	AttachedBy string          `json:"attached_by,omitempty"`
	AttachedAt string          `json:"attached_at,omitempty"`
}

func projectPK(projectID string) string {
	return "PROJECT#" + projectID
}

func rubroSK(rubroID string) string {
	return rubroSKPrefix + rubroID
}

func toDoc(a Attachment) attachmentDoc {
	doc := attachmentDoc{
		RubroID:    a.RubroID,
		Quantity:   a.Quantity,
		UnitCost:   a.UnitCost,
		Currency:   a.Currency,
		Recurring:  a.Recurring,
		OneTime:    !a.Recurring,
		StartMonth: a.StartMonth,
		EndMonth:   a.EndMonth,
		TotalCost:  a.TotalCost,
		AttachedBy: a.AttachedBy,
	}
	if !a.AttachedAt.IsZero() {
		doc.AttachedAt = a.AttachedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

func fromDoc(projectID string, doc attachmentDoc) Attachment {
	a := Attachment{
		ProjectID:  projectID,
		RubroID:    doc.RubroID,
		Quantity:   doc.Quantity,
		UnitCost:   doc.UnitCost,
		Currency:   doc.Currency,
		Recurring:  doc.Recurring,
		StartMonth: doc.StartMonth,
		EndMonth:   doc.EndMonth,
		TotalCost:  doc.TotalCost,
		AttachedBy: doc.AttachedBy,
	}
	if doc.AttachedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, doc.AttachedAt); err == nil {
			a.AttachedAt = parsed
		}
	}
	return a
}

func (r *RepoImpl) Upsert(ctx context.Context, a Attachment) error {
	item, err := store.NewItem(projectPK(a.ProjectID), rubroSK(a.RubroID), toDoc(a))
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return fmt.Errorf("could not store attachment %s/%s: %w", a.ProjectID, a.RubroID, err)
	}
	return nil
}

func (r *RepoImpl) Get(ctx context.Context, projectID, rubroID string) (Attachment, error) {
	item, err := r.store.Get(ctx, projectPK(projectID), rubroSK(rubroID))
	if errors.Is(err, store.ErrNotFound) {
		return Attachment{}, ErrAttachmentNotFound
	}
	if err != nil {
		return Attachment{}, fmt.Errorf("could not get attachment %s/%s: %w", projectID, rubroID, err)
	}
	var doc attachmentDoc
	if err := json.Unmarshal(item.Payload, &doc); err != nil {
		return Attachment{}, fmt.Errorf("could not unmarshal attachment %s/%s: %w", projectID, rubroID, err)
	}
	return fromDoc(projectID, doc), nil
}

func (r *RepoImpl) Delete(ctx context.Context, projectID, rubroID string) error {
	if err := r.store.Delete(ctx, projectPK(projectID), rubroSK(rubroID)); err != nil {
		return fmt.Errorf("could not delete attachment %s/%s: %w", projectID, rubroID, err)
	}
	return nil
}

func (r *RepoImpl) ListForProject(ctx context.Context, projectID string) ([]Attachment, error) {
	items, err := store.QueryAll(ctx, r.store, projectPK(projectID), rubroSKPrefix)
	if err != nil {
		return nil, fmt.Errorf("could not list attachments for project %s: %w", projectID, err)
	}

	attachments := make([]Attachment, 0, len(items))
	for _, item := range items {
		var doc attachmentDoc
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			log.Warnf("skipping malformed attachment %s/%s: %v", item.PK, item.SK, err)
			continue
		}
		attachments = append(attachments, fromDoc(projectID, doc))
	}
	return attachments, nil
}
