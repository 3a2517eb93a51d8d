package invoice

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

var ErrInvoiceNotFound = errors.New("invoice not found")

const invoiceSKPrefix = "PREFACTURA#"

type Repo interface {
	Store(ctx context.Context, invoice Invoice) error
	Get(ctx context.Context, projectID, invoiceID string) (Invoice, error)
	ListForProject(ctx context.Context, projectID string) ([]Invoice, error)
}

type RepoImpl struct {
	store store.Store
}

func NewRepo(s store.Store) *RepoImpl {
	return &RepoImpl{store: s}
}

type invoiceDoc struct {
	InvoiceID string          `json:"invoice_id"`
	Concept   string          `json:"concept,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency,omitempty"`
	Month     string          `json:"month,omitempty"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

func projectPK(projectID string) string {
	return "PROJECT#" + projectID
}

func invoiceSK(invoiceID string) string {
	return invoiceSKPrefix + invoiceID
}

func toDoc(i Invoice) invoiceDoc {
	doc := invoiceDoc{
		InvoiceID: i.ID,
		Concept:   i.Concept,
		Amount:    i.Amount,
		Currency:  i.Currency,
		Month:     i.Month,
		Status:    string(i.Status),
	}
	if !i.CreatedAt.IsZero() {
		doc.CreatedAt = i.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !i.UpdatedAt.IsZero() {
		doc.UpdatedAt = i.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

func fromDoc(projectID string, doc invoiceDoc) Invoice {
	invoice := Invoice{
		ID:        doc.InvoiceID,
		ProjectID: projectID,
		Concept:   doc.Concept,
		Amount:    doc.Amount,
		Currency:  doc.Currency,
		Month:     doc.Month,
		Status:    Status(doc.Status),
	}
	if doc.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, doc.CreatedAt); err == nil {
			invoice.CreatedAt = parsed
		}
	}
	if doc.UpdatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, doc.UpdatedAt); err == nil {
			invoice.UpdatedAt = parsed
		}
	}
	return invoice
}

func (r *RepoImpl) Store(ctx context.Context, invoice Invoice) error {
	item, err := store.NewItem(projectPK(invoice.ProjectID), invoiceSK(invoice.ID), toDoc(invoice))
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return fmt.Errorf("could not store invoice %s/%s: %w", invoice.ProjectID, invoice.ID, err)
	}
	return nil
}

func (r *RepoImpl) Get(ctx context.Context, projectID, invoiceID string) (Invoice, error) {
	item, err := r.store.Get(ctx, projectPK(projectID), invoiceSK(invoiceID))
	if errors.Is(err, store.ErrNotFound) {
		return Invoice{}, ErrInvoiceNotFound
	}
	if err != nil {
		return Invoice{}, fmt.Errorf("could not get invoice %s/%s: %w", projectID, invoiceID, err)
	}
	var doc invoiceDoc
	if err := json.Unmarshal(item.Payload, &doc); err != nil {
		return Invoice{}, fmt.Errorf("could not unmarshal invoice %s/%s: %w", projectID, invoiceID, err)
	}
	return fromDoc(projectID, doc), nil
}

func (r *RepoImpl) ListForProject(ctx context.Context, projectID string) ([]Invoice, error) {
	items, err := store.QueryAll(ctx, r.store, projectPK(projectID), invoiceSKPrefix)
	if err != nil {
		return nil, fmt.Errorf("could not list invoices for project %s: %w", projectID, err)
	}

	invoices := make([]Invoice, 0, len(items))
	for _, item := range items {
		var doc invoiceDoc
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			log.Warnf("skipping malformed invoice %s/%s: %v", item.PK, item.SK, err)
			continue
		}
		invoices = append(invoices, fromDoc(projectID, doc))
	}
	return invoices, nil
}
