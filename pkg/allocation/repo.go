package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/finzhq/finz/internal/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const allocSKPrefix = "ALLOC#"

type Repo interface {
	// Upsert writes one cell, keyed on (project, rubro, calendar month).
	// Re-writing the same triple replaces the row.
	Upsert(ctx context.Context, a Allocation) error
	// Get reads one cell; store.ErrNotFound when the triple has no row yet.
	Get(ctx context.Context, projectID, rubroID, calendarKey string, index int) (Record, error)
	// ListForProject returns every stored cell of a project after alias
	// resolution. Rows that cannot be parsed are dropped with a log line;
	// only the storage call itself can fail.
	ListForProject(ctx context.Context, projectID string) ([]Record, error)
}

type RepoImpl struct {
	store store.Store
}

func NewRepo(s store.Store) *RepoImpl {
	return &RepoImpl{store: s}
}

// allocDoc is the canonical persisted shape. Legacy rows with Spanish field
// names are still readable through ParseRecord; new writes use these names
// only.
type allocDoc struct {
	RubroID        string          `json:"rubro_id"`
	Month          string          `json:"month,omitempty"`
	MonthIndex     int             `json:"month_index,omitempty"`
	Planned        decimal.Decimal `json:"planned"`
	Forecast       decimal.Decimal `json:"forecast"`
	Actual         decimal.Decimal `json:"actual"`
	VarianceReason string          `json:"variance_reason,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	LastUpdated    string          `json:"last_updated,omitempty"`
	UpdatedBy      string          `json:"updated_by,omitempty"`
}

func projectPK(projectID string) string {
	return "PROJECT#" + projectID
}

// monthSegment keys the cell by calendar month when known, falling back to
// the ordinal for projects without a start date.
func monthSegment(calendarKey string, index int) string {
	if calendarKey != "" {
		return calendarKey
	}
	return fmt.Sprintf("M%02d", index)
}

func allocSK(rubroID, calendarKey string, index int) string {
	return allocSKPrefix + rubroID + "#" + monthSegment(calendarKey, index)
}

func (r *RepoImpl) Upsert(ctx context.Context, a Allocation) error {
	doc := allocDoc{
		RubroID:        a.RubroID,
		Month:          a.CalendarKey,
		MonthIndex:     a.MonthIndex,
		Planned:        a.Planned,
		Forecast:       a.Forecast,
		Actual:         a.Actual,
		VarianceReason: a.VarianceReason,
		Notes:          a.Notes,
		UpdatedBy:      a.UpdatedBy,
	}
	if !a.LastUpdated.IsZero() {
		doc.LastUpdated = a.LastUpdated.UTC().Format(time.RFC3339)
	}

	item, err := store.NewItem(projectPK(a.ProjectID), allocSK(a.RubroID, a.CalendarKey, a.MonthIndex), doc)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return fmt.Errorf("could not upsert allocation %s/%s: %w", a.ProjectID, allocSK(a.RubroID, a.CalendarKey, a.MonthIndex), err)
	}
	return nil
}

func (r *RepoImpl) Get(ctx context.Context, projectID, rubroID, calendarKey string, index int) (Record, error) {
	item, err := r.store.Get(ctx, projectPK(projectID), allocSK(rubroID, calendarKey, index))
	if err != nil {
		return Record{}, err
	}
	record, err := ParseRecord(item.Payload)
	if err != nil {
		return Record{}, fmt.Errorf("stored allocation %s/%s is malformed: %w", item.PK, item.SK, err)
	}
	return record, nil
}

func (r *RepoImpl) ListForProject(ctx context.Context, projectID string) ([]Record, error) {
	items, err := store.QueryAll(ctx, r.store, projectPK(projectID), allocSKPrefix)
	if err != nil {
		return nil, fmt.Errorf("could not list allocations for project %s: %w", projectID, err)
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		record, err := ParseRecord(item.Payload)
		if err != nil {
			// One bad row must never fail the whole list.
			log.Warnf("skipping allocation row %s/%s: %v", item.PK, item.SK, err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
