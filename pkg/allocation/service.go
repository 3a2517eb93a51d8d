package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/rest"
	"github.com/finzhq/finz/internal/store"
	"github.com/finzhq/finz/internal/utils"
	"github.com/finzhq/finz/pkg/audit"
	"github.com/finzhq/finz/pkg/baseline"
	"github.com/finzhq/finz/pkg/month"
	"github.com/finzhq/finz/pkg/project"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// CellUpdate is one row of a bulk forecast update. Month accepts any of the
// supported notations. Nil amounts keep whatever the stored cell carries.
type CellUpdate struct {
	RubroID        string
	Month          string
	Planned        *decimal.Decimal
	Forecast       *decimal.Decimal
	Actual         *decimal.Decimal
	VarianceReason string
	Notes          string
}

type Service interface {
	// Forecast returns the normalized cells of a project, optionally scoped
	// to one calendar year. Storage failures on this read path degrade to an
	// empty result instead of an error.
	Forecast(ctx context.Context, projectID string, year string) ([]ForecastCell, error)
	// BulkUpdate upserts cells keyed on (project, rubro, calendar month).
	// Returns non-fatal warnings (audit mirror failures).
	BulkUpdate(ctx context.Context, projectID string, updates []CellUpdate) ([]string, error)
}

type ServiceImpl struct {
	repo       Repo
	normalizer *Normalizer
	projects   project.ProjectRepo
	auditLog   audit.Repo
	clock      utils.Clock
}

func NewService(repo Repo, normalizer *Normalizer, projects project.ProjectRepo, auditLog audit.Repo, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		repo:       repo,
		normalizer: normalizer,
		projects:   projects,
		auditLog:   auditLog,
		clock:      clock,
	}
}

func (s *ServiceImpl) Forecast(ctx context.Context, projectID string, year string) ([]ForecastCell, error) {
	if err := auth.EnsureCanRead(ctx); err != nil {
		return nil, err
	}

	projectStart := s.projectStart(ctx, projectID)

	records, err := s.repo.ListForProject(ctx, projectID)
	if err != nil {
		// Availability over strictness on reads: the caller gets an empty
		// list, the operator gets the full context in the log.
		log.Errorf("forecast read degraded to empty for project %s (request %s): %v",
			projectID, rest.RequestIDFrom(ctx), err)
		return []ForecastCell{}, nil
	}

	cells := s.normalizer.Normalize(ctx, projectID, projectStart, records)
	if year == "" {
		return cells, nil
	}

	filtered := make([]ForecastCell, 0, len(cells))
	for _, cell := range cells {
		if strings.HasPrefix(cell.CalendarKey, year+"-") {
			filtered = append(filtered, cell)
		}
	}
	return filtered, nil
}

func (s *ServiceImpl) BulkUpdate(ctx context.Context, projectID string, updates []CellUpdate) ([]string, error) {
	if err := auth.EnsureCanWrite(ctx); err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, rest.Invalid("no allocation updates provided")
	}

	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	principal, _ := auth.CurrentPrincipal(ctx)

	var warnings []string
	for i, update := range updates {
		rubroID := baseline.CanonicalRubroID(update.RubroID)
		if rubroID == "" {
			return warnings, rest.Invalid(fmt.Sprintf("update %d: rubro identifier is required", i))
		}
		if update.Month == "" {
			return warnings, rest.Invalid(fmt.Sprintf("update %d: month is required", i))
		}
		resolution, err := month.Resolve(update.Month, proj.StartDate)
		if err != nil {
			return warnings, rest.Invalid(fmt.Sprintf("update %d: %v", i, err))
		}

		existing, before := s.existingRecord(ctx, projectID, rubroID, resolution)

		cell := Allocation{
			ProjectID:      projectID,
			RubroID:        rubroID,
			CalendarKey:    resolution.CalendarKey,
			MonthIndex:     resolution.Index,
			Planned:        pickAmount(update.Planned, existing.Planned),
			Forecast:       pickAmount(update.Forecast, existing.Forecast),
			Actual:         pickAmount(update.Actual, existing.Actual),
			VarianceReason: firstNonEmpty(update.VarianceReason, existing.VarianceReason),
			Notes:          firstNonEmpty(update.Notes, existing.Notes),
			LastUpdated:    s.clock.Now().UTC(),
			UpdatedBy:      principal.ID,
		}
		if update.Forecast == nil && existing.Forecast == nil && update.Planned != nil {
			cell.Forecast = *update.Planned
		}

		// A failed cell write is fatal; there is no partial success on the
		// primary row.
		if err := s.repo.Upsert(ctx, cell); err != nil {
			return warnings, err
		}

		if err := s.auditUpdate(ctx, projectID, rubroID, resolution, existing, before, cell, principal.ID); err != nil {
			warning := fmt.Sprintf("allocation %s/%s updated but audit write failed: %v",
				rubroID, monthSegment(resolution.CalendarKey, resolution.Index), err)
			log.Warn(warning)
			warnings = append(warnings, warning)
		}
	}
	return warnings, nil
}

// projectStart resolves the start date for month resolution. Any failure
// degrades to nil (month-of-year fallback) rather than failing the read.
func (s *ServiceImpl) projectStart(ctx context.Context, projectID string) *time.Time {
	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		log.Warnf("could not load project %s for month resolution, degrading to month-of-year: %v", projectID, err)
		return nil
	}
	return proj.StartDate
}

func (s *ServiceImpl) existingRecord(ctx context.Context, projectID, rubroID string, resolution month.Resolution) (Record, bool) {
	existing, err := s.repo.Get(ctx, projectID, rubroID, resolution.CalendarKey, resolution.Index)
	if errors.Is(err, store.ErrNotFound) {
		return Record{}, false
	}
	if err != nil {
		log.Warnf("could not read existing allocation %s/%s before update: %v", projectID, rubroID, err)
		return Record{}, false
	}
	return existing, true
}

func (s *ServiceImpl) auditUpdate(ctx context.Context, projectID, rubroID string, resolution month.Resolution, existing Record, hadBefore bool, cell Allocation, actor string) error {
	entry := audit.Entry{
		EntityPK: projectPK(projectID),
		EntitySK: allocSK(rubroID, resolution.CalendarKey, resolution.Index),
		Action:   audit.ActionUpdate,
		Actor:    actor,
		At:       s.clock.Now().UTC(),
	}
	after, err := json.Marshal(allocationSnapshot(cell))
	if err != nil {
		return err
	}
	entry.After = after
	if hadBefore {
		if before, err := json.Marshal(recordSnapshot(rubroID, existing)); err == nil {
			entry.Before = before
		}
	}
	return s.auditLog.Append(ctx, entry)
}

func recordSnapshot(rubroID string, record Record) map[string]any {
	snapshot := map[string]any{
		"rubro_id": rubroID,
		"month":    record.CalendarKey,
	}
	if record.Planned != nil {
		snapshot["planned"] = record.Planned.String()
	}
	if record.Forecast != nil {
		snapshot["forecast"] = record.Forecast.String()
	}
	if record.Actual != nil {
		snapshot["actual"] = record.Actual.String()
	}
	return snapshot
}

func allocationSnapshot(a Allocation) map[string]any {
	return map[string]any{
		"rubro_id":    a.RubroID,
		"month":       a.CalendarKey,
		"month_index": a.MonthIndex,
		"planned":     a.Planned.String(),
		"forecast":    a.Forecast.String(),
		"actual":      a.Actual.String(),
	}
}

func pickAmount(update *decimal.Decimal, existing *decimal.Decimal) decimal.Decimal {
	if update != nil {
		return *update
	}
	if existing != nil {
		return *existing
	}
	return decimal.Zero
}
