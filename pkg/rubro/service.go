package rubro

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/utils"
	"github.com/finzhq/finz/pkg/allocation"
	"github.com/finzhq/finz/pkg/audit"
	"github.com/finzhq/finz/pkg/baseline"
	"github.com/finzhq/finz/pkg/month"
	"github.com/finzhq/finz/pkg/project"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	// Attach validates and persists a batch of rubro attachments, mirroring
	// each into monthly allocation rows and an audit entry. One rubro's
	// persistence failure does not abort its siblings.
	Attach(ctx context.Context, projectID string, inputs []Input) (AttachResult, error)
	// Detach removes an attachment and records a before/after audit entry.
	// Historical allocations are deliberately left in place.
	Detach(ctx context.Context, projectID, rubroID string) ([]string, error)
	List(ctx context.Context, projectID string) ([]Attachment, error)
}

type ServiceImpl struct {
	repo            Repo
	allocations     allocation.Repo
	projects        project.ProjectRepo
	auditLog        audit.Repo
	clock           utils.Clock
	defaultCurrency string
}

func NewService(repo Repo, allocations allocation.Repo, projects project.ProjectRepo, auditLog audit.Repo, clock utils.Clock, defaultCurrency string) *ServiceImpl {
	return &ServiceImpl{
		repo:            repo,
		allocations:     allocations,
		projects:        projects,
		auditLog:        auditLog,
		clock:           clock,
		defaultCurrency: defaultCurrency,
	}
}

func (s *ServiceImpl) Attach(ctx context.Context, projectID string, inputs []Input) (AttachResult, error) {
	if err := auth.EnsureCanWrite(ctx); err != nil {
		return AttachResult{}, err
	}

	proj, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return AttachResult{}, err
	}
	principal, _ := auth.CurrentPrincipal(ctx)

	// Validate the whole batch before writing anything: a bad required field
	// is a 400 for the request, not a silent default.
	attachments := make([]Attachment, 0, len(inputs))
	for _, input := range inputs {
		attachment, err := normalizeInput(input, s.defaultCurrency)
		if err != nil {
			return AttachResult{}, err
		}
		attachment.ProjectID = projectID
		attachment.AttachedBy = principal.ID
		attachment.AttachedAt = s.clock.Now().UTC()
		attachments = append(attachments, attachment)
	}

	result := AttachResult{}
	for _, attachment := range attachments {
		outcome := s.attachOne(ctx, proj, attachment, principal.ID)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Status != Failed {
			result.Attached = append(result.Attached, attachment.RubroID)
		}
		result.Warnings = append(result.Warnings, outcome.Warnings...)
	}
	return result, nil
}

// attachOne runs the attach state machine for a single rubro: persist the
// attachment (fatal for this entry on failure), then best-effort mirror the
// allocation rows and the audit entry.
func (s *ServiceImpl) attachOne(ctx context.Context, proj project.Project, attachment Attachment, actor string) Outcome {
	outcome := Outcome{RubroID: attachment.RubroID, Status: Committed}

	if err := s.repo.Upsert(ctx, attachment); err != nil {
		log.Errorf("attachment write failed for %s/%s: %v", proj.ID, attachment.RubroID, err)
		outcome.Status = Failed
		outcome.Reason = err.Error()
		return outcome
	}

	// Allocation mirrors are written sequentially so warning order stays
	// deterministic.
	for _, row := range s.mirrorRows(proj, attachment, actor) {
		if err := s.allocations.Upsert(ctx, row); err != nil {
			warning := fmt.Sprintf("rubro %s: attached, but allocation for month %d was not mirrored: %v",
				attachment.RubroID, row.MonthIndex, err)
			log.Warn(warning)
			outcome.Warnings = append(outcome.Warnings, warning)
		}
	}

	if err := s.auditAttach(ctx, attachment, actor); err != nil {
		warning := fmt.Sprintf("rubro %s: attached, but audit entry was not written: %v", attachment.RubroID, err)
		log.Warn(warning)
		outcome.Warnings = append(outcome.Warnings, warning)
	}

	if len(outcome.Warnings) > 0 {
		outcome.Status = CommittedWithWarnings
	}
	return outcome
}

// mirrorRows expands an attachment into its allocation rows: a single row at
// the start month for one-time rubros, one row per covered month for
// recurring ones. Each row carries the full per-month cost; recurring costs
// are repeated, never amortized.
func (s *ServiceImpl) mirrorRows(proj project.Project, attachment Attachment, actor string) []allocation.Allocation {
	lastMonth := attachment.StartMonth
	if attachment.Recurring {
		lastMonth = attachment.EndMonth
	}

	monthly := attachment.MonthlyCost()
	rows := make([]allocation.Allocation, 0, lastMonth-attachment.StartMonth+1)
	for m := attachment.StartMonth; m <= lastMonth; m++ {
		resolution := month.ResolveOrdinal(m, proj.StartDate)
		rows = append(rows, allocation.Allocation{
			ProjectID:   proj.ID,
			RubroID:     attachment.RubroID,
			CalendarKey: resolution.CalendarKey,
			MonthIndex:  resolution.Index,
			Planned:     monthly,
			Forecast:    monthly,
			Actual:      decimal.Zero,
			LastUpdated: attachment.AttachedAt,
			UpdatedBy:   actor,
		})
	}
	return rows
}

func (s *ServiceImpl) auditAttach(ctx context.Context, attachment Attachment, actor string) error {
	after, err := json.Marshal(toDoc(attachment))
	if err != nil {
		return err
	}
	return s.auditLog.Append(ctx, audit.Entry{
		EntityPK: projectPK(attachment.ProjectID),
		EntitySK: rubroSK(attachment.RubroID),
		Action:   audit.ActionAttach,
		After:    after,
		Actor:    actor,
		At:       s.clock.Now().UTC(),
	})
}

func (s *ServiceImpl) Detach(ctx context.Context, projectID, rubroID string) ([]string, error) {
	if err := auth.EnsureCanWrite(ctx); err != nil {
		return nil, err
	}
	principal, _ := auth.CurrentPrincipal(ctx)
	rubroID = baseline.CanonicalRubroID(rubroID)

	// A never-attached rubro is NotFound; no audit entry is written.
	attachment, err := s.repo.Get(ctx, projectID, rubroID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, projectID, rubroID); err != nil {
		return nil, err
	}

	var warnings []string
	before, err := json.Marshal(toDoc(attachment))
	if err == nil {
		err = s.auditLog.Append(ctx, audit.Entry{
			EntityPK: projectPK(projectID),
			EntitySK: rubroSK(rubroID),
			Action:   audit.ActionDetach,
			Before:   before,
			Actor:    principal.ID,
			At:       s.clock.Now().UTC(),
		})
	}
	if err != nil {
		warning := fmt.Sprintf("rubro %s: detached, but audit entry was not written: %v", rubroID, err)
		log.Warn(warning)
		warnings = append(warnings, warning)
	}
	return warnings, nil
}

func (s *ServiceImpl) List(ctx context.Context, projectID string) ([]Attachment, error) {
	if err := auth.EnsureCanRead(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListForProject(ctx, projectID)
}
