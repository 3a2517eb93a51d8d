package invoice

import (
	"context"
	"fmt"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/rest"
	"github.com/finzhq/finz/internal/utils"
	"github.com/finzhq/finz/pkg/project"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	List(ctx context.Context, projectID string) ([]Invoice, error)
	Get(ctx context.Context, projectID, invoiceID string) (Invoice, error)
	// UpdateStatus advances an invoice along draft -> issued -> paid.
	// Backwards or skipping moves are validation errors.
	UpdateStatus(ctx context.Context, projectID, invoiceID string, status Status) (Invoice, error)
}

type ServiceImpl struct {
	repo     Repo
	projects project.ProjectRepo
	clock    utils.Clock
}

func NewService(repo Repo, projects project.ProjectRepo, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{repo: repo, projects: projects, clock: clock}
}

func (s *ServiceImpl) List(ctx context.Context, projectID string) ([]Invoice, error) {
	if err := auth.EnsureCanRead(ctx); err != nil {
		return nil, err
	}
	invoices, err := s.repo.ListForProject(ctx, projectID)
	if err != nil {
		log.Errorf("could not list invoices for %s (request %s): %v",
			projectID, rest.RequestIDFrom(ctx), err)
		return []Invoice{}, nil
	}
	return invoices, nil
}

func (s *ServiceImpl) Get(ctx context.Context, projectID, invoiceID string) (Invoice, error) {
	if err := auth.EnsureCanRead(ctx); err != nil {
		return Invoice{}, err
	}
	return s.repo.Get(ctx, projectID, invoiceID)
}

func (s *ServiceImpl) UpdateStatus(ctx context.Context, projectID, invoiceID string, status Status) (Invoice, error) {
	if err := auth.EnsureCanWrite(ctx); err != nil {
		return Invoice{}, err
	}
	if _, err := s.projects.Get(ctx, projectID); err != nil {
		return Invoice{}, err
	}

	invoice, err := s.repo.Get(ctx, projectID, invoiceID)
	if err != nil {
		return Invoice{}, err
	}
	if !CanTransition(invoice.Status, status) {
		return Invoice{}, rest.Invalid(fmt.Sprintf("invoice %s cannot move from %s to %s", invoiceID, invoice.Status, status))
	}

	invoice.Status = status
	invoice.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Store(ctx, invoice); err != nil {
		return Invoice{}, err
	}
	return invoice, nil
}
