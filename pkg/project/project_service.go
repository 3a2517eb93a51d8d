package project

import (
	"context"
	"fmt"

	"github.com/finzhq/finz/internal/auth"
	"github.com/google/uuid"
)

type Service interface {
	Create(ctx context.Context, p Project) (Project, error)
	Get(ctx context.Context, id string) (Project, error)
	List(ctx context.Context) ([]Project, error)
	Update(ctx context.Context, p Project) (Project, error)
}

type ServiceImpl struct {
	repo            ProjectRepo
	defaultCurrency string
}

func NewService(repo ProjectRepo, defaultCurrency string) *ServiceImpl {
	return &ServiceImpl{repo: repo, defaultCurrency: defaultCurrency}
}

func (s *ServiceImpl) Create(ctx context.Context, p Project) (Project, error) {
	if err := auth.EnsureCanWrite(ctx); err != nil {
		return Project{}, err
	}
	if p.ID == "" {
		p.ID = "p-" + uuid.NewString()
	}
	if p.Currency == "" {
		p.Currency = s.defaultCurrency
	}
	if err := s.repo.Store(ctx, p); err != nil {
		return Project{}, err
	}
	return p, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id string) (Project, error) {
	if err := auth.EnsureCanRead(ctx); err != nil {
		return Project{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]Project, error) {
	if err := auth.EnsureCanRead(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

func (s *ServiceImpl) Update(ctx context.Context, p Project) (Project, error) {
	if err := auth.EnsureCanWrite(ctx); err != nil {
		return Project{}, err
	}
	if _, err := s.repo.Get(ctx, p.ID); err != nil {
		return Project{}, err
	}
	if p.Currency == "" {
		p.Currency = s.defaultCurrency
	}
	if err := s.repo.Store(ctx, p); err != nil {
		return Project{}, fmt.Errorf("could not update project %s: %w", p.ID, err)
	}
	return p, nil
}
