package app

import (
	"github.com/finzhq/finz/internal/config"
	"github.com/finzhq/finz/internal/store"
	"github.com/finzhq/finz/internal/utils"
	"github.com/finzhq/finz/pkg/allocation"
	"github.com/finzhq/finz/pkg/audit"
	"github.com/finzhq/finz/pkg/baseline"
	"github.com/finzhq/finz/pkg/invoice"
	"github.com/finzhq/finz/pkg/overview"
	"github.com/finzhq/finz/pkg/project"
	"github.com/finzhq/finz/pkg/rubro"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Store store.Store

	ProjectRepo    project.ProjectRepo
	ProjectService project.Service
	ProjectHandler *project.Handler

	BaselineRepo baseline.Repo

	AuditRepo    audit.Repo
	AuditHandler *audit.Handler

	AllocationRepo       allocation.Repo
	AllocationNormalizer *allocation.Normalizer
	AllocationService    allocation.Service
	AllocationHandler    *allocation.Handler

	RubroRepo    rubro.Repo
	RubroService rubro.Service
	RubroHandler *rubro.Handler

	OverviewRepo    overview.Repo
	OverviewService overview.Service
	OverviewHandler *overview.Handler

	InvoiceRepo    invoice.Repo
	InvoiceService invoice.Service
	InvoiceHandler *invoice.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Store = store.NewPostgresStore(db)
	deps.Clock = &utils.SystemClock{}

	deps.ProjectRepo = project.NewProjectRepo(deps.Store)
	deps.ProjectService = project.NewService(deps.ProjectRepo, cfg.Budget.DefaultCurrency)
	deps.ProjectHandler = project.NewHandler(deps.ProjectService)

	deps.BaselineRepo = baseline.NewRepo(deps.Store)

	deps.AuditRepo = audit.NewRepo(deps.Store)
	deps.AuditHandler = audit.NewHandler(deps.AuditRepo)

	deps.AllocationRepo = allocation.NewRepo(deps.Store)
	deps.AllocationNormalizer = allocation.NewNormalizer(deps.BaselineRepo)
	deps.AllocationService = allocation.NewService(deps.AllocationRepo, deps.AllocationNormalizer, deps.ProjectRepo, deps.AuditRepo, deps.Clock)
	deps.AllocationHandler = allocation.NewHandler(deps.AllocationService)

	deps.RubroRepo = rubro.NewRepo(deps.Store)
	deps.RubroService = rubro.NewService(deps.RubroRepo, deps.AllocationRepo, deps.ProjectRepo, deps.AuditRepo, deps.Clock, cfg.Budget.DefaultCurrency)
	deps.RubroHandler = rubro.NewHandler(deps.RubroService)

	deps.OverviewRepo = overview.NewRepo(deps.Store)
	deps.OverviewService = overview.NewService(deps.OverviewRepo, deps.AllocationRepo, deps.ProjectRepo)
	deps.OverviewHandler = overview.NewHandler(deps.OverviewService)

	deps.InvoiceRepo = invoice.NewRepo(deps.Store)
	deps.InvoiceService = invoice.NewService(deps.InvoiceRepo, deps.ProjectRepo, deps.Clock)
	deps.InvoiceHandler = invoice.NewHandler(deps.InvoiceService)

	return deps
}
