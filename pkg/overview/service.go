package overview

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/rest"
	"github.com/finzhq/finz/pkg/allocation"
	"github.com/finzhq/finz/pkg/project"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// overviewConcurrency bounds the per-project fan-out.
const overviewConcurrency = 8

type Service interface {
	GetBudget(ctx context.Context, year int) (AnnualBudget, error)
	// SetBudget stores the all-in envelope for a year; budget-admin only.
	SetBudget(ctx context.Context, budget AnnualBudget) error
	// Compute aggregates every project's allocations and payroll actuals for
	// the year. A project whose reads fail contributes zero and is logged;
	// the overview itself never fails on one bad project.
	Compute(ctx context.Context, year int, includeProjects bool) (Overview, error)
}

type ServiceImpl struct {
	repo        Repo
	allocations allocation.Repo
	projects    project.ProjectRepo
}

func NewService(repo Repo, allocations allocation.Repo, projects project.ProjectRepo) *ServiceImpl {
	return &ServiceImpl{repo: repo, allocations: allocations, projects: projects}
}

func (s *ServiceImpl) GetBudget(ctx context.Context, year int) (AnnualBudget, error) {
	if err := auth.EnsureCanRead(ctx); err != nil {
		return AnnualBudget{}, err
	}
	return s.repo.GetBudget(ctx, year)
}

func (s *ServiceImpl) SetBudget(ctx context.Context, budget AnnualBudget) error {
	if err := auth.EnsureBudgetAdmin(ctx); err != nil {
		return err
	}
	if budget.Amount.IsNegative() {
		return rest.Invalid("budget amount cannot be negative")
	}
	if budget.Currency == "" {
		return rest.Invalid("budget currency is required")
	}
	budget.Currency = strings.ToUpper(strings.TrimSpace(budget.Currency))
	return s.repo.PutBudget(ctx, budget)
}

func (s *ServiceImpl) Compute(ctx context.Context, year int, includeProjects bool) (Overview, error) {
	if err := auth.EnsureCanRead(ctx); err != nil {
		return Overview{}, err
	}

	result := Overview{Year: year}

	budget, err := s.repo.GetBudget(ctx, year)
	switch {
	case err == nil:
		result.Budget = &budget
	case errors.Is(err, ErrBudgetNotFound):
		// No envelope set; totals are still useful, percent metrics stay nil.
	default:
		log.Warnf("budget lookup failed for %d, computing overview without it: %v", year, err)
	}

	projects, err := s.projects.List(ctx)
	if err != nil {
		// Without the project list there is nothing to aggregate; degrade the
		// read path to an empty overview as everywhere else.
		log.Errorf("could not list projects for overview %d (request %s): %v",
			year, rest.RequestIDFrom(ctx), err)
		result.Totals = applyBudget(result.Totals, result.Budget)
		return result, nil
	}

	contributions := make([]ProjectContribution, len(projects))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(overviewConcurrency)
	for i, proj := range projects {
		group.Go(func() error {
			contribution := s.projectContribution(groupCtx, proj, year)
			mu.Lock()
			contributions[i] = contribution
			mu.Unlock()
			return nil
		})
	}
	// Goroutines never return errors; failures degrade per project.
	_ = group.Wait()

	totals := Totals{Planned: decimal.Zero, Forecast: decimal.Zero, Actual: decimal.Zero}
	for _, contribution := range contributions {
		totals.Planned = totals.Planned.Add(contribution.Planned)
		totals.Forecast = totals.Forecast.Add(contribution.Forecast)
		totals.Actual = totals.Actual.Add(contribution.Actual)
	}
	result.Totals = applyBudget(totals, result.Budget)
	if includeProjects {
		result.ByProject = contributions
	}
	return result, nil
}

// projectContribution sums one project's allocations and payroll actuals for
// the year. Any read failure zeroes the contribution.
func (s *ServiceImpl) projectContribution(ctx context.Context, proj project.Project, year int) ProjectContribution {
	contribution := ProjectContribution{
		ProjectID: proj.ID,
		Name:      proj.Name,
		Planned:   decimal.Zero,
		Forecast:  decimal.Zero,
		Actual:    decimal.Zero,
	}

	records, err := s.allocations.ListForProject(ctx, proj.ID)
	if err != nil {
		log.Warnf("overview %d: skipping project %s, allocations unavailable: %v", year, proj.ID, err)
		return contribution
	}

	yearPrefix := strconv.Itoa(year) + "-"
	for _, record := range records {
		// Rows without a calendar month cannot be assigned to a year.
		if !strings.HasPrefix(record.CalendarKey, yearPrefix) {
			continue
		}
		planned := decimal.Zero
		if record.Planned != nil {
			planned = *record.Planned
		}
		forecast := planned
		if record.Forecast != nil {
			forecast = *record.Forecast
		}
		contribution.Planned = contribution.Planned.Add(planned)
		contribution.Forecast = contribution.Forecast.Add(forecast)
		if record.Actual != nil {
			contribution.Actual = contribution.Actual.Add(*record.Actual)
		}
	}

	payroll, err := s.repo.PayrollActualsForYear(ctx, proj.ID, year)
	if err != nil {
		log.Warnf("overview %d: project %s payroll unavailable, actuals understate labor: %v", year, proj.ID, err)
		return contribution
	}
	contribution.Actual = contribution.Actual.Add(payroll)
	return contribution
}

// applyBudget derives the variance and percent metrics. Variances read as
// spend minus budget; with no budget they degrade to raw spend against a zero
// envelope, while the percent metrics stay nil.
func applyBudget(totals Totals, budget *AnnualBudget) Totals {
	amount := decimal.Zero
	if budget != nil {
		amount = budget.Amount
	}
	totals.VarianceBudgetVsForecast = totals.Forecast.Sub(amount)
	totals.VarianceBudgetVsActual = totals.Actual.Sub(amount)

	if budget == nil || amount.IsZero() {
		return totals
	}
	hundred := decimal.NewFromInt(100)
	actualPct := totals.Actual.Div(amount).Mul(hundred).InexactFloat64()
	forecastPct := totals.Forecast.Div(amount).Mul(hundred).InexactFloat64()
	totals.PercentBudgetConsumedActual = &actualPct
	totals.PercentBudgetConsumedForecast = &forecastPct
	return totals
}
