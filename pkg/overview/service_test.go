package overview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/store"
	"github.com/finzhq/finz/pkg/allocation"
	"github.com/finzhq/finz/pkg/project"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store       *store.MemStore
	repo        *RepoImpl
	allocations allocation.Repo
	projects    project.ProjectRepo
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	memStore := store.NewMemStore()
	f := &serviceFixture{
		store:       memStore,
		repo:        NewRepo(memStore),
		allocations: allocation.NewRepo(memStore),
		projects:    project.NewProjectRepo(memStore),
	}

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range []project.Project{
		{ID: "p-1", Name: "Plataforma", StartDate: &start, Currency: "USD"},
		{ID: "p-2", Name: "Migración", StartDate: &start, Currency: "USD"},
	} {
		require.NoError(t, f.projects.Store(context.Background(), p))
	}
	return f
}

func (f *serviceFixture) service() *ServiceImpl {
	return NewService(f.repo, f.allocations, f.projects)
}

func (f *serviceFixture) seedAllocation(t *testing.T, projectID, rubroID, month string, planned, forecast, actual int64) {
	t.Helper()
	require.NoError(t, f.allocations.Upsert(context.Background(), allocation.Allocation{
		ProjectID:   projectID,
		RubroID:     rubroID,
		CalendarKey: month,
		Planned:     decimal.NewFromInt(planned),
		Forecast:    decimal.NewFromInt(forecast),
		Actual:      decimal.NewFromInt(actual),
	}))
}

func (f *serviceFixture) seedPayroll(t *testing.T, projectID, month string, amount int64) {
	t.Helper()
	item, err := store.NewItem("PROJECT#"+projectID, "PAYROLL#"+month, map[string]any{"amount": amount})
	require.NoError(t, err)
	require.NoError(t, f.store.Put(context.Background(), item))
}

func viewerCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{ID: "u-1", Roles: []string{auth.RoleViewer}})
}

func adminCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{ID: "u-9", Roles: []string{auth.RoleBudgetAdmin}})
}

// failingAllocations makes one project's allocation reads fail to exercise
// the per-project degradation path.
type failingAllocations struct {
	inner   allocation.Repo
	failFor string
}

func (f *failingAllocations) Upsert(ctx context.Context, a allocation.Allocation) error {
	return f.inner.Upsert(ctx, a)
}

func (f *failingAllocations) Get(ctx context.Context, projectID, rubroID, calendarKey string, index int) (allocation.Record, error) {
	return f.inner.Get(ctx, projectID, rubroID, calendarKey, index)
}

func (f *failingAllocations) ListForProject(ctx context.Context, projectID string) ([]allocation.Record, error) {
	if projectID == f.failFor {
		return nil, errors.New("table not found")
	}
	return f.inner.ListForProject(ctx, projectID)
}

func TestService_Compute(t *testing.T) {
	t.Run("sums allocations and payroll across projects", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedAllocation(t, "p-1", "LIC-CLOUD", "2026-01", 100, 120, 90)
		f.seedAllocation(t, "p-2", "EQ-LAPTOP", "2026-02", 400, 400, 380)
		f.seedPayroll(t, "p-1", "2026-01", 1000)

		result, err := f.service().Compute(viewerCtx(), 2026, false)
		require.NoError(t, err)

		assert.Equal(t, "500", result.Totals.Planned.String())
		assert.Equal(t, "520", result.Totals.Forecast.String())
		assert.Equal(t, "1470", result.Totals.Actual.String())
		assert.Nil(t, result.Budget)
		assert.Nil(t, result.ByProject)
	})

	t.Run("other years and month-less rows are excluded", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedAllocation(t, "p-1", "LIC-CLOUD", "2026-01", 100, 100, 0)
		f.seedAllocation(t, "p-1", "LIC-CLOUD", "2025-12", 999, 999, 999)
		f.seedAllocation(t, "p-1", "LIC-EDGE", "", 50, 50, 50)
		f.seedPayroll(t, "p-1", "2025-12", 5000)

		result, err := f.service().Compute(viewerCtx(), 2026, false)
		require.NoError(t, err)

		assert.Equal(t, "100", result.Totals.Planned.String())
		assert.Equal(t, "0", result.Totals.Actual.String())
	})

	t.Run("percent metrics are nil without a budget, variance reads against zero", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedAllocation(t, "p-1", "LIC-CLOUD", "2026-01", 100, 120, 90)

		result, err := f.service().Compute(viewerCtx(), 2026, false)
		require.NoError(t, err)

		assert.Nil(t, result.Totals.PercentBudgetConsumedActual)
		assert.Nil(t, result.Totals.PercentBudgetConsumedForecast)
		assert.Equal(t, "120", result.Totals.VarianceBudgetVsForecast.String())
		assert.Equal(t, "90", result.Totals.VarianceBudgetVsActual.String())
	})

	t.Run("percent metrics are nil on a zero budget", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.repo.PutBudget(context.Background(), AnnualBudget{Year: 2026, Amount: decimal.Zero, Currency: "USD"}))
		f.seedAllocation(t, "p-1", "LIC-CLOUD", "2026-01", 100, 100, 100)

		result, err := f.service().Compute(viewerCtx(), 2026, false)
		require.NoError(t, err)

		require.NotNil(t, result.Budget)
		assert.Nil(t, result.Totals.PercentBudgetConsumedActual)
		assert.Nil(t, result.Totals.PercentBudgetConsumedForecast)
	})

	t.Run("variance is positive on overspend, percent is consumed share", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.repo.PutBudget(context.Background(), AnnualBudget{Year: 2026, Amount: decimal.NewFromInt(1000), Currency: "USD"}))
		f.seedAllocation(t, "p-1", "LIC-CLOUD", "2026-01", 1000, 1200, 250)

		result, err := f.service().Compute(viewerCtx(), 2026, false)
		require.NoError(t, err)

		assert.Equal(t, "200", result.Totals.VarianceBudgetVsForecast.String())
		assert.Equal(t, "-750", result.Totals.VarianceBudgetVsActual.String())
		require.NotNil(t, result.Totals.PercentBudgetConsumedActual)
		assert.InDelta(t, 25.0, *result.Totals.PercentBudgetConsumedActual, 0.001)
		require.NotNil(t, result.Totals.PercentBudgetConsumedForecast)
		assert.InDelta(t, 120.0, *result.Totals.PercentBudgetConsumedForecast, 0.001)
	})

	t.Run("a failing project contributes zero instead of failing the overview", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedAllocation(t, "p-1", "LIC-CLOUD", "2026-01", 100, 100, 100)
		f.seedAllocation(t, "p-2", "EQ-LAPTOP", "2026-01", 400, 400, 400)
		service := NewService(f.repo, &failingAllocations{inner: f.allocations, failFor: "p-2"}, f.projects)

		result, err := service.Compute(viewerCtx(), 2026, true)
		require.NoError(t, err)

		assert.Equal(t, "100", result.Totals.Planned.String())
		require.Len(t, result.ByProject, 2)
		for _, contribution := range result.ByProject {
			if contribution.ProjectID == "p-2" {
				assert.True(t, contribution.Planned.IsZero())
			}
		}
	})

	t.Run("byProject breakdown is returned on request", func(t *testing.T) {
		f := newServiceFixture(t)
		f.seedAllocation(t, "p-1", "LIC-CLOUD", "2026-01", 100, 100, 100)

		result, err := f.service().Compute(viewerCtx(), 2026, true)
		require.NoError(t, err)

		require.Len(t, result.ByProject, 2)
		names := []string{result.ByProject[0].Name, result.ByProject[1].Name}
		assert.ElementsMatch(t, []string{"Plataforma", "Migración"}, names)
	})

	t.Run("project list failure degrades to an empty overview", func(t *testing.T) {
		f := newServiceFixture(t)
		f.store.FailReads = errors.New("table not found")

		result, err := f.service().Compute(viewerCtx(), 2026, false)
		require.NoError(t, err)

		assert.True(t, result.Totals.Planned.IsZero())
		assert.True(t, result.Totals.Actual.IsZero())
	})
}

func TestService_SetBudget(t *testing.T) {
	t.Run("budget admin can set and read back", func(t *testing.T) {
		f := newServiceFixture(t)
		service := f.service()

		err := service.SetBudget(adminCtx(), AnnualBudget{Year: 2026, Amount: decimal.NewFromInt(500000), Currency: "usd"})
		require.NoError(t, err)

		budget, err := service.GetBudget(viewerCtx(), 2026)
		require.NoError(t, err)
		assert.Equal(t, "500000", budget.Amount.String())
		assert.Equal(t, "USD", budget.Currency)
	})

	t.Run("editor cannot set the budget", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := auth.WithPrincipal(context.Background(), auth.Principal{ID: "u-2", Roles: []string{auth.RoleEditor}})

		err := f.service().SetBudget(ctx, AnnualBudget{Year: 2026, Amount: decimal.NewFromInt(1), Currency: "USD"})

		var authErr *auth.Error
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("unknown year has no budget", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service().GetBudget(viewerCtx(), 2031)

		assert.ErrorIs(t, err, ErrBudgetNotFound)
	})
}
