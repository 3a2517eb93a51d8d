package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/rest"
	"github.com/finzhq/finz/internal/store"
	"github.com/finzhq/finz/internal/utils"
	"github.com/finzhq/finz/pkg/audit"
	"github.com/finzhq/finz/pkg/baseline"
	"github.com/finzhq/finz/pkg/project"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store    *store.MemStore
	service  *ServiceImpl
	auditLog audit.Repo
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	memStore := store.NewMemStore()
	baselineRepo := baseline.NewRepo(memStore)
	projectRepo := project.NewProjectRepo(memStore)
	auditRepo := audit.NewRepo(memStore)
	clock := &utils.MockClock{FixedNow: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}

	service := NewService(NewRepo(memStore), NewNormalizer(baselineRepo), projectRepo, auditRepo, clock)

	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, projectRepo.Store(context.Background(), project.Project{
		ID: "p-1", Name: "Plataforma", StartDate: &start, Currency: "USD",
	}))

	return &serviceFixture{store: memStore, service: service, auditLog: auditRepo}
}

func editorCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{ID: "u-1", Roles: []string{auth.RoleEditor}})
}

func TestService_BulkUpdate(t *testing.T) {
	t.Run("upsert is idempotent on the project/rubro/month triple", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := editorCtx()

		planned := decimal.NewFromInt(100)
		_, err := f.service.BulkUpdate(ctx, "p-1", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2026-03", Planned: &planned},
		})
		require.NoError(t, err)

		replanned := decimal.NewFromInt(250)
		_, err = f.service.BulkUpdate(ctx, "p-1", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2026-03", Planned: &replanned},
		})
		require.NoError(t, err)

		cells, err := f.service.Forecast(ctx, "p-1", "")
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, "250", cells[0].Planned.String())
	})

	t.Run("partial fields keep the stored values", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := editorCtx()

		planned := decimal.NewFromInt(100)
		_, err := f.service.BulkUpdate(ctx, "p-1", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2026-03", Planned: &planned},
		})
		require.NoError(t, err)

		actual := decimal.NewFromInt(80)
		_, err = f.service.BulkUpdate(ctx, "p-1", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2026-03", Actual: &actual},
		})
		require.NoError(t, err)

		cells, err := f.service.Forecast(ctx, "p-1", "")
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, "100", cells[0].Planned.String())
		assert.Equal(t, "80", cells[0].Actual.String())
		assert.Equal(t, "-20", cells[0].Variance.String())
	})

	t.Run("month accepts every supported notation", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := editorCtx()
		planned := decimal.NewFromInt(10)

		_, err := f.service.BulkUpdate(ctx, "p-1", []CellUpdate{
			{RubroID: "A", Month: "2026-11", Planned: &planned},
			{RubroID: "B", Month: "M18", Planned: &planned},
			{RubroID: "C", Month: "18", Planned: &planned},
		})
		require.NoError(t, err)

		cells, err := f.service.Forecast(ctx, "p-1", "")
		require.NoError(t, err)
		require.Len(t, cells, 3)
		for _, cell := range cells {
			assert.Equal(t, "2026-11", cell.CalendarKey)
			assert.Equal(t, 18, cell.MonthIndex)
		}
	})

	t.Run("missing rubro is a validation error", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.BulkUpdate(editorCtx(), "p-1", []CellUpdate{{Month: "2026-03"}})

		var validationErr *rest.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})

	t.Run("unknown project is not found", func(t *testing.T) {
		f := newServiceFixture(t)
		planned := decimal.NewFromInt(10)

		_, err := f.service.BulkUpdate(editorCtx(), "p-missing", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2026-03", Planned: &planned},
		})

		assert.ErrorIs(t, err, project.ErrProjectNotFound)
	})

	t.Run("viewer cannot write", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := auth.WithPrincipal(context.Background(), auth.Principal{ID: "u-2", Roles: []string{auth.RoleViewer}})
		planned := decimal.NewFromInt(10)

		_, err := f.service.BulkUpdate(ctx, "p-1", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2026-03", Planned: &planned},
		})

		var authErr *auth.Error
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("writes an update audit entry", func(t *testing.T) {
		f := newServiceFixture(t)
		planned := decimal.NewFromInt(10)

		_, err := f.service.BulkUpdate(editorCtx(), "p-1", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2026-03", Planned: &planned},
		})
		require.NoError(t, err)

		entries, err := f.auditLog.ListForEntity(context.Background(), "PROJECT#p-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionUpdate, entries[0].Action)
		assert.Empty(t, entries[0].Before)
		assert.NotEmpty(t, entries[0].After)
	})
}

func TestService_Forecast(t *testing.T) {
	t.Run("storage failure on read degrades to empty result", func(t *testing.T) {
		f := newServiceFixture(t)
		planned := decimal.NewFromInt(10)
		_, err := f.service.BulkUpdate(editorCtx(), "p-1", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2026-03", Planned: &planned},
		})
		require.NoError(t, err)

		f.store.FailReads = errors.New("table not found")

		cells, err := f.service.Forecast(editorCtx(), "p-1", "")

		assert.NoError(t, err)
		assert.Empty(t, cells)
	})

	t.Run("year filter scopes by calendar key", func(t *testing.T) {
		f := newServiceFixture(t)
		ctx := editorCtx()
		planned := decimal.NewFromInt(10)

		_, err := f.service.BulkUpdate(ctx, "p-1", []CellUpdate{
			{RubroID: "LIC-CLOUD", Month: "2025-12", Planned: &planned},
			{RubroID: "LIC-CLOUD", Month: "2026-01", Planned: &planned},
		})
		require.NoError(t, err)

		cells, err := f.service.Forecast(ctx, "p-1", "2026")
		require.NoError(t, err)
		require.Len(t, cells, 1)
		assert.Equal(t, "2026-01", cells[0].CalendarKey)
	})
}
