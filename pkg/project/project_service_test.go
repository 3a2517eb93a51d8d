package project

import (
	"context"
	"testing"
	"time"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() (*store.MemStore, *ServiceImpl) {
	memStore := store.NewMemStore()
	return memStore, NewService(NewProjectRepo(memStore), "USD")
}

func editorCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{ID: "u-1", Roles: []string{auth.RoleEditor}})
}

func TestService_Create(t *testing.T) {
	t.Run("assigns an id and the default currency", func(t *testing.T) {
		// given
		_, service := newService()
		start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

		// when
		created, err := service.Create(editorCtx(), Project{Name: "Plataforma", StartDate: &start})

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "USD", created.Currency)

		fetched, err := service.Get(editorCtx(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Plataforma", fetched.Name)
		require.NotNil(t, fetched.StartDate)
		assert.Equal(t, start, *fetched.StartDate)
	})

	t.Run("viewer cannot create", func(t *testing.T) {
		_, service := newService()
		ctx := auth.WithPrincipal(context.Background(), auth.Principal{ID: "u-2", Roles: []string{auth.RoleViewer}})

		_, err := service.Create(ctx, Project{Name: "Plataforma"})

		var authErr *auth.Error
		require.ErrorAs(t, err, &authErr)
	})
}

func TestService_Update(t *testing.T) {
	t.Run("unknown project is not found", func(t *testing.T) {
		_, service := newService()

		_, err := service.Update(editorCtx(), Project{ID: "p-missing", Name: "Plataforma"})

		assert.ErrorIs(t, err, ErrProjectNotFound)
	})

	t.Run("replaces the stored fields", func(t *testing.T) {
		_, service := newService()
		created, err := service.Create(editorCtx(), Project{Name: "Plataforma"})
		require.NoError(t, err)

		created.Name = "Plataforma v2"
		created.BaselineID = "b-1"
		updated, err := service.Update(editorCtx(), created)
		require.NoError(t, err)
		assert.Equal(t, "Plataforma v2", updated.Name)

		fetched, err := service.Get(editorCtx(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, "b-1", fetched.BaselineID)
	})
}

func TestService_List(t *testing.T) {
	t.Run("lists all stored projects", func(t *testing.T) {
		_, service := newService()
		for _, name := range []string{"Plataforma", "Migración"} {
			_, err := service.Create(editorCtx(), Project{Name: name})
			require.NoError(t, err)
		}

		projects, err := service.List(editorCtx())
		require.NoError(t, err)
		assert.Len(t, projects, 2)
	})
}
