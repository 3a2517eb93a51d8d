package auth

import (
	"context"
	"fmt"
	"net/http"
)

const (
	RoleViewer      = "viewer"
	RoleEditor      = "editor"
	RoleBudgetAdmin = "budget_admin"
)

// Error carries the HTTP status a failed capability check maps to.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

func forbidden(message string) *Error {
	return &Error{StatusCode: http.StatusForbidden, Message: message}
}

// EnsureCanRead fails unless the principal holds at least a read-capable role.
func EnsureCanRead(ctx context.Context) error {
	principal, err := CurrentPrincipal(ctx)
	if err != nil {
		return forbidden("no authenticated principal")
	}
	if !principal.HasAnyRole(RoleViewer, RoleEditor, RoleBudgetAdmin) {
		return forbidden("principal lacks read access")
	}
	return nil
}

// EnsureCanWrite fails unless the principal may mutate project financial data.
func EnsureCanWrite(ctx context.Context) error {
	principal, err := CurrentPrincipal(ctx)
	if err != nil {
		return forbidden("no authenticated principal")
	}
	if !principal.HasAnyRole(RoleEditor, RoleBudgetAdmin) {
		return forbidden("principal lacks write access")
	}
	return nil
}

// EnsureBudgetAdmin guards annual budget mutations.
func EnsureBudgetAdmin(ctx context.Context) error {
	principal, err := CurrentPrincipal(ctx)
	if err != nil {
		return forbidden("no authenticated principal")
	}
	if !principal.HasAnyRole(RoleBudgetAdmin) {
		return forbidden("principal is not a budget administrator")
	}
	return nil
}
