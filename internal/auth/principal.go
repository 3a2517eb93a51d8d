package auth

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const PrincipalKey contextKey = "principal"

var ErrNoPrincipal = errors.New("principal not found")

// Principal is the already-authenticated caller. Authentication itself happens
// upstream; this service only checks roles.
type Principal struct {
	ID          string
	DisplayName string
	Roles       []string
}

func (p Principal) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		for _, own := range p.Roles {
			if own == role {
				return true
			}
		}
	}
	return false
}

// CurrentPrincipal retrieves the caller from the context. Returns ErrNoPrincipal when absent.
func CurrentPrincipal(ctx context.Context) (Principal, error) {
	principal, ok := ctx.Value(PrincipalKey).(Principal)
	if !ok {
		log.Trace("principal not found in context")
		return Principal{}, ErrNoPrincipal
	}
	return principal, nil
}

func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}
