package app

import (
	"net/http"
	"strings"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/rest"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router) {

	r.Use(rest.RequestID)

	// Propagate the identity headers set by the gateway into a principal.
	// API routes without one are rejected before any handler runs.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			userId := req.Header.Get("X-User-Id")
			if userId == "" {
				if strings.HasPrefix(req.URL.Path, "/api/") {
					log.Debugf("rejecting %s %s: no identity headers", req.Method, req.URL.Path)
					http.Error(w, "Authentication required", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, req)
				return
			}

			principal := auth.Principal{
				ID:          userId,
				DisplayName: req.Header.Get("X-User-Name"),
				Roles:       splitRoles(req.Header.Get("X-User-Roles")),
			}
			next.ServeHTTP(w, req.WithContext(auth.WithPrincipal(ctx, principal)))
		})
	})
}

func splitRoles(header string) []string {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	roles := make([]string, 0, len(parts))
	for _, part := range parts {
		if role := strings.TrimSpace(part); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}
