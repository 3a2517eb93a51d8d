package audit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/finzhq/finz/internal/auth"
	"github.com/finzhq/finz/internal/rest"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type entryDTO struct {
	ID     string          `json:"id"`
	Entity string          `json:"entity"`
	Action string          `json:"action"`
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
	Actor  string          `json:"actor,omitempty"`
	At     string          `json:"at"`
}

type Handler struct {
	repo Repo
}

func NewHandler(repo Repo) *Handler {
	return &Handler{repo: repo}
}

// ListForProject returns a project's trail oldest first. The trail is
// best-effort reading material; a storage failure yields an empty list.
func (h *Handler) ListForProject(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := auth.EnsureCanRead(r.Context()); err != nil {
		rest.WriteError(w, r, err)
		return
	}
	projectId := mux.Vars(r)["projectId"]

	entries, err := h.repo.ListForEntity(r.Context(), "PROJECT#"+projectId)
	if err != nil {
		log.Errorf("could not list audit entries for project %s (request %s): %v",
			projectId, rest.RequestIDFrom(r.Context()), err)
		entries = nil
	}

	dtos := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, entryDTO{
			ID:     entry.ID,
			Entity: entry.EntitySK,
			Action: string(entry.Action),
			Before: entry.Before,
			After:  entry.After,
			Actor:  entry.Actor,
			At:     entry.At.UTC().Format(time.RFC3339),
		})
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		log.Errorf("could not encode audit entries: %v", err)
	}
}
