// Package audit keeps an append-only before/after trail of financial
// mutations. Entries are never updated or deleted.
package audit

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionAttach Action = "attach"
	ActionDetach Action = "detach"
	ActionUpdate Action = "update"
)

// Entry records one mutation of one entity. Before is null for creations,
// After is null for deletions.
type Entry struct {
	ID       string          `json:"audit_id"`
	EntityPK string          `json:"entity_pk"`
	EntitySK string          `json:"entity_sk"`
	Action   Action          `json:"action"`
	Before   json.RawMessage `json:"before,omitempty"`
	After    json.RawMessage `json:"after,omitempty"`
	Actor    string          `json:"actor,omitempty"`
	At       time.Time       `json:"at"`
}
