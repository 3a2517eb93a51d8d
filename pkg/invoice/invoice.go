// Package invoice stores prefacturas (pre-invoices) raised against a
// project. They are bookkeeping records only; nothing here derives amounts.
package invoice

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusDraft  Status = "draft"
	StatusIssued Status = "issued"
	StatusPaid   Status = "paid"
)

// Invoice is one prefactura. Status only ever moves forward.
type Invoice struct {
	ID        string
	ProjectID string
	Concept   string
	Amount    decimal.Decimal
	Currency  string
	Month     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransition reports whether a status change follows the
// draft -> issued -> paid progression.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusIssued
	case StatusIssued:
		return to == StatusPaid
	}
	return false
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusDraft, StatusIssued, StatusPaid:
		return Status(raw), true
	}
	return "", false
}
