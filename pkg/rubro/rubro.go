// Package rubro attaches cost-catalog line items to projects and
// materializes them into monthly allocation rows.
package rubro

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attachment is the project <-> catalog-item association. Re-attaching the
// same rubro replaces the prior terms; there is no versioning.
type Attachment struct {
	ProjectID  string
	RubroID    string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	Currency   string
	Recurring  bool
	StartMonth int
	EndMonth   int
	TotalCost  decimal.Decimal
	AttachedBy string
	AttachedAt time.Time
}

// MonthCount is the number of months the attachment spans.
func (a Attachment) MonthCount() int {
	return a.EndMonth - a.StartMonth + 1
}

// MonthlyCost is the amount mirrored into each allocation row: quantity times
// unit cost, repeated per month for recurring rubros rather than amortized.
func (a Attachment) MonthlyCost() decimal.Decimal {
	return a.Quantity.Mul(a.UnitCost)
}

// OutcomeStatus classifies how processing one rubro of an attach batch ended.
type OutcomeStatus string

const (
	// Committed: attachment, mirrored allocations, and audit all written.
	Committed OutcomeStatus = "committed"
	// CommittedWithWarnings: the attachment is durable but one or more
	// mirrored writes failed; the next full fetch may briefly disagree.
	CommittedWithWarnings OutcomeStatus = "committed_with_warnings"
	// Failed: the attachment write itself failed, nothing was recorded.
	Failed OutcomeStatus = "failed"
)

// Outcome is the typed result of one rubro in an attach batch.
type Outcome struct {
	RubroID  string
	Status   OutcomeStatus
	Warnings []string
	Reason   string
}

// AttachResult reports the whole batch: attached ids and warnings are kept
// separate so callers can tell recoverable drift from fatal failures.
type AttachResult struct {
	Attached []string
	Warnings []string
	Outcomes []Outcome
}
