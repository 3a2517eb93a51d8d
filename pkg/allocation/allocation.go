// Package allocation owns the monthly forecast cells: one row per
// (project, rubro, calendar month) carrying planned, forecast, and actual
// amounts.
package allocation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation is a single materialized forecast cell. Writes are idempotent
// upserts keyed on (ProjectID, RubroID, CalendarKey).
type Allocation struct {
	ProjectID      string
	RubroID        string
	CalendarKey    string // YYYY-MM
	MonthIndex     int
	Planned        decimal.Decimal
	Forecast       decimal.Decimal
	Actual         decimal.Decimal
	VarianceReason string
	Notes          string
	LastUpdated    time.Time
	UpdatedBy      string
}

// ForecastCell is the canonical, normalized view of an allocation.
// Variance is derived (actual - planned, positive means overspend) and is
// never stored as source of truth.
type ForecastCell struct {
	LineItemID     string
	CalendarKey    string
	MonthIndex     int
	Planned        decimal.Decimal
	Forecast       decimal.Decimal
	Actual         decimal.Decimal
	Variance       decimal.Decimal
	VarianceReason string
	Notes          string
	Degraded       bool
	LastUpdated    time.Time
	UpdatedBy      string
}
