// Package overview aggregates planned, forecast and actual spend across
// projects against the annual all-in budget.
package overview

import (
	"github.com/shopspring/decimal"
)

// AnnualBudget is the single all-in envelope for a calendar year.
type AnnualBudget struct {
	Year     int
	Amount   decimal.Decimal
	Currency string
}

// Totals carries the aggregated figures for one overview. Variances are
// spend minus budget, so positive means overspend. The percent metrics are
// nil when no budget is set or the budget is zero; a ratio against nothing
// is noise, not information.
type Totals struct {
	Planned  decimal.Decimal
	Forecast decimal.Decimal
	Actual   decimal.Decimal

	VarianceBudgetVsForecast decimal.Decimal
	VarianceBudgetVsActual   decimal.Decimal

	PercentBudgetConsumedActual   *float64
	PercentBudgetConsumedForecast *float64
}

// ProjectContribution is one project's slice of the overview.
type ProjectContribution struct {
	ProjectID string
	Name      string
	Planned   decimal.Decimal
	Forecast  decimal.Decimal
	Actual    decimal.Decimal
}

// Overview is the computed result for one year. Budget is nil when no annual
// budget has been stored.
type Overview struct {
	Year      int
	Budget    *AnnualBudget
	Totals    Totals
	ByProject []ProjectContribution
}
