package baseline

import (
	"time"

	"github.com/shopspring/decimal"
)

// LaborEstimate is one compensation entry of a baseline. Either TotalCost or
// the hourly-rate tuple is present; legacy entries may carry neither.
type LaborEstimate struct {
	RubroID       string           `json:"rubro_id"`
	TotalCost     *decimal.Decimal `json:"total_cost,omitempty"`
	HourlyRate    *decimal.Decimal `json:"hourly_rate,omitempty"`
	HoursPerMonth *decimal.Decimal `json:"hours_per_month,omitempty"`
	FTECount      *decimal.Decimal `json:"fte_count,omitempty"`
	// OnCostPct is the employer burden percentage added atop base compensation.
	OnCostPct *decimal.Decimal `json:"on_cost_percentage,omitempty"`
}

// Baseline is the approved cost/schedule plan for a project. ProjectID may be
// empty on legacy baselines.
type Baseline struct {
	ID             string          `json:"baseline_id"`
	ProjectID      string          `json:"project_id,omitempty"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
	DurationMonths int             `json:"duration_months"`
	LaborEstimates []LaborEstimate `json:"labor_estimates,omitempty"`
}

// FindEstimate returns the labor estimate for a rubro, matching on the
// canonical identifier.
func (b *Baseline) FindEstimate(rubroID string) *LaborEstimate {
	want := CanonicalRubroID(rubroID)
	for i := range b.LaborEstimates {
		if CanonicalRubroID(b.LaborEstimates[i].RubroID) == want {
			return &b.LaborEstimates[i]
		}
	}
	return nil
}
