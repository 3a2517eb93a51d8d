package baseline

import (
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// laborPrefixes mark rubro identifiers whose cost comes from compensation
// metadata ("mano de obra" categories).
var laborPrefixes = []string{"MOD-", "MOI-"}

// CanonicalRubroID normalizes a rubro identifier: trimmed, upper-cased,
// inner whitespace collapsed to dashes.
func CanonicalRubroID(id string) string {
	id = strings.ToUpper(strings.TrimSpace(id))
	return strings.Join(strings.Fields(id), "-")
}

// IsLaborRubro reports whether a rubro is labor-classified by naming
// convention.
func IsLaborRubro(rubroID string) bool {
	canonical := CanonicalRubroID(rubroID)
	for _, prefix := range laborPrefixes {
		if strings.HasPrefix(canonical, prefix) {
			return true
		}
	}
	return false
}

// DeriveLaborAmount fills a zero monthly amount for a labor rubro from the
// baseline's compensation metadata. A non-zero stored amount is never
// overwritten, non-labor rubros are never touched, and any gap in the
// metadata leaves the amount at zero rather than guessing a default.
func DeriveLaborAmount(rubroID string, stored decimal.Decimal, b *Baseline) decimal.Decimal {
	if !stored.IsZero() {
		return stored
	}
	if !IsLaborRubro(rubroID) {
		return stored
	}
	if b == nil {
		return stored
	}

	estimate := b.FindEstimate(rubroID)
	if estimate == nil {
		return stored
	}

	if estimate.TotalCost != nil {
		if b.DurationMonths <= 0 {
			// Never divide by an assumed duration.
			log.Debugf("baseline %s has no duration, skipping labor derivation for %s", b.ID, rubroID)
			return stored
		}
		return estimate.TotalCost.Div(decimal.NewFromInt(int64(b.DurationMonths)))
	}

	if estimate.HourlyRate != nil && estimate.HoursPerMonth != nil && estimate.FTECount != nil {
		onCost := decimal.Zero
		if estimate.OnCostPct != nil {
			onCost = *estimate.OnCostPct
		}
		burden := decimal.NewFromInt(1).Add(onCost.Div(decimal.NewFromInt(100)))
		return estimate.HourlyRate.Mul(*estimate.HoursPerMonth).Mul(*estimate.FTECount).Mul(burden)
	}

	return stored
}
