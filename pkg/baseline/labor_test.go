package baseline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestCanonicalRubroID(t *testing.T) {
	assert.Equal(t, "MOD-DEV-SR", CanonicalRubroID("  mod dev sr "))
	assert.Equal(t, "MOD-DEV", CanonicalRubroID("MOD-DEV"))
	assert.Equal(t, "LIC-CLOUD", CanonicalRubroID("lic-cloud"))
}

func TestIsLaborRubro(t *testing.T) {
	assert.True(t, IsLaborRubro("MOD-DEV-SR"))
	assert.True(t, IsLaborRubro("mod-qa"))
	assert.True(t, IsLaborRubro("MOI-PM"))
	assert.False(t, IsLaborRubro("LIC-CLOUD"))
	assert.False(t, IsLaborRubro("MODEM-RENTAL"))
}

func TestDeriveLaborAmount(t *testing.T) {
	withTotalCost := &Baseline{
		ID:             "b-1",
		DurationMonths: 12,
		LaborEstimates: []LaborEstimate{
			{RubroID: "MOD-DEV", TotalCost: decPtr("120000")},
		},
	}

	t.Run("derives monthly amount from total cost and duration", func(t *testing.T) {
		got := DeriveLaborAmount("MOD-DEV", decimal.Zero, withTotalCost)
		assert.True(t, got.Equal(dec("10000")), "got %s", got)
	})

	t.Run("never overwrites a non-zero stored amount", func(t *testing.T) {
		got := DeriveLaborAmount("MOD-DEV", dec("9500"), withTotalCost)
		assert.True(t, got.Equal(dec("9500")))
	})

	t.Run("never applies to non-labor rubros", func(t *testing.T) {
		b := &Baseline{
			ID:             "b-1",
			DurationMonths: 12,
			LaborEstimates: []LaborEstimate{
				{RubroID: "LIC-CLOUD", TotalCost: decPtr("120000")},
			},
		}
		got := DeriveLaborAmount("LIC-CLOUD", decimal.Zero, b)
		assert.True(t, got.IsZero())
	})

	t.Run("skips derivation when duration is missing", func(t *testing.T) {
		b := &Baseline{
			ID: "b-2",
			LaborEstimates: []LaborEstimate{
				{RubroID: "MOD-DEV", TotalCost: decPtr("120000")},
			},
		}
		got := DeriveLaborAmount("MOD-DEV", decimal.Zero, b)
		assert.True(t, got.IsZero())
	})

	t.Run("derives from hourly-rate tuple with on-cost", func(t *testing.T) {
		b := &Baseline{
			ID:             "b-3",
			DurationMonths: 12,
			LaborEstimates: []LaborEstimate{
				{
					RubroID:       "MOD-QA",
					HourlyRate:    decPtr("50"),
					HoursPerMonth: decPtr("160"),
					FTECount:      decPtr("1"),
					OnCostPct:     decPtr("25"),
				},
			},
		}
		got := DeriveLaborAmount("MOD-QA", decimal.Zero, b)
		assert.True(t, got.Equal(dec("10000")), "got %s", got)
	})

	t.Run("hourly tuple without on-cost assumes zero burden", func(t *testing.T) {
		b := &Baseline{
			ID:             "b-4",
			DurationMonths: 12,
			LaborEstimates: []LaborEstimate{
				{
					RubroID:       "MOD-QA",
					HourlyRate:    decPtr("40"),
					HoursPerMonth: decPtr("100"),
					FTECount:      decPtr("2"),
				},
			},
		}
		got := DeriveLaborAmount("MOD-QA", decimal.Zero, b)
		assert.True(t, got.Equal(dec("8000")), "got %s", got)
	})

	t.Run("total cost wins over hourly tuple", func(t *testing.T) {
		b := &Baseline{
			ID:             "b-5",
			DurationMonths: 10,
			LaborEstimates: []LaborEstimate{
				{
					RubroID:       "MOD-DEV",
					TotalCost:     decPtr("50000"),
					HourlyRate:    decPtr("999"),
					HoursPerMonth: decPtr("999"),
					FTECount:      decPtr("9"),
				},
			},
		}
		got := DeriveLaborAmount("MOD-DEV", decimal.Zero, b)
		assert.True(t, got.Equal(dec("5000")))
	})

	t.Run("no estimate entry leaves amount at zero", func(t *testing.T) {
		got := DeriveLaborAmount("MOD-UNKNOWN", decimal.Zero, withTotalCost)
		assert.True(t, got.IsZero())
	})

	t.Run("nil baseline leaves amount at zero", func(t *testing.T) {
		got := DeriveLaborAmount("MOD-DEV", decimal.Zero, nil)
		assert.True(t, got.IsZero())
	})

	t.Run("estimate matches on canonical id", func(t *testing.T) {
		got := DeriveLaborAmount("mod dev", decimal.Zero, withTotalCost)
		assert.True(t, got.Equal(dec("10000")))
	})
}
