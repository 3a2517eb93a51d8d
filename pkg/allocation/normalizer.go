package allocation

import (
	"context"
	"time"

	"github.com/finzhq/finz/pkg/baseline"
	"github.com/finzhq/finz/pkg/month"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Normalizer turns raw stored allocation rows into canonical ForecastCells:
// alias-resolved amounts, labor gap-fill from the baseline, and a canonical
// month resolved through the same function the write path uses.
type Normalizer struct {
	baselines baseline.Repo
}

func NewNormalizer(baselines baseline.Repo) *Normalizer {
	return &Normalizer{baselines: baselines}
}

func (n *Normalizer) Normalize(ctx context.Context, projectID string, projectStart *time.Time, records []Record) []ForecastCell {
	// The baseline is fetched once per batch. A failed lookup degrades to
	// "no derivation" for the affected rows, never to a failed batch.
	var currentBaseline *baseline.Baseline
	baselineFetched := false
	fetchBaseline := func() *baseline.Baseline {
		if baselineFetched {
			return currentBaseline
		}
		baselineFetched = true
		b, err := n.baselines.GetCurrent(ctx, projectID)
		if err != nil {
			log.Warnf("no current baseline for project %s, labor amounts stay as stored: %v", projectID, err)
			return nil
		}
		currentBaseline = &b
		return currentBaseline
	}

	cells := make([]ForecastCell, 0, len(records))
	for _, record := range records {
		planned := decimal.Zero
		if record.Planned != nil {
			planned = *record.Planned
		}
		rubroID := baseline.CanonicalRubroID(record.RubroID)
		if planned.IsZero() && baseline.IsLaborRubro(rubroID) {
			planned = baseline.DeriveLaborAmount(rubroID, planned, fetchBaseline())
		}

		var resolution month.Resolution
		switch {
		case record.CalendarKey != "":
			resolved, err := month.Resolve(record.CalendarKey, projectStart)
			if err != nil {
				log.Warnf("skipping allocation for %s with unresolvable month %q: %v", rubroID, record.CalendarKey, err)
				continue
			}
			resolution = resolved
		case record.MonthOrdinal != nil:
			resolution = month.ResolveOrdinal(*record.MonthOrdinal, projectStart)
		default:
			log.Warnf("skipping allocation for %s with no month information", rubroID)
			continue
		}

		forecast := planned
		if record.Forecast != nil {
			forecast = *record.Forecast
		}
		actual := decimal.Zero
		if record.Actual != nil {
			actual = *record.Actual
		}

		cells = append(cells, ForecastCell{
			LineItemID:     rubroID,
			CalendarKey:    resolution.CalendarKey,
			MonthIndex:     resolution.Index,
			Planned:        planned,
			Forecast:       forecast,
			Actual:         actual,
			Variance:       actual.Sub(planned),
			VarianceReason: record.VarianceReason,
			Notes:          record.Notes,
			Degraded:       resolution.Degraded,
			LastUpdated:    record.LastUpdated,
			UpdatedBy:      record.UpdatedBy,
		})
	}
	return cells
}
