package overview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/finzhq/finz/internal/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var ErrBudgetNotFound = errors.New("annual budget not found")

const (
	budgetMetaSK    = "META"
	payrollSKPrefix = "PAYROLL#"
)

type Repo interface {
	GetBudget(ctx context.Context, year int) (AnnualBudget, error)
	PutBudget(ctx context.Context, budget AnnualBudget) error
	// PayrollActualsForYear sums the stored payroll rows of one project whose
	// month falls in the given year.
	PayrollActualsForYear(ctx context.Context, projectID string, year int) (decimal.Decimal, error)
}

type RepoImpl struct {
	store store.Store
}

func NewRepo(s store.Store) *RepoImpl {
	return &RepoImpl{store: s}
}

type budgetDoc struct {
	Year     int             `json:"year"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// payrollDoc is a stored payroll actual for one project month. Legacy rows
// use "monto"; new rows use "amount".
type payrollDoc struct {
	Amount *decimal.Decimal `json:"amount"`
	Monto  *decimal.Decimal `json:"monto"`
}

func budgetPK(year int) string {
	return "BUDGET#" + strconv.Itoa(year)
}

func projectPK(projectID string) string {
	return "PROJECT#" + projectID
}

func (r *RepoImpl) GetBudget(ctx context.Context, year int) (AnnualBudget, error) {
	item, err := r.store.Get(ctx, budgetPK(year), budgetMetaSK)
	if errors.Is(err, store.ErrNotFound) {
		return AnnualBudget{}, ErrBudgetNotFound
	}
	if err != nil {
		return AnnualBudget{}, fmt.Errorf("could not get budget for %d: %w", year, err)
	}
	var doc budgetDoc
	if err := json.Unmarshal(item.Payload, &doc); err != nil {
		return AnnualBudget{}, fmt.Errorf("could not unmarshal budget for %d: %w", year, err)
	}
	return AnnualBudget{Year: year, Amount: doc.Amount, Currency: doc.Currency}, nil
}

func (r *RepoImpl) PutBudget(ctx context.Context, budget AnnualBudget) error {
	item, err := store.NewItem(budgetPK(budget.Year), budgetMetaSK, budgetDoc{
		Year:     budget.Year,
		Amount:   budget.Amount,
		Currency: budget.Currency,
	})
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, item); err != nil {
		return fmt.Errorf("could not store budget for %d: %w", budget.Year, err)
	}
	return nil
}

func (r *RepoImpl) PayrollActualsForYear(ctx context.Context, projectID string, year int) (decimal.Decimal, error) {
	prefix := payrollSKPrefix + strconv.Itoa(year) + "-"
	items, err := store.QueryAll(ctx, r.store, projectPK(projectID), prefix)
	if err != nil {
		return decimal.Zero, fmt.Errorf("could not list payroll for project %s year %d: %w", projectID, year, err)
	}

	total := decimal.Zero
	for _, item := range items {
		var doc payrollDoc
		if err := json.Unmarshal(item.Payload, &doc); err != nil {
			log.Warnf("skipping malformed payroll row %s/%s: %v", item.PK, item.SK, err)
			continue
		}
		switch {
		case doc.Amount != nil:
			total = total.Add(*doc.Amount)
		case doc.Monto != nil:
			total = total.Add(*doc.Monto)
		default:
			log.Warnf("payroll row %s/%s has no amount field", item.PK, item.SK)
		}
	}
	return total, nil
}
