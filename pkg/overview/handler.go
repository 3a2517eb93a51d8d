package overview

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/finzhq/finz/internal/rest"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type budgetDTO struct {
	Year     int     `json:"year"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type totalsDTO struct {
	Planned                       float64  `json:"planned"`
	Forecast                      float64  `json:"forecast"`
	Actual                        float64  `json:"actual"`
	VarianceBudgetVsForecast      float64  `json:"varianceBudgetVsForecast"`
	VarianceBudgetVsActual        float64  `json:"varianceBudgetVsActual"`
	PercentBudgetConsumedActual   *float64 `json:"percentBudgetConsumedActual"`
	PercentBudgetConsumedForecast *float64 `json:"percentBudgetConsumedForecast"`
}

type budgetAllInDTO struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type projectContributionDTO struct {
	ProjectID string  `json:"projectId"`
	Name      string  `json:"name"`
	Planned   float64 `json:"planned"`
	Forecast  float64 `json:"forecast"`
	Actual    float64 `json:"actual"`
}

type overviewDTO struct {
	Year        int                      `json:"year"`
	BudgetAllIn *budgetAllInDTO          `json:"budgetAllIn"`
	Totals      totalsDTO                `json:"totals"`
	ByProject   []projectContributionDTO `json:"byProject,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func yearFromRequest(r *http.Request) (int, error) {
	raw := mux.Vars(r)["year"]
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2100 {
		return 0, rest.Invalid("year must be a four digit calendar year")
	}
	return year, nil
}

func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	year, err := yearFromRequest(r)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	budget, err := h.service.GetBudget(r.Context(), year)
	if errors.Is(err, ErrBudgetNotFound) {
		http.Error(w, "No budget set for this year", http.StatusNotFound)
		return
	}
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	dto := budgetDTO{Year: budget.Year, Amount: budget.Amount.InexactFloat64(), Currency: budget.Currency}
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		log.Errorf("could not encode budget: %v", err)
	}
}

func (h *Handler) PutBudget(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	year, err := yearFromRequest(r)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	var dto budgetDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, r, rest.Invalid(err.Error()))
		return
	}

	budget := AnnualBudget{
		Year:     year,
		Amount:   decimal.NewFromFloat(dto.Amount),
		Currency: dto.Currency,
	}
	if err := h.service.SetBudget(r.Context(), budget); err != nil {
		rest.WriteError(w, r, err)
		return
	}

	dto.Year = year
	if err := json.NewEncoder(w).Encode(dto); err != nil {
		log.Errorf("could not encode budget: %v", err)
	}
}

func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	log.Debug("Computing budget overview")
	w.Header().Set("Content-Type", "application/json")
	year, err := yearFromRequest(r)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}
	includeProjects := r.URL.Query().Get("byProject") == "true"

	result, err := h.service.Compute(r.Context(), year, includeProjects)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(overviewToDTO(result)); err != nil {
		log.Errorf("could not encode overview: %v", err)
	}
}

func overviewToDTO(o Overview) overviewDTO {
	dto := overviewDTO{
		Year: o.Year,
		Totals: totalsDTO{
			Planned:                       o.Totals.Planned.InexactFloat64(),
			Forecast:                      o.Totals.Forecast.InexactFloat64(),
			Actual:                        o.Totals.Actual.InexactFloat64(),
			VarianceBudgetVsForecast:      o.Totals.VarianceBudgetVsForecast.InexactFloat64(),
			VarianceBudgetVsActual:        o.Totals.VarianceBudgetVsActual.InexactFloat64(),
			PercentBudgetConsumedActual:   o.Totals.PercentBudgetConsumedActual,
			PercentBudgetConsumedForecast: o.Totals.PercentBudgetConsumedForecast,
		},
	}
	if o.Budget != nil {
		dto.BudgetAllIn = &budgetAllInDTO{Amount: o.Budget.Amount.InexactFloat64(), Currency: o.Budget.Currency}
	}
	for _, contribution := range o.ByProject {
		dto.ByProject = append(dto.ByProject, projectContributionDTO{
			ProjectID: contribution.ProjectID,
			Name:      contribution.Name,
			Planned:   contribution.Planned.InexactFloat64(),
			Forecast:  contribution.Forecast.InexactFloat64(),
			Actual:    contribution.Actual.InexactFloat64(),
		})
	}
	return dto
}
