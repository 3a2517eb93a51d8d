package allocation

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/finzhq/finz/internal/rest"
	"github.com/finzhq/finz/pkg/project"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ForecastCellDTO is the response contract for one normalized cell.
type ForecastCellDTO struct {
	LineItemID     string  `json:"line_item_id"`
	Month          string  `json:"month"`
	MonthIndex     int     `json:"month_index,omitempty"`
	Planned        float64 `json:"planned"`
	Forecast       float64 `json:"forecast"`
	Actual         float64 `json:"actual"`
	Variance       float64 `json:"variance"`
	VarianceReason string  `json:"variance_reason,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	LastUpdated    string  `json:"last_updated,omitempty"`
	UpdatedBy      string  `json:"updated_by,omitempty"`
}

type cellUpdateDTO struct {
	RubroID        string   `json:"rubro_id"`
	LineItemID     string   `json:"line_item_id"`
	Month          string   `json:"month"`
	Planned        *float64 `json:"planned"`
	Forecast       *float64 `json:"forecast"`
	Actual         *float64 `json:"actual"`
	VarianceReason string   `json:"variance_reason"`
	Notes          string   `json:"notes"`
}

type bulkUpdateResponse struct {
	Updated  int      `json:"updated"`
	Warnings []string `json:"warnings,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	projectId := mux.Vars(r)["projectId"]
	year := r.URL.Query().Get("year")

	cells, err := h.service.Forecast(r.Context(), projectId, year)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	dtos := make([]ForecastCellDTO, 0, len(cells))
	for _, cell := range cells {
		dtos = append(dtos, cellToDTO(cell))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		log.Errorf("could not encode forecast response: %v", err)
	}
}

func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	projectId := mux.Vars(r)["projectId"]

	var dtos []cellUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		rest.WriteError(w, r, rest.Invalid(err.Error()))
		return
	}

	updates := make([]CellUpdate, 0, len(dtos))
	for _, dto := range dtos {
		rubroID := dto.RubroID
		if rubroID == "" {
			rubroID = dto.LineItemID
		}
		updates = append(updates, CellUpdate{
			RubroID:        rubroID,
			Month:          dto.Month,
			Planned:        floatToDecimal(dto.Planned),
			Forecast:       floatToDecimal(dto.Forecast),
			Actual:         floatToDecimal(dto.Actual),
			VarianceReason: dto.VarianceReason,
			Notes:          dto.Notes,
		})
	}

	warnings, err := h.service.BulkUpdate(r.Context(), projectId, updates)
	if errors.Is(err, project.ErrProjectNotFound) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(bulkUpdateResponse{Updated: len(updates), Warnings: warnings}); err != nil {
		log.Errorf("could not encode bulk update response: %v", err)
	}
}

func cellToDTO(cell ForecastCell) ForecastCellDTO {
	dto := ForecastCellDTO{
		LineItemID:     cell.LineItemID,
		Month:          cell.CalendarKey,
		MonthIndex:     cell.MonthIndex,
		Planned:        cell.Planned.InexactFloat64(),
		Forecast:       cell.Forecast.InexactFloat64(),
		Actual:         cell.Actual.InexactFloat64(),
		Variance:       cell.Variance.InexactFloat64(),
		VarianceReason: cell.VarianceReason,
		Notes:          cell.Notes,
		UpdatedBy:      cell.UpdatedBy,
	}
	if !cell.LastUpdated.IsZero() {
		dto.LastUpdated = cell.LastUpdated.UTC().Format(time.RFC3339)
	}
	return dto
}

func floatToDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}
