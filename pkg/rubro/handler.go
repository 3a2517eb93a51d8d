package rubro

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

type attachRubroDTO struct {
	RubroID    string   `json:"rubro_id"`
	Quantity   *float64 `json:"quantity"`
	UnitCost   *float64 `json:"unit_cost"`
	Currency   string   `json:"currency"`
	Recurring  *bool    `json:"recurring"`
	OneTime    *bool    `json:"one_time"`
	Type       string   `json:"type"`
	StartMonth *int     `json:"start_month"`
	EndMonth   *int     `json:"end_month"`
	Duration   string   `json:"duration"`
}

type attachRequestDTO struct {
	Rubros []attachRubroDTO `json:"rubros"`
}

type attachResponseDTO struct {
	Attached []string     `json:"attached"`
	Warnings []string     `json:"warnings,omitempty"`
	Outcomes []outcomeDTO `json:"outcomes"`
}

type outcomeDTO struct {
	RubroID  string   `json:"rubro_id"`
	Status   string   `json:"status"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type attachmentDTO struct {
	RubroID    string  `json:"rubro_id"`
	Quantity   float64 `json:"quantity"`
	UnitCost   float64 `json:"unit_cost"`
	Currency   string  `json:"currency"`
	Recurring  bool    `json:"recurring"`
	OneTime    bool    `json:"one_time"`
	StartMonth int     `json:"start_month"`
	EndMonth   int     `json:"end_month"`
	TotalCost  float64 `json:"total_cost"`
	AttachedBy string  `json:"attached_by,omitempty"`
	AttachedAt string  `json:"attached_at,omitempty"`
}

type detachResponseDTO struct {
	Detached string   `json:"detached"`
	Warnings []string `json:"warnings,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	log.Debug("Attaching rubros")
	w.Header().Set("Content-Type", "application/json")
	projectId := mux.Vars(r)["projectId"]

	var dto attachRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, r, rest.Invalid(err.Error()))
		return
	}
	if len(dto.Rubros) == 0 {
		rest.WriteError(w, r, rest.Invalid("at least one rubro is required"))
		return
	}

	inputs := make([]Input, 0, len(dto.Rubros))
	for _, rubroDTO := range dto.Rubros {
		inputs = append(inputs, Input{
			RubroID:    rubroDTO.RubroID,
			Quantity:   floatToDecimal(rubroDTO.Quantity),
			UnitCost:   floatToDecimal(rubroDTO.UnitCost),
			Currency:   rubroDTO.Currency,
			Recurring:  rubroDTO.Recurring,
			OneTime:    rubroDTO.OneTime,
			Type:       rubroDTO.Type,
			StartMonth: rubroDTO.StartMonth,
			EndMonth:   rubroDTO.EndMonth,
			Duration:   rubroDTO.Duration,
		})
	}

	result, err := h.service.Attach(r.Context(), projectId, inputs)
	if errors.Is(err, project.ErrProjectNotFound) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	response := attachResponseDTO{Attached: result.Attached, Warnings: result.Warnings}
	for _, outcome := range result.Outcomes {
		response.Outcomes = append(response.Outcomes, outcomeDTO{
			RubroID:  outcome.RubroID,
			Status:   string(outcome.Status),
			Reason:   outcome.Reason,
			Warnings: outcome.Warnings,
		})
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf("could not encode attach response: %v", err)
	}
}

func (h *Handler) Detach(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)
	projectId := vars["projectId"]
	rubroId := vars["rubroId"]

	warnings, err := h.service.Detach(r.Context(), projectId, rubroId)
	if errors.Is(err, ErrAttachmentNotFound) {
		http.Error(w, "Rubro is not attached to this project", http.StatusNotFound)
		return
	}
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(detachResponseDTO{Detached: rubroId, Warnings: warnings}); err != nil {
		log.Errorf("could not encode detach response: %v", err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	projectId := mux.Vars(r)["projectId"]

	attachments, err := h.service.List(r.Context(), projectId)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	dtos := make([]attachmentDTO, 0, len(attachments))
	for _, a := range attachments {
		dtos = append(dtos, attachmentToDTO(a))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		log.Errorf("could not encode attachment list: %v", err)
	}
}

func attachmentToDTO(a Attachment) attachmentDTO {
	dto := attachmentDTO{
		RubroID:    a.RubroID,
		Quantity:   a.Quantity.InexactFloat64(),
		UnitCost:   a.UnitCost.InexactFloat64(),
		Currency:   a.Currency,
		Recurring:  a.Recurring,
		OneTime:    !a.Recurring,
		StartMonth: a.StartMonth,
		EndMonth:   a.EndMonth,
		TotalCost:  a.TotalCost.InexactFloat64(),
		AttachedBy: a.AttachedBy,
	}
	if !a.AttachedAt.IsZero() {
		dto.AttachedAt = a.AttachedAt.UTC().Format(time.RFC3339)
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
