package invoice

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/finzhq/finz/internal/rest"
	"github.com/finzhq/finz/pkg/project"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type invoiceDTO struct {
	ID        string  `json:"id"`
	Concept   string  `json:"concept,omitempty"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency,omitempty"`
	Month     string  `json:"month,omitempty"`
	Status    string  `json:"status"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

type statusUpdateDTO struct {
	Status string `json:"status"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	projectId := mux.Vars(r)["projectId"]

	invoices, err := h.service.List(r.Context(), projectId)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	dtos := make([]invoiceDTO, 0, len(invoices))
	for _, invoice := range invoices {
		dtos = append(dtos, invoiceToDTO(invoice))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		log.Errorf("could not encode invoice list: %v", err)
	}
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	vars := mux.Vars(r)
	projectId := vars["projectId"]
	invoiceId := vars["invoiceId"]

	var dto statusUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, r, rest.Invalid(err.Error()))
		return
	}
	status, ok := ParseStatus(dto.Status)
	if !ok {
		rest.WriteError(w, r, rest.Invalid("status must be one of draft, issued, paid"))
		return
	}

	invoice, err := h.service.UpdateStatus(r.Context(), projectId, invoiceId, status)
	if errors.Is(err, ErrInvoiceNotFound) {
		http.Error(w, "Invoice not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, project.ErrProjectNotFound) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(invoiceToDTO(invoice)); err != nil {
		log.Errorf("could not encode invoice: %v", err)
	}
}

func invoiceToDTO(i Invoice) invoiceDTO {
	dto := invoiceDTO{
		ID:       i.ID,
		Concept:  i.Concept,
		Amount:   i.Amount.InexactFloat64(),
		Currency: i.Currency,
		Month:    i.Month,
		Status:   string(i.Status),
	}
	if !i.UpdatedAt.IsZero() {
		dto.UpdatedAt = i.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}
