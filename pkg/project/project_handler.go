package project

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/finzhq/finz/internal/rest"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ProjectDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	StartDate  string `json:"startDate,omitempty"`
	BaselineID string `json:"baselineId,omitempty"`
	Currency   string `json:"currency,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new project")
	w.Header().Set("Content-Type", "application/json")

	var dto ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, r, rest.Invalid(err.Error()))
		return
	}
	if dto.Name == "" {
		rest.WriteError(w, r, rest.Invalid("project name is required"))
		return
	}
	p, err := dtoToProject(dto)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	created, err := h.service.Create(r.Context(), p)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(projectToDTO(created)); err != nil {
		log.Errorf("could not encode project response: %v", err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	projectId := mux.Vars(r)["projectId"]

	p, err := h.service.Get(r.Context(), projectId)
	if errors.Is(err, ErrProjectNotFound) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(projectToDTO(p)); err != nil {
		log.Errorf("could not encode project response: %v", err)
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	projects, err := h.service.List(r.Context())
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	dtos := make([]ProjectDTO, 0, len(projects))
	for _, p := range projects {
		dtos = append(dtos, projectToDTO(p))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		log.Errorf("could not encode project list: %v", err)
	}
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	projectId := mux.Vars(r)["projectId"]

	var dto ProjectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, r, rest.Invalid(err.Error()))
		return
	}
	if dto.ID != "" && dto.ID != projectId {
		rest.WriteError(w, r, rest.Invalid("project id in body does not match path"))
		return
	}
	dto.ID = projectId
	p, err := dtoToProject(dto)
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	updated, err := h.service.Update(r.Context(), p)
	if errors.Is(err, ErrProjectNotFound) {
		http.Error(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		rest.WriteError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(projectToDTO(updated)); err != nil {
		log.Errorf("could not encode project response: %v", err)
	}
}

func projectToDTO(p Project) ProjectDTO {
	dto := ProjectDTO{
		ID:         p.ID,
		Name:       p.Name,
		BaselineID: p.BaselineID,
		Currency:   p.Currency,
	}
	if p.StartDate != nil {
		dto.StartDate = p.StartDate.Format(dateLayout)
	}
	return dto
}

func dtoToProject(dto ProjectDTO) (Project, error) {
	p := Project{
		ID:         dto.ID,
		Name:       dto.Name,
		BaselineID: dto.BaselineID,
		Currency:   dto.Currency,
	}
	if dto.StartDate != "" {
		startDate, err := time.Parse(dateLayout, dto.StartDate)
		if err != nil {
			return Project{}, rest.Invalid("startDate must be formatted as YYYY-MM-DD")
		}
		p.StartDate = &startDate
	}
	return p, nil
}
