package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Projects
	r.HandleFunc("/api/projects", deps.ProjectHandler.List).Methods("GET")
	r.HandleFunc("/api/projects", deps.ProjectHandler.Create).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}", deps.ProjectHandler.Get).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}", deps.ProjectHandler.Update).Methods("PUT")

	// Rubro attachments
	r.HandleFunc("/api/projects/{projectId}/rubros", deps.RubroHandler.List).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/rubros", deps.RubroHandler.Attach).Methods("POST")
	r.HandleFunc("/api/projects/{projectId}/rubros/{rubroId}", deps.RubroHandler.Detach).Methods("DELETE")

	// Monthly forecast
	r.HandleFunc("/api/projects/{projectId}/forecast", deps.AllocationHandler.GetForecast).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/forecast", deps.AllocationHandler.BulkUpdate).Methods("PUT")

	// Prefacturas
	r.HandleFunc("/api/projects/{projectId}/invoices", deps.InvoiceHandler.List).Methods("GET")
	r.HandleFunc("/api/projects/{projectId}/invoices/{invoiceId}/status", deps.InvoiceHandler.UpdateStatus).Methods("PUT")

	// Audit trail
	r.HandleFunc("/api/projects/{projectId}/audit", deps.AuditHandler.ListForProject).Methods("GET")

	// Annual budget + overview
	r.HandleFunc("/api/budget/{year}", deps.OverviewHandler.GetBudget).Methods("GET")
	r.HandleFunc("/api/budget/{year}", deps.OverviewHandler.PutBudget).Methods("PUT")
	r.HandleFunc("/api/budget/{year}/overview", deps.OverviewHandler.GetOverview).Methods("GET")
}
