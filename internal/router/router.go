package router

import (
	"net/http"

	"equipment-console/internal/config"
	"equipment-console/internal/handler"
	"equipment-console/internal/middleware"

	"github.com/gorilla/mux"
)

// NewRouter creates a new router and sets up the console routes with security middleware.
func NewRouter(h handler.ConsoleHandlerInterface, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	securityMW := middleware.NewSecurityMiddleware(&cfg.Security)

	// Apply global middleware in order
	r.Use(middleware.RequestID)
	r.Use(securityMW.SecurityHeaders)
	r.Use(securityMW.CORS)
	r.Use(securityMW.TrustedProxy)
	r.Use(securityMW.RateLimit)
	r.Use(securityMW.RequestTimeout)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Equipment list, sheet and workflow
	api.HandleFunc("/equipements", h.ListEquipmentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/equipements", h.CreateEquipmentHandler).Methods(http.MethodPost)
	api.HandleFunc("/equipements/export", h.ExportEquipmentsHandler).Methods(http.MethodGet)
	api.HandleFunc("/equipements/code/{code}", h.GetEquipmentByCodeHandler).Methods(http.MethodGet)
	api.HandleFunc("/equipements/{id:[0-9]+}", h.GetEquipmentDetailHandler).Methods(http.MethodGet)
	api.HandleFunc("/equipements/{id:[0-9]+}", h.UpdateEquipmentHandler).Methods(http.MethodPut)
	api.HandleFunc("/equipements/{id:[0-9]+}", h.DeleteEquipmentHandler).Methods(http.MethodDelete)

	// Form support
	api.HandleFunc("/form-options", h.FormOptionsHandler).Methods(http.MethodGet)
	api.HandleFunc("/references", h.ReferencesHandler).Methods(http.MethodGet)

	// Characteristic catalog
	api.HandleFunc("/caracteristiques", h.ListCharacteristicsHandler).Methods(http.MethodGet)
	api.HandleFunc("/caracteristiques", h.CreateCharacteristicHandler).Methods(http.MethodPost)
	api.HandleFunc("/caracteristiques/count", h.CountCharacteristicsHandler).Methods(http.MethodGet)
	api.HandleFunc("/caracteristiques/{id:[0-9]+}", h.UpdateCharacteristicHandler).Methods(http.MethodPut)
	api.HandleFunc("/caracteristiques/{id:[0-9]+}", h.DeleteCharacteristicHandler).Methods(http.MethodDelete)
	api.HandleFunc("/caracteristiques/{id:[0-9]+}/can-delete", h.CanDeleteCharacteristicHandler).Methods(http.MethodGet)

	// Submission journal
	api.HandleFunc("/workflow-runs", h.ListWorkflowRunsHandler).Methods(http.MethodGet)
	api.HandleFunc("/workflow-runs/{id}", h.GetWorkflowRunHandler).Methods(http.MethodGet)

	// Health check
	api.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	return r
}
