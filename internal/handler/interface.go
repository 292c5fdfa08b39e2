package handler

import (
	"context"
	"net/http"

	"equipment-console/internal/model"
	"equipment-console/internal/repository"
	"equipment-console/internal/view"
	"equipment-console/internal/workflow"

	"github.com/google/uuid"
)

// ConsoleHandlerInterface defines the contract for the console HTTP handlers.
type ConsoleHandlerInterface interface {
	// Equipment list, detail and workflow
	ListEquipmentsHandler(w http.ResponseWriter, r *http.Request)
	ExportEquipmentsHandler(w http.ResponseWriter, r *http.Request)
	GetEquipmentByCodeHandler(w http.ResponseWriter, r *http.Request)
	GetEquipmentDetailHandler(w http.ResponseWriter, r *http.Request)
	CreateEquipmentHandler(w http.ResponseWriter, r *http.Request)
	UpdateEquipmentHandler(w http.ResponseWriter, r *http.Request)
	DeleteEquipmentHandler(w http.ResponseWriter, r *http.Request)

	// Form support
	FormOptionsHandler(w http.ResponseWriter, r *http.Request)
	ReferencesHandler(w http.ResponseWriter, r *http.Request)

	// Characteristic catalog
	ListCharacteristicsHandler(w http.ResponseWriter, r *http.Request)
	CountCharacteristicsHandler(w http.ResponseWriter, r *http.Request)
	CreateCharacteristicHandler(w http.ResponseWriter, r *http.Request)
	UpdateCharacteristicHandler(w http.ResponseWriter, r *http.Request)
	DeleteCharacteristicHandler(w http.ResponseWriter, r *http.Request)
	CanDeleteCharacteristicHandler(w http.ResponseWriter, r *http.Request)

	// Submission journal
	ListWorkflowRunsHandler(w http.ResponseWriter, r *http.Request)
	GetWorkflowRunHandler(w http.ResponseWriter, r *http.Request)

	// Health and monitoring
	HealthHandler(w http.ResponseWriter, r *http.Request)
}

// Ensure ConsoleHandler implements ConsoleHandlerInterface at compile time
var _ ConsoleHandlerInterface = (*ConsoleHandler)(nil)

// EquipmentList is the list view state of one console session. Every
// transition returns the state its own load produced.
type EquipmentList interface {
	Apply(ctx context.Context, query view.Query) (view.ListState, error)
	ToggleSort(ctx context.Context, column string) (view.ListState, error)
	Reload(ctx context.Context) (view.ListState, error)
	RequestDelete(id int64)
	CancelDelete()
	ConfirmDelete(ctx context.Context, id int64) error
}

// ListSessions hands out the list of a console session.
type ListSessions interface {
	List(session string) EquipmentList
}

type EquipmentDetail interface {
	Load(ctx context.Context, id int64) (*view.Detail, error)
}

type EquipmentLookup interface {
	GetByCode(ctx context.Context, code string) (*model.Equipment, error)
}

// Submitter runs the create and edit workflow.
type Submitter interface {
	Submit(ctx context.Context, draft model.EquipmentDraft) (*workflow.Outcome, error)
	AttachableOptions(ctx context.Context, typeID, brandID int64) (*workflow.AttachableOptions, error)
}

type CharacteristicCatalog interface {
	ListCatalog(ctx context.Context, search, sortBy string, ascending bool) ([]model.Characteristic, error)
	Create(ctx context.Context, item model.Characteristic) (*model.Characteristic, error)
	Update(ctx context.Context, id int64, item model.Characteristic) error
	CanDelete(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type ReferenceSource interface {
	All(ctx context.Context) (*model.References, error)
}

type RunJournal interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.WorkflowRun, error)
	ListPaginated(ctx context.Context, params repository.PaginationParams) (*repository.PaginatedResult, error)
}

type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}
