package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"equipment-console/internal/export"
	"equipment-console/internal/model"
	"equipment-console/internal/view"
	apperrors "equipment-console/pkg/errors"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Constants for timeouts
const (
	DefaultTimeout     = 10 * time.Second
	LongRunningTimeout = 30 * time.Second
	HealthTimeout      = 3 * time.Second
)

// Dependencies wires a ConsoleHandler. Journal and Notifier are optional.
type Dependencies struct {
	Lists           ListSessions
	Detail          EquipmentDetail
	Lookup          EquipmentLookup
	Workflow        Submitter
	Characteristics CharacteristicCatalog
	References      ReferenceSource
	Journal         RunJournal
	RemoteAPI       HealthChecker
	Notifier        HealthChecker
	States          []string
}

// ConsoleHandler handles the HTTP requests of the equipment console.
type ConsoleHandler struct {
	Dependencies
	Logger *zap.Logger

	ErrorHandler   *ErrorHandler
	ResponseHelper *ResponseHelper
}

// NewConsoleHandler creates a new ConsoleHandler with dependencies and helpers
func NewConsoleHandler(deps Dependencies, logger *zap.Logger) *ConsoleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleHandler{
		Dependencies:   deps,
		Logger:         logger,
		ErrorHandler:   NewErrorHandler(logger),
		ResponseHelper: NewResponseHelper(),
	}
}

// ListEquipmentsHandler re-fetches the equipment list of the caller's session
// and returns one page. toggleSort=<column> toggles the sort; any search, sort
// or filter parameter replaces the current query; otherwise the current query
// is reloaded.
func (h *ConsoleHandler) ListEquipmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	state, err := h.refreshList(ctx, h.Lists.List(sessionKeyFor(r)), r.URL.Query())
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "list equipments")
		return
	}

	paginationParams := h.ResponseHelper.ParsePaginationParams(r)
	items, total := view.PageItems(state.Items, paginationParams.Page, paginationParams.PageSize)
	paginationMeta := h.ResponseHelper.CalculatePaginationMeta(paginationParams, total)

	responseData := h.ResponseHelper.CreatePaginatedListResponseData(items, paginationMeta, map[string]interface{}{
		"query": map[string]interface{}{
			"searchTerm": state.Search,
			"sortBy":     state.SortBy,
			"ascending":  state.Ascending,
		},
		"status":        state.Status,
		"pendingDelete": state.PendingDelete,
	})

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, responseData)
}

// ExportEquipmentsHandler returns the whole list, with the list query
// applied, as an xlsx workbook.
func (h *ConsoleHandler) ExportEquipmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	state, err := h.refreshList(ctx, h.Lists.List(sessionKeyFor(r)), r.URL.Query())
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "export equipments")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteEquipments(&buf, state.Items); err != nil {
		h.ErrorHandler.HandleError(w, apperrors.InternalError("failed to build export", err), "export equipments")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+export.FileName(time.Now()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("failed to write export", zap.Error(err))
	}
}

func (h *ConsoleHandler) refreshList(ctx context.Context, list EquipmentList, q url.Values) (view.ListState, error) {
	if column := strings.TrimSpace(q.Get("toggleSort")); column != "" {
		return list.ToggleSort(ctx, column)
	}
	query, present, err := parseListQuery(q)
	if err != nil {
		return view.ListState{}, err
	}
	if present {
		return list.Apply(ctx, query)
	}
	return list.Reload(ctx)
}

// GetEquipmentByCodeHandler looks an equipment up by its code.
func (h *ConsoleHandler) GetEquipmentByCodeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	code := strings.TrimSpace(mux.Vars(r)["code"])
	if code == "" {
		h.ErrorHandler.SendErrorResponse(w, http.StatusBadRequest, "code is required", string(apperrors.ErrorCodeInvalidParameter), nil)
		return
	}

	equipment, err := h.Lookup.GetByCode(ctx, code)
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "get equipment by code")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, equipment)
}

// GetEquipmentDetailHandler returns the equipment sheet: the equipment, its
// affectation, organs and characteristics.
func (h *ConsoleHandler) GetEquipmentDetailHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	detail, err := h.Detail.Load(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "load equipment")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, detail)
}

// CreateEquipmentHandler runs the creation workflow for the posted form.
func (h *ConsoleHandler) CreateEquipmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	var draft model.EquipmentDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}
	draft.EquipmentID = 0

	outcome, err := h.Workflow.Submit(view.WithSession(ctx, sessionKeyFor(r)), draft)
	h.respondWorkflow(w, outcome, err, http.StatusCreated, "Equipment created successfully")
}

// UpdateEquipmentHandler runs the edit workflow for the equipment in the path.
func (h *ConsoleHandler) UpdateEquipmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	var draft model.EquipmentDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}
	draft.EquipmentID = id

	outcome, err := h.Workflow.Submit(view.WithSession(ctx, sessionKeyFor(r)), draft)
	h.respondWorkflow(w, outcome, err, http.StatusOK, "Equipment updated successfully")
}

// respondWorkflow writes the outcome of a submission. A partial failure is a
// 207 carrying the outcome so the console can keep the form open.
func (h *ConsoleHandler) respondWorkflow(w http.ResponseWriter, outcome interface{}, err error, status int, message string) {
	if err == nil {
		h.ErrorHandler.SendSuccessResponse(w, status, message, outcome)
		return
	}

	if partial, ok := apperrors.AsPartialWorkflowFailure(err); ok {
		h.Logger.Warn("equipment saved with failed steps", zap.Int64("equipment_id", partial.EquipmentID), zap.Error(err))
		h.ErrorHandler.SendJSONResponse(w, http.StatusMultiStatus, map[string]interface{}{
			"error":    partial.Error(),
			"code":     apperrors.ErrorCodePartialWorkflow,
			"failures": partial.Failures,
			"data":     outcome,
		})
		return
	}

	h.ErrorHandler.HandleError(w, err, "save equipment")
}

// DeleteEquipmentHandler deletes an equipment once confirmed.
// Without confirm the deletion is only marked pending (428); confirm=false
// cancels it; confirm=true deletes the id in the path when it is the one
// pending in the caller's session, then reloads the list.
func (h *ConsoleHandler) DeleteEquipmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	list := h.Lists.List(sessionKeyFor(r))

	raw := r.URL.Query().Get("confirm")
	if raw == "" {
		list.RequestDelete(id)
		h.ErrorHandler.SendErrorResponse(w, http.StatusPreconditionRequired,
			"Deleting an equipment requires confirmation", string(apperrors.ErrorCodeConfirmRequired),
			map[string]string{"pending_id": strconv.FormatInt(id, 10)})
		return
	}

	confirm, err := strconv.ParseBool(raw)
	if err != nil {
		h.ErrorHandler.SendErrorResponse(w, http.StatusBadRequest, "confirm must be true or false", string(apperrors.ErrorCodeInvalidParameter), nil)
		return
	}
	if !confirm {
		list.CancelDelete()
		h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Deletion cancelled", nil)
		return
	}

	if err := list.ConfirmDelete(ctx, id); err != nil {
		h.ErrorHandler.HandleError(w, err, "delete equipment")
		return
	}

	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Equipment deleted successfully", map[string]int64{"id": id})
}

// parseListQuery reads the list parameters. present is false when the
// request carries none of them.
func parseListQuery(q url.Values) (view.Query, bool, error) {
	query := view.Query{
		Search:    strings.TrimSpace(q.Get("searchTerm")),
		SortBy:    strings.TrimSpace(q.Get("sortBy")),
		Ascending: true,
	}
	present := query.Search != "" || query.SortBy != ""

	if raw := q.Get("ascending"); raw != "" {
		asc, err := strconv.ParseBool(raw)
		if err != nil {
			return query, false, invalidParameter("ascending", raw)
		}
		query.Ascending = asc
		present = true
	}

	f := &query.Filter
	ints := []struct {
		key string
		dst **int64
	}{
		{"idCat", &f.CategoryID},
		{"idMarq", &f.BrandID},
		{"idType", &f.TypeID},
		{"idGrpIdq", &f.GroupID},
	}
	for _, p := range ints {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return query, false, invalidParameter(p.key, raw)
		}
		*p.dst = &v
		present = true
	}

	if raw := strings.TrimSpace(q.Get("etat")); raw != "" {
		f.State = raw
		present = true
	}

	dates := []struct {
		key string
		dst **model.Date
	}{
		{"dateMiseService", &f.ServiceDate},
		{"dateAcquisition", &f.AcquisitionDate},
	}
	for _, p := range dates {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return query, false, invalidParameter(p.key, raw)
		}
		*p.dst = &d
		present = true
	}

	if raw := q.Get("anneeFabrication"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return query, false, invalidParameter("anneeFabrication", raw)
		}
		f.ManufactureYear = &year
		present = true
	}

	if raw := q.Get("valeurAcquisition"); raw != "" {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return query, false, invalidParameter("valeurAcquisition", raw)
		}
		f.AcquisitionValue = &value
		present = true
	}

	return query, present, nil
}

func invalidParameter(key, raw string) error {
	return apperrors.NewAppError(apperrors.ErrorCodeInvalidParameter, fmt.Sprintf("invalid %s: %s", key, raw)).
		WithDetail(key, raw)
}
