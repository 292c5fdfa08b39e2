package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"equipment-console/internal/model"
	apperrors "equipment-console/pkg/errors"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// FormOptionsHandler returns what the equipment form needs to render: the
// allowed states and, once typeId and brandId are picked, the attachable
// characteristics and organs.
func (h *ConsoleHandler) FormOptionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	data := map[string]interface{}{
		"states": h.States,
	}

	q := r.URL.Query()
	rawType, rawBrand := q.Get("typeId"), q.Get("brandId")
	if rawType != "" && rawBrand != "" {
		typeID, err := strconv.ParseInt(rawType, 10, 64)
		if err != nil || typeID <= 0 {
			h.ErrorHandler.HandleError(w, invalidParameter("typeId", rawType), "form options")
			return
		}
		brandID, err := strconv.ParseInt(rawBrand, 10, 64)
		if err != nil || brandID <= 0 {
			h.ErrorHandler.HandleError(w, invalidParameter("brandId", rawBrand), "form options")
			return
		}

		opts, err := h.Workflow.AttachableOptions(ctx, typeID, brandID)
		if err != nil {
			h.ErrorHandler.HandleError(w, err, "load attachable options")
			return
		}
		data["attachable"] = opts
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, data)
}

// ReferencesHandler returns the lookup lists of the form selectors. Lists
// that failed to load are empty and reported in warning.
func (h *ConsoleHandler) ReferencesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	refs, err := h.References.All(ctx)
	if refs == nil {
		if err == nil {
			err = apperrors.InternalError("no reference data", nil)
		}
		h.ErrorHandler.HandleError(w, err, "load references")
		return
	}

	data := map[string]interface{}{"references": refs}
	if err != nil {
		h.Logger.Warn("reference lists partially loaded", zap.Error(err))
		data["warning"] = err.Error()
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, data)
}

// ListCharacteristicsHandler lists the characteristic catalog.
func (h *ConsoleHandler) ListCharacteristicsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	q := r.URL.Query()
	ascending := true
	if raw := q.Get("ascending"); raw != "" {
		asc, err := strconv.ParseBool(raw)
		if err != nil {
			h.ErrorHandler.HandleError(w, invalidParameter("ascending", raw), "list characteristics")
			return
		}
		ascending = asc
	}

	items, err := h.Characteristics.ListCatalog(ctx, strings.TrimSpace(q.Get("searchTerm")), strings.TrimSpace(q.Get("sortBy")), ascending)
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "list characteristics")
		return
	}
	if items == nil {
		items = []model.Characteristic{}
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func (h *ConsoleHandler) CountCharacteristicsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	count, err := h.Characteristics.Count(ctx)
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "count characteristics")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, map[string]int{"count": count})
}

// CreateCharacteristicHandler adds a catalog entry.
func (h *ConsoleHandler) CreateCharacteristicHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	item, ok := h.decodeCharacteristic(w, r)
	if !ok {
		return
	}
	item.ID = 0

	created, err := h.Characteristics.Create(ctx, item)
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "create characteristic")
		return
	}

	h.ErrorHandler.SendSuccessResponse(w, http.StatusCreated, "Characteristic created successfully", created)
}

func (h *ConsoleHandler) UpdateCharacteristicHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	item, ok := h.decodeCharacteristic(w, r)
	if !ok {
		return
	}
	item.ID = id

	if err := h.Characteristics.Update(ctx, id, item); err != nil {
		h.ErrorHandler.HandleError(w, err, "update characteristic")
		return
	}

	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Characteristic updated successfully", item)
}

// DeleteCharacteristicHandler removes a catalog entry that no equipment uses.
func (h *ConsoleHandler) DeleteCharacteristicHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	canDelete, err := h.Characteristics.CanDelete(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "check characteristic usage")
		return
	}
	if !canDelete {
		h.ErrorHandler.HandleError(w,
			apperrors.NewAppError(apperrors.ErrorCodeConflict, "Characteristic is still attached to equipment").
				WithDetail("id", strconv.FormatInt(id, 10)),
			"delete characteristic")
		return
	}

	if err := h.Characteristics.Delete(ctx, id); err != nil {
		h.ErrorHandler.HandleError(w, err, "delete characteristic")
		return
	}

	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Characteristic deleted successfully", map[string]int64{"id": id})
}

func (h *ConsoleHandler) CanDeleteCharacteristicHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	canDelete, err := h.Characteristics.CanDelete(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "check characteristic usage")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, map[string]interface{}{
		"id":        id,
		"canDelete": canDelete,
	})
}

func (h *ConsoleHandler) decodeCharacteristic(w http.ResponseWriter, r *http.Request) (model.Characteristic, bool) {
	var item model.Characteristic
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return item, false
	}
	item.Label = strings.TrimSpace(item.Label)
	if item.Label == "" {
		h.ErrorHandler.HandleError(w,
			apperrors.ValidationErrorWithDetails("Validation failed", map[string]string{"libelle": "required"}),
			"validate characteristic")
		return item, false
	}
	return item, true
}
