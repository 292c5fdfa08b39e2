package handler

import (
	"net/http"

	"equipment-console/internal/repository"

	"github.com/gorilla/mux"
)

// ListWorkflowRunsHandler pages through the submission journal, newest
// first. Without a journal the list is empty.
func (h *ConsoleHandler) ListWorkflowRunsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	paginationParams := h.ResponseHelper.ParsePaginationParams(r)

	if h.Journal == nil {
		paginationMeta := h.ResponseHelper.CalculatePaginationMeta(paginationParams, 0)
		h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreatePaginatedListResponseData(
			[]repository.WorkflowRun{}, paginationMeta, map[string]interface{}{"journal_enabled": false}))
		return
	}

	result, err := h.Journal.ListPaginated(ctx, repository.PaginationParams{
		Offset: paginationParams.Offset,
		Limit:  paginationParams.Limit,
	})
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "list workflow runs")
		return
	}

	items := result.Items
	if items == nil {
		items = []repository.WorkflowRun{}
	}
	paginationMeta := h.ResponseHelper.CalculatePaginationMeta(paginationParams, result.TotalCount)
	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, h.ResponseHelper.CreatePaginatedListResponseData(
		items, paginationMeta, map[string]interface{}{"journal_enabled": true}))
}

func (h *ConsoleHandler) GetWorkflowRunHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, ok := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	if h.Journal == nil {
		h.ErrorHandler.HandleError(w, repository.ErrWorkflowRunNotFound, "get workflow run")
		return
	}

	run, err := h.Journal.GetByID(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleError(w, err, "get workflow run")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, run)
}

// HealthHandler reports unhealthy when the remote API is unreachable and
// degraded when only the notifier is.
func (h *ConsoleHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, HealthTimeout)
	defer cancel()

	status := "healthy"
	statusCode := http.StatusOK
	checks := map[string]string{}

	if h.RemoteAPI != nil && h.RemoteAPI.IsHealthy(ctx) {
		checks["remote_api"] = "up"
	} else {
		checks["remote_api"] = "down"
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	if h.Notifier != nil {
		if h.Notifier.IsHealthy(ctx) {
			checks["notifier"] = "up"
		} else {
			checks["notifier"] = "down"
			if statusCode == http.StatusOK {
				status = "degraded"
			}
		}
	}

	if h.Journal == nil {
		checks["journal"] = "disabled"
	} else {
		checks["journal"] = "enabled"
	}

	h.ErrorHandler.SendJSONResponse(w, statusCode, h.ResponseHelper.CreateHealthCheckData(status, checks))
}
