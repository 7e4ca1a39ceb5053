package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"prsentinel/internal/model"
	"prsentinel/internal/service"
	"prsentinel/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// WorkflowHandler handles signal ingestion and workflow operator actions.
type WorkflowHandler struct {
	intakeSvc   *service.IntakeService
	workflowSvc *service.WorkflowService
}

// NewWorkflowHandler creates a new workflow handler.
func NewWorkflowHandler(intakeSvc *service.IntakeService, workflowSvc *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{
		intakeSvc:   intakeSvc,
		workflowSvc: workflowSvc,
	}
}

// ReceiveSentiment handles POST /v1/sentiment, the detector's ingestion
// endpoint. Returns as soon as the pipeline is enqueued.
func (h *WorkflowHandler) ReceiveSentiment(w http.ResponseWriter, r *http.Request) {
	var input model.SignalInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.SignalType == "" {
		writeError(w, http.StatusBadRequest, "signal_type is required")
		return
	}
	if input.Confidence < 0 {
		writeError(w, http.StatusBadRequest, "confidence must be non-negative")
		return
	}

	signalID, workflowID, err := h.intakeSvc.Receive(r.Context(), input)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "received",
		"sentiment_id": signalID,
		"workflow_id":  workflowID,
		"message":      "Sentiment received and processing started",
	})
}

// ListWorkflows handles GET /v1/workflows?status=&limit=
func (h *WorkflowHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	status := model.WorkflowStatus(r.URL.Query().Get("status"))

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	workflows, err := h.workflowSvc.List(r.Context(), status, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, workflows)
}

// GetWorkflow handles GET /v1/workflows/{workflowId}
func (h *WorkflowHandler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["workflowId"]

	wf, err := h.workflowSvc.Get(r.Context(), workflowID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if wf == nil {
		writeError(w, http.StatusNotFound, "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, wf)
}

// GetWorkflowStatus handles GET /v1/workflows/{workflowId}/status
func (h *WorkflowHandler) GetWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["workflowId"]

	status, err := h.workflowSvc.LiveStatus(r.Context(), workflowID)
	if err != nil {
		if errors.Is(err, service.ErrWorkflowNotFound) {
			writeError(w, http.StatusNotFound, "workflow not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"workflow_id": workflowID,
		"status":      string(status),
	})
}

// ApproveRequest is the request body for approving a post.
type ApproveRequest struct {
	EditedPost string `json:"edited_post,omitempty"`
	ApprovedBy string `json:"approved_by"`
}

// Approve handles POST /v1/workflows/{workflowId}/approve
func (h *WorkflowHandler) Approve(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["workflowId"]

	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ApprovedBy == "" {
		req.ApprovedBy = middleware.GetOperatorID(r.Context())
	}
	if req.ApprovedBy == "" {
		writeError(w, http.StatusBadRequest, "approved_by is required")
		return
	}

	wf, result, err := h.workflowSvc.Approve(r.Context(), workflowID, req.EditedPost, req.ApprovedBy)
	if err != nil {
		writeActionError(w, err)
		return
	}

	message := "Post approved and published"
	if !result.Success {
		message = "Post approved but publishing failed"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "approved",
		"workflow_id": wf.WorkflowID,
		"posted":      result.Success,
		"message":     message,
	})
}

// EscalateRequest is the request body for escalating a workflow.
type EscalateRequest struct {
	EscalationType model.EscalationType `json:"escalation_type"`
	EscalatedBy    string               `json:"escalated_by"`
}

// Escalate handles POST /v1/workflows/{workflowId}/escalate
func (h *WorkflowHandler) Escalate(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["workflowId"]

	var req EscalateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EscalationType == "" {
		req.EscalationType = model.EscalateManagement
	}
	if req.EscalatedBy == "" {
		req.EscalatedBy = middleware.GetOperatorID(r.Context())
	}

	wf, err := h.workflowSvc.Escalate(r.Context(), workflowID, req.EscalationType, req.EscalatedBy)
	if err != nil {
		writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"workflow_id": wf.WorkflowID,
		"message":     "Workflow escalated to " + string(req.EscalationType),
	})
}

// DiscardRequest is the request body for discarding a post.
type DiscardRequest struct {
	DiscardedBy string `json:"discarded_by"`
	Reason      string `json:"reason,omitempty"`
}

// Discard handles POST /v1/workflows/{workflowId}/discard
func (h *WorkflowHandler) Discard(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["workflowId"]

	var req DiscardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DiscardedBy == "" {
		req.DiscardedBy = middleware.GetOperatorID(r.Context())
	}

	wf, err := h.workflowSvc.Discard(r.Context(), workflowID, req.DiscardedBy, req.Reason)
	if err != nil {
		writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "discarded",
		"workflow_id": wf.WorkflowID,
		"message":     "Post has been discarded",
	})
}

// Delete handles DELETE /v1/workflows/{workflowId}
func (h *WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	workflowID := mux.Vars(r)["workflowId"]

	if err := h.workflowSvc.Delete(r.Context(), workflowID); err != nil {
		writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "deleted",
		"workflow_id": workflowID,
	})
}

// writeActionError maps operator-action errors onto HTTP statuses.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrWorkflowNotFound):
		writeError(w, http.StatusNotFound, "workflow not found")
	case errors.Is(err, service.ErrInvalidWorkflowState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidEscalation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
