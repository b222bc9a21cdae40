package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/clearance/internal/core/lifecycle"
	"github.com/example/clearance/internal/ports/primary"
	"github.com/example/clearance/pkg/logger"
)

// Handler serves the clearance API endpoints.
type Handler struct {
	clearanceService      primary.ClearanceService
	reconciliationService primary.ReconciliationService
	logger                *logger.Logger
}

// NewHandler creates a new handler
func NewHandler(clearanceService primary.ClearanceService, reconciliationService primary.ReconciliationService, log *logger.Logger) *Handler {
	return &Handler{
		clearanceService:      clearanceService,
		reconciliationService: reconciliationService,
		logger:                log.Named("api"),
	}
}

// Response bodies

type requestResponse struct {
	ID              string `json:"id"`
	PersonnelID     string `json:"personnel_id"`
	Type            string `json:"type"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	ApprovedBy      string `json:"approved_by,omitempty"`
	ApprovedAt      string `json:"approved_at,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

type inspectionResponse struct {
	RequestID   string `json:"request_id"`
	Label       string `json:"label"`
	Total       int    `json:"total"`
	Cleared     int    `json:"cleared"`
	Pending     int    `json:"pending"`
	Damaged     int    `json:"damaged"`
	Lost        int    `json:"lost"`
	Unknown     int    `json:"unknown"`
	Overridden  bool   `json:"overridden"`
	MissingData bool   `json:"missing_data"`
}

type eligibilityResponse struct {
	RequestID     string `json:"request_id"`
	CanApprove    bool   `json:"can_approve"`
	ReasonCode    string `json:"reason_code,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Label         string `json:"label"`
	StoredStatus  string `json:"stored_status"`
	DerivedStatus string `json:"derived_status"`
}

type decisionResponse struct {
	ID        string `json:"id"`
	Outcome   string `json:"outcome"`
	ActorID   string `json:"actor_id"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

type outcomeResponse struct {
	RequestID string `json:"request_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Label     string `json:"label"`
	Rule      string `json:"rule"`
	Written   bool   `json:"written"`
	Conflict  bool   `json:"conflict"`
}

type passResponse struct {
	PassID     string             `json:"pass_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Examined   int                `json:"examined"`
	Updated    int                `json:"updated"`
	Unchanged  int                `json:"unchanged"`
	Conflicts  int                `json:"conflicts"`
	Failed     int                `json:"failed"`
	Violations int                `json:"violations"`
	Cancelled  bool               `json:"cancelled"`
	Changes    []*outcomeResponse `json:"changes"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type rejectBody struct {
	Reason string `json:"reason"`
}

// GetHealth reports that the server is up.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListRequests lists requests, optionally filtered by ?status= and ?personnel=.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	filters := primary.ClearanceRequestFilters{
		Status:      r.URL.Query().Get("status"),
		PersonnelID: r.URL.Query().Get("personnel"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		filters.Limit = limit
	}

	requests, err := h.clearanceService.ListRequests(r.Context(), filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]*requestResponse, len(requests))
	for i, req := range requests {
		out[i] = toRequestResponse(req)
	}
	h.writeJSON(w, http.StatusOK, out)
}

// GetRequest returns one request.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.clearanceService.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestResponse(req))
}

// GetInspection returns the request's inspection label and line tallies.
func (h *Handler) GetInspection(w http.ResponseWriter, r *http.Request) {
	in, err := h.clearanceService.ComputeInspectionLabel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, inspectionResponse{
		RequestID:   in.RequestID,
		Label:       in.Label,
		Total:       in.Total,
		Cleared:     in.Cleared,
		Pending:     in.Pending,
		Damaged:     in.Damaged,
		Lost:        in.Lost,
		Unknown:     in.Unknown,
		Overridden:  in.Overridden,
		MissingData: in.MissingData,
	})
}

// GetEligibility answers whether the request may be approved now.
func (h *Handler) GetEligibility(w http.ResponseWriter, r *http.Request) {
	e, err := h.clearanceService.CheckEligibility(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, eligibilityResponse{
		RequestID:     e.RequestID,
		CanApprove:    e.CanApprove,
		ReasonCode:    e.ReasonCode,
		Reason:        e.Reason,
		Label:         e.Label,
		StoredStatus:  e.StoredStatus,
		DerivedStatus: e.DerivedStatus,
	})
}

// ListDecisions returns the request's approve/reject history.
func (h *Handler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	decisions, err := h.clearanceService.ListDecisions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]decisionResponse, len(decisions))
	for i, d := range decisions {
		out[i] = decisionResponse{
			ID:        d.ID,
			Outcome:   d.Outcome,
			ActorID:   d.ActorID,
			Reason:    d.Reason,
			CreatedAt: d.CreatedAt,
		}
	}
	h.writeJSON(w, http.StatusOK, out)
}

// Approve approves the request as the X-Actor caller.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	req, err := h.clearanceService.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestResponse(req))
}

// Reject rejects the request. The body must carry a reason.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var body rejectBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	req, err := h.clearanceService.Reject(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toRequestResponse(req))
}

// ReconcileRequest reconciles one request immediately.
func (h *Handler) ReconcileRequest(w http.ResponseWriter, r *http.Request) {
	out, err := h.reconciliationService.ReconcileRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toOutcomeResponse(out))
}

// RunPass runs a full reconciliation pass and returns its report.
func (h *Handler) RunPass(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationService.RunPass(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	changes := make([]*outcomeResponse, len(report.Changes))
	for i, c := range report.Changes {
		changes[i] = toOutcomeResponse(c)
	}
	h.writeJSON(w, http.StatusOK, passResponse{
		PassID:     report.PassID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Examined:   report.Examined,
		Updated:    report.Updated,
		Unchanged:  report.Unchanged,
		Conflicts:  report.Conflicts,
		Failed:     report.Failed,
		Violations: report.Violations,
		Cancelled:  report.Cancelled,
		Changes:    changes,
	})
}

// Helper methods

// writeError maps service errors onto status codes. Eligibility refusals
// carry their stable reason code.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var eligibility *lifecycle.EligibilityError
	switch {
	case errors.As(err, &eligibility):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: eligibility.Reason, Reason: string(eligibility.Code)})
	case errors.Is(err, primary.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, primary.ErrInvalidArgument):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, primary.ErrConflict):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Reason: "conflict"})
	default:
		h.logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", logger.Error(err))
	}
}

func toRequestResponse(req *primary.ClearanceRequest) *requestResponse {
	return &requestResponse{
		ID:              req.ID,
		PersonnelID:     req.PersonnelID,
		Type:            req.Type,
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		ApprovedBy:      req.ApprovedBy,
		ApprovedAt:      req.ApprovedAt,
		CreatedAt:       req.CreatedAt,
		UpdatedAt:       req.UpdatedAt,
	}
}

func toOutcomeResponse(o *primary.ReconcileOutcome) *outcomeResponse {
	return &outcomeResponse{
		RequestID: o.RequestID,
		From:      o.From,
		To:        o.To,
		Label:     o.Label,
		Rule:      o.Rule,
		Written:   o.Written,
		Conflict:  o.Conflict,
	}
}
