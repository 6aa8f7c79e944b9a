package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/microlend/loan-engine/internal/service"
	"github.com/microlend/loan-engine/pkg/response"
)

// CollectionsHandler serves the operator-facing surfaces: the defaulter
// view with its collection actions, and the offset/refund decision queue.
type CollectionsHandler struct {
	defaulters *service.DefaulterService
	offsets    *service.OffsetService
	validator  *validator.Validate
}

func NewCollectionsHandler(defaulters *service.DefaulterService, offsets *service.OffsetService) *CollectionsHandler {
	return &CollectionsHandler{
		defaulters: defaulters,
		offsets:    offsets,
		validator:  validator.New(),
	}
}

// ListDefaulters returns overdue loans, optionally filtered with
// ?severity=mild|moderate|severe.
func (h *CollectionsHandler) ListDefaulters(w http.ResponseWriter, r *http.Request) {
	views, err := h.defaulters.ListOverdue(r.Context(), r.URL.Query().Get("severity"))
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, views)
}

type contactRequest struct {
	Note string `json:"note" validate:"required"`
}

// RecordContact appends a collection contact note against a loan.
func (h *CollectionsHandler) RecordContact(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		respondError(w, err)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	contact, err := h.defaulters.RecordContact(r.Context(), loanID, req.Note)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, contact)
}

// ListContacts returns a loan's contact history.
func (h *CollectionsHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		respondError(w, err)
		return
	}

	contacts, err := h.defaulters.ListContacts(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, contacts)
}

type confirmRequest struct {
	Confirm bool `json:"confirm"`
}

// MarkAsPaid settles a loan's overdue amount out of band.
func (h *CollectionsHandler) MarkAsPaid(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		respondError(w, err)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	loan, err := h.defaulters.MarkAsPaid(r.Context(), loanID, req.Confirm)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loan)
}

// Suspend terminally blocks a loan from further scheduling.
func (h *CollectionsHandler) Suspend(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		respondError(w, err)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}

	loan, err := h.defaulters.Suspend(r.Context(), loanID, req.Confirm)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loan)
}

// MarkDefaulted escalates an overdue active loan to defaulted status.
func (h *CollectionsHandler) MarkDefaulted(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "loanId")
	if err != nil {
		respondError(w, err)
		return
	}

	loan, err := h.defaulters.MarkDefaulted(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loan)
}

type offsetRequest struct {
	Source string `json:"source" validate:"required,oneof=deposit standing_balance external"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

// RequestOffset creates a pending offset request against a loan.
func (h *CollectionsHandler) RequestOffset(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req offsetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	request, err := h.offsets.RequestOffset(r.Context(), loanID, req.Source, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, request)
}

// RequestDepositRefund creates a pending deposit refund request for a
// completed loan.
func (h *CollectionsHandler) RequestDepositRefund(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	request, err := h.offsets.RequestDepositRefund(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, request)
}

// ListPendingOffsets returns the operator's decision queue.
func (h *CollectionsHandler) ListPendingOffsets(w http.ResponseWriter, r *http.Request) {
	requests, err := h.offsets.ListPending(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, requests)
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Note     string `json:"note"`
}

// DecideOffset approves or rejects a pending offset or refund request.
func (h *CollectionsHandler) DecideOffset(w http.ResponseWriter, r *http.Request) {
	requestID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	decided, err := h.offsets.Decide(r.Context(), requestID, req.Decision == "approve", req.Note)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, decided)
}
