package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/microlend/loan-engine/internal/domain"
	"github.com/microlend/loan-engine/internal/service"
	"github.com/microlend/loan-engine/pkg/response"
)

type LendingHandler struct {
	service   *service.LendingService
	validator *validator.Validate
}

func NewLendingHandler(service *service.LendingService) *LendingHandler {
	return &LendingHandler{
		service:   service,
		validator: validator.New(),
	}
}

type submitApplicationRequest struct {
	BorrowerID string `json:"borrower_id" validate:"required"`
	Principal  int64  `json:"principal" validate:"required,gt=0"`
	TermWeeks  int    `json:"term_weeks" validate:"required,gt=0"`
	Category   string `json:"category" validate:"required,oneof=micro standard sme"`
	Purpose    string `json:"purpose"`
}

// SubmitApplication accepts a borrower's loan request and returns the
// pending application with its upfront cost breakdown.
func (h *LendingHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	var req submitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	app, err := h.service.SubmitApplication(r.Context(), service.SubmitApplicationInput{
		BorrowerID: req.BorrowerID,
		Principal:  req.Principal,
		TermWeeks:  req.TermWeeks,
		Category:   req.Category,
		Purpose:    req.Purpose,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, app)
}

// GetApplication returns an application by ID.
func (h *LendingHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	app, err := h.service.GetApplication(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, app)
}

type paymentProofRequest struct {
	ProofRef string `json:"proof_ref" validate:"required"`
}

// RecordUpfrontPayment marks an application's upfront costs as paid.
func (h *LendingHandler) RecordUpfrontPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req paymentProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if err := h.service.RecordUpfrontPayment(r.Context(), id, req.ProofRef); err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": "upfront_paid"})
}

// ApproveApplication activates a pending application as a loan.
func (h *LendingHandler) ApproveApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	loan, err := h.service.ApproveApplication(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, loan)
}

type rejectApplicationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RejectApplication turns a pending application down.
func (h *LendingHandler) RejectApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req rejectApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	if err := h.service.RejectApplication(r.Context(), id, req.Reason); err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, map[string]string{"status": domain.ApplicationStatusRejected})
}

type loanResponse struct {
	*domain.Loan
	Outstanding     int64 `json:"outstanding"`
	NextInstallment int64 `json:"next_installment"`
}

// GetLoan returns a loan with its derived balances.
func (h *LendingHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	loan, err := h.service.GetLoan(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loanResponse{
		Loan:            loan,
		Outstanding:     loan.Outstanding(),
		NextInstallment: loan.NextInstallment(),
	})
}

type topUpRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// TopUpWallet credits a borrower's standing balance.
func (h *LendingHandler) TopUpWallet(w http.ResponseWriter, r *http.Request) {
	borrowerID := mux.Vars(r)["borrowerId"]

	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body", err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "invalid request", err)
		return
	}

	wallet, err := h.service.TopUpWallet(r.Context(), borrowerID, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, wallet)
}
