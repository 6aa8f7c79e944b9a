package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/microlend/loan-engine/pkg/response"

	customError "github.com/microlend/loan-engine/pkg/errors"
)

// respondError translates a service error into an HTTP status. Business
// errors map by code; anything else is a 500.
func respondError(w http.ResponseWriter, err error) {
	var be *customError.BusinessError
	if !errors.As(err, &be) {
		response.InternalServerError(w, "internal error", err)
		return
	}

	switch be.Code {
	case customError.ErrCodeValidation:
		response.BadRequest(w, be.Message, nil)
	case customError.ErrCodeNotFound:
		response.NotFound(w, be.Message)
	case customError.ErrCodeInvalidStateTransition:
		response.Error(w, http.StatusConflict, be.Message, nil)
	case customError.ErrCodePolicyViolation, customError.ErrCodeInsufficientFunds:
		response.Error(w, http.StatusUnprocessableEntity, be.Message, nil)
	default:
		response.InternalServerError(w, be.Message, nil)
	}
}

// pathID parses the named route variable as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, customError.WrapValidationf("invalid %s: %v", name, err)
	}
	return id, nil
}
