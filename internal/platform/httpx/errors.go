package httpx

import (
	"errors"
	"net/http"

	"github.com/vitrage-erp/vitrage-erp/internal/pricing"
	"github.com/vitrage-erp/vitrage-erp/internal/sequence"
)

// Sentinel errors shared by the domain layers.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state transition")
)

// RespondError maps domain errors to HTTP problem responses. Validation
// errors carry their field; sequence exhaustion is a distinct retryable
// condition; anything else is a generic server error with no internals.
func RespondError(w http.ResponseWriter, err error) {
	var verr *pricing.ValidationError
	switch {
	case errors.As(err, &verr):
		FieldProblem(w, verr.Field, verr.Message)
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrInvalidState):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, sequence.ErrExhausted):
		Problem(w, http.StatusServiceUnavailable, "Try Again",
			"could not allocate a document number, please retry the request")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
