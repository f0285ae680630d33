package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/codepath-backend/internal/inference/router"
	"github.com/yungbote/codepath-backend/internal/learning/coerce"
	"github.com/yungbote/codepath-backend/internal/structured/gateway"
	"github.com/yungbote/codepath-backend/internal/structured/repair"
)

const (
	CodeInvalidRequest = "invalid_request"
	CodeUnauthorized   = "unauthorized"
	CodeUnknownModel   = "unknown_model"
	CodeBackend        = "completion_backend_error"
	CodeUnrepairable   = "unrepairable_response"
	CodeValidation     = "validation_error"
	CodeTimeout        = "timeout"
	CodeInternal       = "internal_error"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(err error) *Error {
	return New(http.StatusBadRequest, CodeInvalidRequest, err)
}

// FromGeneration classifies an error returned by a call-site service. A backend error caused
// by the request deadline maps to 504; any other backend failure is 502.
func FromGeneration(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var ve *coerce.ValidationError
	if errors.As(err, &ve) {
		return New(http.StatusUnprocessableEntity, CodeValidation, err)
	}
	var ue *repair.UnrepairableResponseError
	if errors.As(err, &ue) {
		return New(http.StatusBadGateway, CodeUnrepairable, err)
	}
	var be *gateway.CompletionBackendError
	if errors.As(err, &be) {
		if errors.Is(err, context.DeadlineExceeded) {
			return New(http.StatusGatewayTimeout, CodeTimeout, err)
		}
		return New(http.StatusBadGateway, CodeBackend, err)
	}
	if errors.Is(err, router.ErrUnknownModel) {
		return New(http.StatusBadRequest, CodeUnknownModel, err)
	}
	return New(http.StatusInternalServerError, CodeInternal, err)
}
