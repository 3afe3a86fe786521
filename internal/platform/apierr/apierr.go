package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	domainagg "github.com/fpda/academy-backend/internal/domain/aggregates"
)

const (
	CodeStoreTimeout     = "store_timeout"
	CodeStoreUnavailable = "store_unavailable"
	CodeInternal         = "internal"
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

// FromError maps err to an HTTP status, an error code and a message safe to
// return to clients. Internal failures get a generic message.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(http.StatusGatewayTimeout, CodeStoreTimeout, errors.New("the data store did not answer in time"))
	}

	var de *domainagg.Error
	msg := ""
	if errors.As(err, &de) {
		msg = strings.TrimSpace(de.Message)
	}
	if msg == "" {
		msg = err.Error()
	}

	switch domainagg.CodeOf(err) {
	case domainagg.CodeUnauthorized:
		return New(http.StatusUnauthorized, "unauthorized", errors.New(msg))
	case domainagg.CodeNotFound:
		return New(http.StatusNotFound, "not_found", errors.New(msg))
	case domainagg.CodeValidation:
		return New(http.StatusBadRequest, "validation", errors.New(msg))
	case domainagg.CodePreconditionFailed:
		return New(http.StatusConflict, "precondition_failed", errors.New(msg))
	case domainagg.CodeConflict:
		return New(http.StatusConflict, "conflict", errors.New(msg))
	case domainagg.CodeRetryable:
		return New(http.StatusServiceUnavailable, CodeStoreUnavailable, errors.New("the data store is temporarily unavailable"))
	default:
		return New(http.StatusInternalServerError, CodeInternal, errors.New("internal error"))
	}
}
