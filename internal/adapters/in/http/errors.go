package http

import (
	"errors"
	"net/http"

	"orderflow/internal/generated/servers"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps use case errors onto HTTP status codes. Anything
// unrecognised, RepositoryUnavailable included, is a server error.
func statusFor(err error) int {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrCourierMismatch):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrOrderClosed),
		errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrConcurrentUpdate):
		return http.StatusConflict
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(ctx echo.Context, err error) error {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "request failed",
			"method", ctx.Request().Method, "path", ctx.Path(), "error", err)
		message = http.StatusText(code)
	}
	return ctx.JSON(code, servers.Error{Code: code, Message: message})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, servers.Error{Code: http.StatusBadRequest, Message: message})
}
