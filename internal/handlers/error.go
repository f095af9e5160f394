package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qwestive/qwestive-api/internal/model"
)

// ErrorHandler maps the service error taxonomy onto HTTP statuses. The
// wrapped detail is returned to the client; internals stay in the log.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpError := &echo.HTTPError{}
	if errors.As(err, &httpError) {
		c.JSON(httpError.Code, map[string]interface{}{"error": httpError.Message})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrorInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrorUnauthenticated), errors.Is(err, model.ErrorInvalidNonce):
		status = http.StatusUnauthorized
	case errors.Is(err, model.ErrorPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrorAlreadyVoted):
		status = http.StatusConflict
	case errors.Is(err, model.ErrorUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		c.Logger().Errorf("request failed: %+v", err)
	}
	c.JSON(status, map[string]interface{}{"error": err.Error()})
}
