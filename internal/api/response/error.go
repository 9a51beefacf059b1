package response

import (
	"ctchen222/Todo-Tracker/internal/api/errs"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// StatusFor maps an error from the services onto an HTTP status and body.
// Unknown errors become a generic 500 so storage details never reach the client.
func StatusFor(err error) (int, ErrorBody) {
	if v, ok := errs.AsValidation(err); ok {
		return http.StatusUnprocessableEntity, ErrorBody{Message: v.Message(), Errors: v.Fields}
	}
	switch {
	case errors.Is(err, errs.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Message: "The provided credentials are incorrect."}
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorBody{Message: "Unauthenticated."}
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Message: "Forbidden"}
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Message: "Not Found"}
	default:
		return http.StatusInternalServerError, ErrorBody{Message: "Server Error"}
	}
}

// Error writes err as a JSON error response and aborts the handler chain.
func Error(c *gin.Context, err error) {
	status, body := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "source", "api", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}
