package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/dayplanner/internal/common"
)

// writeError maps service errors to HTTP statuses. Unrecognized errors are
// logged and reported as a bare 500 so internals never leak to the browser.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrMissingField),
		errors.Is(err, common.ErrEmptyTitle),
		errors.Is(err, common.ErrEmptyPassword):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrCodeMismatch),
		errors.Is(err, common.ErrSessionExpired),
		errors.Is(err, common.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrUsernameTaken),
		errors.Is(err, common.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, common.ErrCodeExpired):
		status = http.StatusGone
	case errors.Is(err, common.ErrAlreadyPassed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrTransportFailure):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "error", err.Error())
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
