package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirage-project/mirage/pkg/humanloop"
	"github.com/mirage-project/mirage/pkg/models"
)

// renderError maps domain errors to HTTP status codes.
func (s *Server) renderError(c *gin.Context, err error) {
	var verr *models.ValidationError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, humanloop.ErrInvalidDecision),
		errors.Is(err, humanloop.ErrMissingModifiedText):
		status = http.StatusBadRequest
	case errors.Is(err, humanloop.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, humanloop.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
