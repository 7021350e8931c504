package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MaestroMatt79/marching-knights-portal/pkg/core/services"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/sheetsync"
	"github.com/MaestroMatt79/marching-knights-portal/pkg/store"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var verr *store.ValidationError
	var syncErr *sheetsync.SyncError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound), errors.Is(err, sheetsync.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidTransition), errors.Is(err, sheetsync.ErrNotFailed):
		return http.StatusConflict
	case errors.Is(err, services.ErrRosterSheetUnavailable), errors.Is(err, services.ErrConnectionTestUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &syncErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondErr logs err and writes {"error": ...} with the mapped status
func (s *Server) respondErr(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		s.logger.Debug("Request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
