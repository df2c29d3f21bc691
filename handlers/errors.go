package handlers

import (
	"errors"
	"net/http"

	appointmentRepo "schedcore/database/repository/appointment"
	bookingRepo "schedcore/database/repository/booking"
	"schedcore/services/booking"
	"schedcore/services/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondDomainError maps domain errors onto HTTP statuses. Anything not in
// the taxonomy is a 500 and gets logged at error level.
func respondDomainError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validationErr *booking.ValidationError
		permissionErr *booking.PermissionError
		transitionErr *booking.TransitionError
		conflictErr   *bookingRepo.ConflictError
		timezoneErr   *scheduler.InvalidTimezoneError
		pastErr       *scheduler.PastTimeError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &timezoneErr),
		errors.As(err, &pastErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, appointmentRepo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":         conflictErr.Error(),
			"conflictingId": conflictErr.ConflictingID,
			"resourceId":    conflictErr.ResourceID,
		})
	case errors.As(err, &transitionErr),
		errors.Is(err, appointmentRepo.ErrInvalidTransition),
		errors.Is(err, bookingRepo.ErrNotReleasable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
