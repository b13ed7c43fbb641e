package httpHandler

import (
	"errors"
	"net/http"

	"siar-server/logs"
	"siar-server/usecases"

	"github.com/gin-gonic/gin"
)

// statusFor maps usecase errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecases.ErrDeviceNotFound),
		errors.Is(err, usecases.ErrProfileNotFound),
		errors.Is(err, usecases.ErrScheduleNotFound),
		errors.Is(err, usecases.ErrReadingNotFound),
		errors.Is(err, usecases.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecases.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, usecases.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, usecases.ErrInvalidTransition),
		errors.Is(err, usecases.ErrAutoModeBlocked),
		errors.Is(err, usecases.ErrProfileInUse),
		errors.Is(err, usecases.ErrUserExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func message(c *gin.Context, err error, code int) string {
	if code == http.StatusInternalServerError {
		logs.Logger.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
		return "internal error"
	}
	return err.Error()
}

// respondError writes the dashboard error shape {"error": "..."}.
func respondError(c *gin.Context, err error) {
	code := statusFor(err)
	c.JSON(code, gin.H{"error": message(c, err, code)})
}

// respondDeviceError writes the device envelope {"status":"error","message":...}.
func respondDeviceError(c *gin.Context, err error) {
	code := statusFor(err)
	c.JSON(code, gin.H{"status": "error", "message": message(c, err, code)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
