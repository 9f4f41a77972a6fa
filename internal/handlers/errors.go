package handlers

import (
	"audit-service/internal/models"
	"audit-service/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	msgInternal     = "Internal Server Error"
	msgContactAdmin = "Contact Admin"
	msgUnauthorized = "Not authorized, session invalid or expired"
)

// errorWriter maps domain errors onto HTTP responses. Detail of unexpected
// errors is only sent when exposeDetails is set (non-production).
type errorWriter struct {
	exposeDetails bool
	logger        *zap.Logger
}

func (w errorWriter) write(c *gin.Context, err error, notFoundMessage string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponseWithDetail("VALIDATION_ERROR", verr.Error(), verr.Error()))
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("VALIDATION_ERROR", err.Error()))
	case errors.Is(err, models.ErrDuplicateUsername):
		c.JSON(http.StatusBadRequest, utils.CreateErrorResponse("DUPLICATE_USERNAME", "Username already taken"))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, utils.CreateErrorResponse("NOT_FOUND", notFoundMessage))
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, utils.CreateErrorResponse("INVALID_CREDENTIALS", "Invalid credentials"))
	case errors.Is(err, models.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, utils.CreateErrorResponse("UNAUTHORIZED", msgUnauthorized))
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, utils.CreateErrorResponseWithDetail("FORBIDDEN", "Forbidden", err.Error()))
	default:
		w.internal(c, err)
	}
}

func (w errorWriter) internal(c *gin.Context, err error) {
	w.logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	detail := msgContactAdmin
	if w.exposeDetails && err != nil {
		detail = err.Error()
	}
	c.JSON(http.StatusInternalServerError, utils.CreateErrorResponseWithDetail("INTERNAL_ERROR", msgInternal, detail))
}

func (w errorWriter) badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, utils.CreateErrorResponseWithDetail("INVALID_REQUEST_FORMAT", message, err.Error()))
}

func asValidation(err error) (*models.ValidationError, bool) {
	var verr *models.ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
