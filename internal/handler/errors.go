package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/yourusername/assessment-api/internal/pkg/errors"
	"github.com/yourusername/assessment-api/internal/service"
)

// handleAssignmentError переводит ошибки сервиса в HTTP-ответы
func handleAssignmentError(c *gin.Context, logger *zap.Logger, err error) {
	var transitionErr *service.TransitionError

	switch {
	case errors.As(err, &transitionErr):
		errorType := "invalid_transition"
		if transitionErr.AlreadySubmitted() {
			errorType = "already_submitted"
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":           err.Error(),
			"error_type":      errorType,
			"current_status":  transitionErr.Current,
			"required_status": transitionErr.Required,
		})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		// Кандидат аутентифицирован, но назначение чужое
		c.JSON(http.StatusForbidden, gin.H{"error": "Assignment does not belong to the current candidate", "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "error_type": "forbidden"})
	case errors.Is(err, apperrors.ErrInvalidTransition), errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrTypeMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "type_mismatch"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation"})
	case errors.Is(err, apperrors.ErrInvalidAssessment):
		logger.Error("Некорректное определение теста", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Assessment definition is invalid; contact the assessment author",
			"error_type": "invalid_assessment",
		})
	default:
		logger.Error("Internal server error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
