package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storymatrix/internal/models"
)

// APIError тело ответа с ошибкой.
type APIError struct {
	Message string `json:"message"`
}

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	apiErr := APIError{Message: err.Error()}

	switch {
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrStickerNotFound),
		errors.Is(err, models.ErrChoiceNotFound),
		errors.Is(err, models.ErrPlaybackNotFound):
		statusCode = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrWordOutOfRange),
		errors.Is(err, models.ErrMalformedImport):
		statusCode = http.StatusBadRequest
	case errors.Is(err, models.ErrEmptyPlayback):
		statusCode = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNoActiveSession),
		errors.Is(err, models.ErrNoActiveDrag):
		statusCode = http.StatusConflict
	case errors.Is(err, models.ErrPlaybackFinished):
		statusCode = http.StatusGone
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "An unexpected internal error occurred"}
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(statusCode, apiErr)
}

func badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		msg += ": " + err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, APIError{Message: msg})
}
