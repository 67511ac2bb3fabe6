package handler

import (
	"errors"
	"net/http"

	"adventure-server/internal/service"
	"adventure-server/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp ErrorResponse

	switch {
	case errors.Is(err, session.ErrEmptyInput):
		statusCode = http.StatusUnprocessableEntity
		errResp = ErrorResponse{Code: ErrCodeEmptyInput, Message: "Nothing new was said, please try again"}
	case errors.Is(err, session.ErrInvalidTransition):
		statusCode = http.StatusConflict
		errResp = ErrorResponse{Code: ErrCodeInvalidTransition, Message: "The story does not accept input right now"}
	case errors.Is(err, session.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		errResp = ErrorResponse{Code: ErrCodeSessionNotFound, Message: "Session not found"}
	case errors.Is(err, service.ErrInvalidStoryParams):
		statusCode = http.StatusBadRequest
		errResp = ErrorResponse{Code: ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, service.ErrAIGenerationFailed):
		statusCode = http.StatusBadGateway
		errResp = ErrorResponse{Code: ErrCodeUpstreamFailed, Message: "Error generating story"}
	case errors.Is(err, service.ErrTranscriptionFailed):
		statusCode = http.StatusBadGateway
		errResp = ErrorResponse{Code: ErrCodeUpstreamFailed, Message: "Error transcribing audio"}
	case errors.Is(err, service.ErrMediaGenerationFailed):
		statusCode = http.StatusBadGateway
		errResp = ErrorResponse{Code: ErrCodeUpstreamFailed, Message: "Error generating illustration or voiceover"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = ErrorResponse{Code: ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

func abortBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: ErrCodeBadRequest, Message: message})
}
