package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"adventure-server/internal/service"
	"adventure-server/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StoryService - операции историй, нужные HTTP слою.
type StoryService interface {
	StartSession(ctx context.Context, params service.StoryParams) (*session.Session, error)
	GetSession(ctx context.Context, sessionID string) (*session.Session, error)
	EndSession(ctx context.Context, sessionID string) error
	Transcribe(ctx context.Context, sessionID, filename string, audio io.Reader) (*service.TranscriptionResult, error)
	Continue(ctx context.Context, sessionID, userInput string) (*service.TurnResult, error)
	GenerateStory(ctx context.Context, params service.StoryParams) (*service.OneShotResult, error)
}

var _ StoryService = (*service.StoryService)(nil)

type StoryHandler struct {
	stories        StoryService
	uploadMaxBytes int64
	logger         *zap.Logger
}

func NewStoryHandler(stories StoryService, uploadMaxBytes int64, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		stories:        stories,
		uploadMaxBytes: uploadMaxBytes,
		logger:         logger.Named("StoryHandler"),
	}
}

// RegisterRoutes регистрирует маршруты. aiLimiter (может быть nil) ставится
// на маршруты, которые обращаются к платным AI сервисам.
func (h *StoryHandler) RegisterRoutes(router *gin.Engine, aiLimiter gin.HandlerFunc) {
	limited := func(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
		if aiLimiter == nil {
			return handlers
		}
		return append([]gin.HandlerFunc{aiLimiter}, handlers...)
	}

	sessions := router.Group("/api/sessions")
	{
		sessions.POST("", limited(h.createSession)...)
		sessions.GET("/:id", h.getSession)
		sessions.DELETE("/:id", h.deleteSession)
		sessions.POST("/:id/transcribe", limited(h.transcribe)...)
		sessions.POST("/:id/continue", limited(h.continueStory)...)
	}

	router.POST("/generate-story", limited(h.generateStory)...)
}

func (h *StoryHandler) createSession(c *gin.Context) {
	var req createSessionRequest
	// Тело необязательно: без него история начинается со вступления по умолчанию
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			abortBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	sess, err := h.stories.StartSession(c.Request.Context(), service.StoryParams{
		Genre:       req.Genre,
		ChildGender: req.ChildGender,
		Theme:       req.Theme,
		Age:         req.Age,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	sessionsStartedTotal.Inc()
	c.JSON(http.StatusCreated, toSessionResponse(sess))
}

func (h *StoryHandler) getSession(c *gin.Context) {
	sess, err := h.stories.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

func (h *StoryHandler) deleteSession(c *gin.Context) {
	if err := h.stories.EndSession(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) transcribe(c *gin.Context) {
	if h.uploadMaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadMaxBytes)
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		audioUploadsTotal.With(prometheus.Labels{"status": "rejected"}).Inc()
		h.logger.Info("Audio upload rejected", zap.Error(err))
		if isBodyTooLarge(err) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Code:    ErrCodePayloadTooLarge,
				Message: fmt.Sprintf("Audio file exceeds %d bytes", h.uploadMaxBytes),
			})
			return
		}
		abortBadRequest(c, "No audio file uploaded")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		audioUploadsTotal.With(prometheus.Labels{"status": "rejected"}).Inc()
		abortBadRequest(c, "Cannot read uploaded audio")
		return
	}
	defer file.Close()

	res, err := h.stories.Transcribe(c.Request.Context(), c.Param("id"), fileHeader.Filename, file)
	if err != nil {
		audioUploadsTotal.With(prometheus.Labels{"status": "failed"}).Inc()
		handleServiceError(c, err)
		return
	}
	audioUploadsTotal.With(prometheus.Labels{"status": "transcribed"}).Inc()
	c.JSON(http.StatusOK, transcribeResponse{Transcription: res.Transcription, Cleaned: res.Cleaned})
}

// isBodyTooLarge сообщает, что тело обрезал http.MaxBytesReader. multipart
// не всегда оборачивает ошибку через %w, поэтому проверяется и текст.
func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func (h *StoryHandler) continueStory(c *gin.Context) {
	var req continueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	turn, err := h.stories.Continue(c.Request.Context(), c.Param("id"), req.UserInput)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	choices := turn.Choices
	if choices == nil {
		choices = []string{}
	}
	c.JSON(http.StatusOK, continueResponse{
		Story:      turn.Story,
		Choices:    choices,
		Concluded:  turn.Concluded,
		InputCount: turn.InputCount,
		Image:      turn.Image,
		AudioURL:   turn.AudioURL,
	})
}

func (h *StoryHandler) generateStory(c *gin.Context) {
	var req generateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: ErrCodeValidation, Message: err.Error()})
		return
	}

	res, err := h.stories.GenerateStory(c.Request.Context(), service.StoryParams{
		Genre:       req.Genre,
		ChildGender: req.ChildGender,
		Theme:       req.Theme,
		Age:         req.Age,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, generateStoryResponse{Story: res.Story, Image: res.Image, AudioURL: res.AudioURL})
}
