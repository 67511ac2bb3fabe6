package handler

import (
	"time"

	"adventure-server/internal/session"
)

// Коды ошибок API
const (
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeEmptyInput        = "EMPTY_INPUT"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeSessionNotFound   = "SESSION_NOT_FOUND"
	ErrCodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	ErrCodeUpstreamFailed    = "UPSTREAM_FAILED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type createSessionRequest struct {
	Genre       string `json:"genre"`
	ChildGender string `json:"childGender"`
	Theme       string `json:"theme"`
	Age         string `json:"age"`
}

type continueRequest struct {
	UserInput string `json:"userInput"`
}

type generateStoryRequest struct {
	Genre       string `json:"genre" binding:"required"`
	ChildGender string `json:"childGender" binding:"required"`
	Theme       string `json:"theme" binding:"required"`
	Age         string `json:"age" binding:"required"`
}

type sessionResponse struct {
	ID         string            `json:"id"`
	State      session.State     `json:"state"`
	Transcript []session.Segment `json:"transcript"`
	Choices    []string          `json:"choices"`
	InputCount int               `json:"inputCount"`
	Concluded  bool              `json:"concluded"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
	Cleaned       string `json:"cleaned"`
}

type continueResponse struct {
	Story      string   `json:"story"`
	Choices    []string `json:"choices"`
	Concluded  bool     `json:"concluded"`
	InputCount int      `json:"inputCount"`
	Image      string   `json:"image,omitempty"`
	AudioURL   string   `json:"audioUrl,omitempty"`
}

type generateStoryResponse struct {
	Story    string `json:"story"`
	Image    string `json:"image,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

func toSessionResponse(s *session.Session) sessionResponse {
	choices := s.Choices()
	if choices == nil {
		choices = []string{}
	}
	return sessionResponse{
		ID:         s.ID(),
		State:      s.State(),
		Transcript: s.Transcript(),
		Choices:    choices,
		InputCount: s.InputCount(),
		Concluded:  s.Concluded(),
		CreatedAt:  s.CreatedAt(),
		UpdatedAt:  s.UpdatedAt(),
	}
}
