package mocks

import (
	"context"
	"io"

	"adventure-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockTranscriber is a mock type for the Transcriber type
type MockTranscriber struct {
	mock.Mock
}

// Transcribe provides a mock function with given fields: ctx, filename, audio
func (_m *MockTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	ret := _m.Called(ctx, filename, audio)
	return ret.String(0), ret.Error(1)
}

// MockIllustrator is a mock type for the Illustrator type
type MockIllustrator struct {
	mock.Mock
}

// GenerateImage provides a mock function with given fields: ctx, description, ref
func (_m *MockIllustrator) GenerateImage(ctx context.Context, description, ref string) (string, error) {
	ret := _m.Called(ctx, description, ref)
	return ret.String(0), ret.Error(1)
}

// MockVoiceNarrator is a mock type for the VoiceNarrator type
type MockVoiceNarrator struct {
	mock.Mock
}

// GenerateVoiceover provides a mock function with given fields: ctx, text, ref
func (_m *MockVoiceNarrator) GenerateVoiceover(ctx context.Context, text, ref string) (string, error) {
	ret := _m.Called(ctx, text, ref)
	return ret.String(0), ret.Error(1)
}

var (
	_ service.Transcriber   = (*MockTranscriber)(nil)
	_ service.Illustrator   = (*MockIllustrator)(nil)
	_ service.VoiceNarrator = (*MockVoiceNarrator)(nil)
)
