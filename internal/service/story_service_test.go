package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"adventure-server/internal/mocks"
	"adventure-server/internal/service"
	"adventure-server/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type storyFixture struct {
	store       *session.MemoryStore
	narrator    *mocks.MockNarrativeGenerator
	transcriber *mocks.MockTranscriber
	svc         *service.StoryService
}

func newStoryFixture(t *testing.T) *storyFixture {
	t.Helper()
	f := &storyFixture{
		store:       session.NewMemoryStore(time.Hour, zap.NewNop()),
		narrator:    mocks.NewMockNarrativeGenerator(t),
		transcriber: new(mocks.MockTranscriber),
	}
	f.svc = service.NewStoryService(f.store, f.narrator, f.transcriber, nil, nil, 2, zap.NewNop())
	return f
}

func segment(text string, choices ...string) service.GeneratedSegment {
	return service.GeneratedSegment{Text: text, Choices: choices}
}

func TestStartSession_DefaultOpening(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	sess, err := f.svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID())
	assert.Equal(t, session.StateAwaitingInput, sess.State())
	assert.Equal(t, service.OpeningPassage(), sess.TranscriptText())
	assert.Equal(t, service.OpeningChoices(), sess.Choices())

	stored, err := f.svc.GetSession(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, sess.ID(), stored.ID())
}

func TestStartSession_Personalized(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()
	params := service.StoryParams{Genre: "fantasy", ChildGender: "boy", Theme: "dragons", Age: "8"}

	f.narrator.On("Opening", ctx, params).Return("A dragon sneezed.", nil).Once()
	f.narrator.On("Choices", ctx, "A dragon sneezed.").Return([]string{"1. Hide", "2. Laugh"}, nil).Once()

	sess, err := f.svc.StartSession(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, "A dragon sneezed.", sess.TranscriptText())
	assert.Equal(t, []string{"1. Hide", "2. Laugh"}, sess.Choices())
}

func TestStartSession_PartialParams(t *testing.T) {
	f := newStoryFixture(t)

	_, err := f.svc.StartSession(context.Background(), service.StoryParams{Theme: "dragons"})
	assert.True(t, errors.Is(err, service.ErrInvalidStoryParams))
}

func TestContinue_FullStoryUntilConclusion(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)

	f.narrator.On("Continue", ctx, promptContains(`The user input is: "take the hoverboard".`), false).
		Return(segment("Luna zoomed across the dunes.", "1. Go left", "2. Go right"), nil).Once()
	turn1, err := f.svc.Continue(ctx, sess.ID(), "  take the hoverboard ")
	require.NoError(t, err)
	assert.Equal(t, "Luna zoomed across the dunes.\n\n", turn1.Story)
	assert.Equal(t, []string{"1. Go left", "2. Go right"}, turn1.Choices)
	assert.Equal(t, 1, turn1.InputCount)
	assert.False(t, turn1.Concluded)

	// Повтор прошлой реплики вырезается, в генерацию уходит только новое
	f.narrator.On("Continue", ctx, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Luna zoomed across the dunes.") &&
			strings.HasSuffix(p, `The user input is: "and go left".`)
	}), false).
		Return(segment("Luna found a cave.", "1. Enter"), nil).Once()
	turn2, err := f.svc.Continue(ctx, sess.ID(), "Take the hoverboard and go left")
	require.NoError(t, err)
	assert.Equal(t, 2, turn2.InputCount)
	assert.False(t, turn2.Concluded)

	// Порог достигнут: ход финальный, варианты отбрасываются
	f.narrator.On("Continue", ctx, mock.Anything, true).
		Return(segment("Luna saved Planet X.", "1. ignored"), nil).Once()
	turn3, err := f.svc.Continue(ctx, sess.ID(), "enter")
	require.NoError(t, err)
	assert.True(t, turn3.Concluded)
	assert.Empty(t, turn3.Choices)
	assert.Equal(t, 3, turn3.InputCount)

	_, err = f.svc.Continue(ctx, sess.ID(), "one more")
	assert.True(t, errors.Is(err, session.ErrInvalidTransition))

	stored, err := f.svc.GetSession(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, session.StateConcluded, stored.State())
	assert.Equal(t, []string{"take the hoverboard", "and go left", "enter"}, stored.History())
	assert.Len(t, stored.Transcript(), 7)
}

func TestContinue_EmptyAfterCleaningLeavesSessionUntouched(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)

	f.narrator.On("Continue", ctx, mock.Anything, false).
		Return(segment("Luna zoomed.", "1. Go"), nil).Once()
	_, err = f.svc.Continue(ctx, sess.ID(), "take the hoverboard")
	require.NoError(t, err)

	_, err = f.svc.Continue(ctx, sess.ID(), "  Take the HOVERBOARD ")
	assert.True(t, errors.Is(err, session.ErrEmptyInput))

	stored, err := f.svc.GetSession(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.InputCount())
	assert.Equal(t, []string{"take the hoverboard"}, stored.History())
	assert.Equal(t, session.StateAwaitingInput, stored.State())
}

func TestContinue_GenerationFailureIsAllOrNothing(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)

	f.narrator.On("Continue", ctx, mock.Anything, false).
		Return(service.GeneratedSegment{}, service.ErrAIGenerationFailed).Once()
	_, err = f.svc.Continue(ctx, sess.ID(), "use the drone")
	assert.True(t, errors.Is(err, service.ErrAIGenerationFailed))

	stored, err := f.svc.GetSession(ctx, sess.ID())
	require.NoError(t, err)
	assert.Empty(t, stored.History())
	assert.Equal(t, 0, stored.InputCount())
	assert.Equal(t, session.StateAwaitingInput, stored.State())

	// Повтор того же ввода после сбоя не считается дубликатом
	f.narrator.On("Continue", ctx, promptContains(`"use the drone"`), false).
		Return(segment("The drone buzzed.", "1. Follow"), nil).Once()
	turn, err := f.svc.Continue(ctx, sess.ID(), "use the drone")
	require.NoError(t, err)
	assert.Equal(t, 1, turn.InputCount)
}

func TestContinue_EmptySegmentIsGenerationFailure(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)

	f.narrator.On("Continue", ctx, mock.Anything, false).Return(segment("   ", "1. Go"), nil).Once()
	_, err = f.svc.Continue(ctx, sess.ID(), "dig")
	assert.True(t, errors.Is(err, service.ErrAIGenerationFailed))

	stored, err := f.svc.GetSession(ctx, sess.ID())
	require.NoError(t, err)
	assert.Empty(t, stored.History())
}

func TestContinue_UnknownSession(t *testing.T) {
	f := newStoryFixture(t)

	_, err := f.svc.Continue(context.Background(), "missing", "hello")
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))
}

func TestContinue_MediaFailureDoesNotFailTurn(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore(time.Hour, zap.NewNop())
	narrator := mocks.NewMockNarrativeGenerator(t)
	illustrator := new(mocks.MockIllustrator)
	voice := new(mocks.MockVoiceNarrator)
	svc := service.NewStoryService(store, narrator, new(mocks.MockTranscriber), illustrator, voice, 2, zap.NewNop())

	sess, err := svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)

	narrator.On("Continue", ctx, mock.Anything, false).Return(segment("Luna dug.", "1. Dig more"), nil).Once()
	illustrator.On("GenerateImage", ctx, "Luna dug.", sess.ID()+"_1").Return("/generated/story_image_x.png", nil).Once()
	voice.On("GenerateVoiceover", ctx, "Luna dug.", sess.ID()+"_1").Return("", service.ErrMediaGenerationFailed).Once()

	turn, err := svc.Continue(ctx, sess.ID(), "dig")
	require.NoError(t, err)
	assert.Equal(t, "/generated/story_image_x.png", turn.Image)
	assert.Empty(t, turn.AudioURL)
	illustrator.AssertExpectations(t)
	voice.AssertExpectations(t)
}

func TestTranscribe_CleansAgainstHistory(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)

	f.narrator.On("Continue", ctx, mock.Anything, false).Return(segment("Luna zoomed.", "1. Go"), nil).Once()
	_, err = f.svc.Continue(ctx, sess.ID(), "take the hoverboard")
	require.NoError(t, err)

	audio := strings.NewReader("fake-webm")
	f.transcriber.On("Transcribe", ctx, "audio.webm", audio).Return("Take the hoverboard. Then fly up", nil).Once()

	res, err := f.svc.Transcribe(ctx, sess.ID(), "audio.webm", audio)
	require.NoError(t, err)
	assert.Equal(t, "Take the hoverboard. Then fly up", res.Transcription)
	assert.Equal(t, ". Then fly up", res.Cleaned)
	f.transcriber.AssertExpectations(t)

	stored, err := f.svc.GetSession(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.InputCount())
}

func TestTranscribe_Errors(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()

	_, err := f.svc.Transcribe(ctx, "missing", "a.webm", strings.NewReader(""))
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))

	sess, err := f.svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)
	f.transcriber.On("Transcribe", ctx, "a.webm", mock.Anything).Return("", service.ErrTranscriptionFailed).Once()
	_, err = f.svc.Transcribe(ctx, sess.ID(), "a.webm", strings.NewReader("x"))
	assert.True(t, errors.Is(err, service.ErrTranscriptionFailed))
}

func TestEndSession(t *testing.T) {
	f := newStoryFixture(t)
	ctx := context.Background()
	sess, err := f.svc.StartSession(ctx, service.StoryParams{})
	require.NoError(t, err)

	require.NoError(t, f.svc.EndSession(ctx, sess.ID()))
	_, err = f.svc.GetSession(ctx, sess.ID())
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))
	assert.True(t, errors.Is(f.svc.EndSession(ctx, sess.ID()), session.ErrSessionNotFound))
}

func TestGenerateStory(t *testing.T) {
	ctx := context.Background()
	narrator := mocks.NewMockNarrativeGenerator(t)
	illustrator := new(mocks.MockIllustrator)
	voice := new(mocks.MockVoiceNarrator)
	svc := service.NewStoryService(session.NewMemoryStore(0, zap.NewNop()), narrator, new(mocks.MockTranscriber), illustrator, voice, 2, zap.NewNop())
	params := service.StoryParams{Genre: "sci-fi", ChildGender: "girl", Theme: "robots", Age: "9"}

	narrator.On("Opening", ctx, params).Return("The robot woke up.", nil).Once()
	illustrator.On("GenerateImage", ctx, "The robot woke up.", mock.AnythingOfType("string")).Return("/generated/img.png", nil).Once()
	voice.On("GenerateVoiceover", ctx, "The robot woke up.", mock.AnythingOfType("string")).Return("/generated/voice.mp3", nil).Once()

	res, err := svc.GenerateStory(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, &service.OneShotResult{Story: "The robot woke up.", Image: "/generated/img.png", AudioURL: "/generated/voice.mp3"}, res)

	_, err = svc.GenerateStory(ctx, service.StoryParams{})
	assert.True(t, errors.Is(err, service.ErrInvalidStoryParams))
}

func TestGenerateStory_MediaFailure(t *testing.T) {
	ctx := context.Background()
	narrator := mocks.NewMockNarrativeGenerator(t)
	illustrator := new(mocks.MockIllustrator)
	svc := service.NewStoryService(session.NewMemoryStore(0, zap.NewNop()), narrator, new(mocks.MockTranscriber), illustrator, nil, 2, zap.NewNop())
	params := service.StoryParams{Genre: "sci-fi", ChildGender: "girl", Theme: "robots", Age: "9"}

	narrator.On("Opening", ctx, params).Return("The robot woke up.", nil).Once()
	illustrator.On("GenerateImage", ctx, mock.Anything, mock.Anything).Return("", service.ErrMediaGenerationFailed).Once()

	_, err := svc.GenerateStory(ctx, params)
	assert.True(t, errors.Is(err, service.ErrMediaGenerationFailed))
}
