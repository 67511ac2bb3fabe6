package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"adventure-server/internal/dedup"
	"adventure-server/internal/session"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// TranscriptionResult - расшифровка записи до и после очистки от повторов.
type TranscriptionResult struct {
	Transcription string
	Cleaned       string
}

// TurnResult - итог одного хода истории.
type TurnResult struct {
	Story      string
	Choices    []string
	Concluded  bool
	InputCount int
	Image      string
	AudioURL   string
}

// OneShotResult - результат одиночной генерации без сессии.
type OneShotResult struct {
	Story    string
	Image    string
	AudioURL string
}

// StoryService проводит ходы истории: очистка ввода, автомат сессии,
// генерация и необязательные медиа. Сессия сохраняется только после
// полностью успешного хода.
type StoryService struct {
	store       session.Store
	narrator    NarrativeGenerator
	transcriber Transcriber
	illustrator Illustrator   // nil, если иллюстрации выключены
	voice       VoiceNarrator // nil, если озвучка выключена
	turnLimit   int
	logger      *zap.Logger
}

// NewStoryService создает сервис. illustrator и voice могут быть nil.
func NewStoryService(
	store session.Store,
	narrator NarrativeGenerator,
	transcriber Transcriber,
	illustrator Illustrator,
	voice VoiceNarrator,
	turnLimit int,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		store:       store,
		narrator:    narrator,
		transcriber: transcriber,
		illustrator: illustrator,
		voice:       voice,
		turnLimit:   turnLimit,
		logger:      logger.Named("StoryService"),
	}
}

// StartSession создает новую сессию. Без параметров используется вступление
// по умолчанию, иначе вступление и варианты генерируются.
func (s *StoryService) StartSession(ctx context.Context, params StoryParams) (*session.Session, error) {
	opening, choices := OpeningPassage(), OpeningChoices()
	if !params.IsZero() {
		if err := params.Validate(); err != nil {
			return nil, err
		}
		var err error
		opening, err = s.narrator.Opening(ctx, params)
		if err != nil {
			return nil, err
		}
		choices, err = s.narrator.Choices(ctx, opening)
		if err != nil {
			return nil, err
		}
	}

	sess := session.New(uuid.NewString(), opening, choices)
	if err := s.store.Save(ctx, sess); err != nil {
		s.logger.Error("Failed to save new session", zap.String("session_id", sess.ID()), zap.Error(err))
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("Session started", zap.String("session_id", sess.ID()), zap.Bool("personalized", !params.IsZero()))
	return sess, nil
}

// GetSession возвращает копию сессии из хранилища.
func (s *StoryService) GetSession(ctx context.Context, sessionID string) (*session.Session, error) {
	return s.store.Get(ctx, sessionID)
}

// EndSession удаляет сессию.
func (s *StoryService) EndSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("Session ended", zap.String("session_id", sessionID))
	return nil
}

// Transcribe расшифровывает запись и очищает ее от уже принятых реплик.
// Сессия не меняется.
func (s *StoryService) Transcribe(ctx context.Context, sessionID, filename string, audio io.Reader) (*TranscriptionResult, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Concluded() {
		return nil, fmt.Errorf("%w: story already concluded", session.ErrInvalidTransition)
	}

	raw, err := s.transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		return nil, err
	}
	return &TranscriptionResult{
		Transcription: raw,
		Cleaned:       s.clean(raw, sess),
	}, nil
}

// Continue выполняет один ход: очищает ввод, принимает его в сессию,
// генерирует продолжение и сохраняет сессию. При любой ошибке сохраненная
// сессия остается прежней.
func (s *StoryService) Continue(ctx context.Context, sessionID, userInput string) (*TurnResult, error) {
	log := s.logger.With(zap.String("session_id", sessionID))

	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cleaned := s.clean(userInput, sess)
	if err := sess.AcceptInput(cleaned); err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyInput):
			storyTurnsTotal.With(prometheus.Labels{"outcome": "empty_input"}).Inc()
		case errors.Is(err, session.ErrInvalidTransition):
			storyTurnsTotal.With(prometheus.Labels{"outcome": "invalid_transition"}).Inc()
		}
		log.Info("Input rejected", zap.Error(err))
		return nil, err
	}

	final := sess.IsFinalTurn(s.turnLimit)
	segment, err := s.narrator.Continue(ctx, sess.BuildPromptContext(), final)
	if err != nil {
		storyTurnsTotal.With(prometheus.Labels{"outcome": "generation_failed"}).Inc()
		log.Error("Story generation failed", zap.Bool("final", final), zap.Error(err))
		return nil, err
	}
	if final {
		segment.Choices = nil
	}

	if err := sess.AcceptGeneratedSegment(segment.Text, segment.Choices); err != nil {
		storyTurnsTotal.With(prometheus.Labels{"outcome": "generation_failed"}).Inc()
		log.Error("Generated segment rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	result := &TurnResult{
		Story:      formatStory(segment.Text),
		Choices:    sess.Choices(),
		Concluded:  sess.Concluded(),
		InputCount: sess.InputCount(),
	}
	s.attachMedia(ctx, log, fmt.Sprintf("%s_%d", sess.ID(), sess.InputCount()), segment.Text, result)

	if err := s.store.Save(ctx, sess); err != nil {
		log.Error("Failed to save session", zap.Error(err))
		return nil, fmt.Errorf("save session: %w", err)
	}

	outcome := "continued"
	if result.Concluded {
		outcome = "concluded"
	}
	storyTurnsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
	log.Info("Turn completed", zap.Int("input_count", result.InputCount), zap.Bool("concluded", result.Concluded))
	return result, nil
}

// GenerateStory генерирует одиночный фрагмент с иллюстрацией и озвучкой без сессии.
// Ошибка медиа здесь является ошибкой запроса.
func (s *StoryService) GenerateStory(ctx context.Context, params StoryParams) (*OneShotResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	story, err := s.narrator.Opening(ctx, params)
	if err != nil {
		return nil, err
	}

	result := &OneShotResult{Story: story}
	ref := uuid.NewString()
	if s.illustrator != nil {
		if result.Image, err = s.illustrator.GenerateImage(ctx, story, ref); err != nil {
			return nil, err
		}
	}
	if s.voice != nil {
		if result.AudioURL, err = s.voice.GenerateVoiceover(ctx, story, ref); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *StoryService) clean(raw string, sess *session.Session) string {
	cleaned := dedup.Clean(raw, sess.History())
	if cleaned != strings.TrimSpace(raw) {
		dedupRemovalsTotal.Inc()
	}
	return cleaned
}

// attachMedia добавляет к ходу иллюстрацию и озвучку. Ошибки медиа не
// прерывают ход: фрагмент возвращается без них.
func (s *StoryService) attachMedia(ctx context.Context, log *zap.Logger, ref, text string, result *TurnResult) {
	if s.illustrator != nil {
		image, err := s.illustrator.GenerateImage(ctx, text, ref)
		if err != nil {
			log.Warn("Image generation failed, continuing without image", zap.Error(err))
		} else {
			result.Image = image
		}
	}
	if s.voice != nil {
		audio, err := s.voice.GenerateVoiceover(ctx, text, ref)
		if err != nil {
			log.Warn("Voiceover generation failed, continuing without audio", zap.Error(err))
		} else {
			result.AudioURL = audio
		}
	}
}
