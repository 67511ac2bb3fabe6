// Package session хранит состояние одной интерактивной истории: накопленный
// транскрипт, историю принятых реплик и счетчик ходов.
package session

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// State - состояние конечного автомата сессии.
type State string

const (
	StateAwaitingInput      State = "awaiting_input"
	StateAwaitingGeneration State = "awaiting_generation"
	StateConcluded          State = "concluded"
)

// Role - автор фрагмента транскрипта.
type Role string

const (
	RoleNarrator Role = "narrator"
	RoleUser     Role = "user"
)

// Segment - один фрагмент транскрипта.
type Segment struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session - состояние одной истории.
// Не потокобезопасна: ходы одной сессии выполняются строго последовательно.
type Session struct {
	id           string
	state        State
	transcript   []Segment
	history      []string
	inputCount   int
	pendingInput string
	choices      []string
	createdAt    time.Time
	updatedAt    time.Time
}

// New создает сессию в состоянии StateAwaitingInput с транскриптом,
// засеянным вступительным фрагментом.
func New(id, opening string, openingChoices []string) *Session {
	now := time.Now().UTC()
	s := &Session{
		id:        id,
		state:     StateAwaitingInput,
		choices:   slices.Clone(openingChoices),
		createdAt: now,
		updatedAt: now,
	}
	if opening = strings.TrimSpace(opening); opening != "" {
		s.transcript = append(s.transcript, Segment{Role: RoleNarrator, Text: opening})
	}
	return s
}

// AcceptInput принимает очищенную реплику пользователя.
// Реплика добавляется в историю, транскрипт не меняется до ответа генерации.
func (s *Session) AcceptInput(cleaned string) error {
	if s.state != StateAwaitingInput {
		return fmt.Errorf("%w: accept input in state %s", ErrInvalidTransition, s.state)
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ErrEmptyInput
	}

	s.history = append(s.history, cleaned)
	s.pendingInput = cleaned
	s.state = StateAwaitingGeneration
	s.touch()
	return nil
}

// AcceptGeneratedSegment фиксирует результат хода: реплику пользователя и
// сгенерированный фрагмент в транскрипте, счетчик ходов и варианты выбора.
// Пустой набор вариантов завершает историю.
func (s *Session) AcceptGeneratedSegment(segmentText string, choices []string) error {
	if s.state != StateAwaitingGeneration {
		return fmt.Errorf("%w: accept segment in state %s", ErrInvalidTransition, s.state)
	}
	segmentText = strings.TrimSpace(segmentText)
	if segmentText == "" {
		return ErrEmptySegment
	}

	s.transcript = append(s.transcript,
		Segment{Role: RoleUser, Text: s.pendingInput},
		Segment{Role: RoleNarrator, Text: segmentText},
	)
	s.pendingInput = ""
	s.inputCount++
	s.choices = slices.Clone(choices)
	if len(s.choices) == 0 {
		s.state = StateConcluded
	} else {
		s.state = StateAwaitingInput
	}
	s.touch()
	return nil
}

// BuildPromptContext возвращает транскрипт вместе с последней принятой репликой.
func (s *Session) BuildPromptContext() string {
	transcript := s.TranscriptText()
	input := s.pendingInput
	if input == "" && len(s.history) > 0 {
		input = s.history[len(s.history)-1]
	}
	if input == "" {
		return transcript
	}
	return fmt.Sprintf("%s\n\nThe user input is: \"%s\".", transcript, input)
}

// IsFinalTurn сообщает, что счетчик ходов достиг порога и генерацию нужно
// попросить о драматической развязке. threshold <= 0 отключает лимит.
func (s *Session) IsFinalTurn(threshold int) bool {
	return threshold > 0 && s.inputCount >= threshold
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return s.state }

// Concluded сообщает, что история завершена и ввод больше не принимается.
func (s *Session) Concluded() bool { return s.state == StateConcluded }

func (s *Session) InputCount() int { return s.inputCount }

// PendingInput - реплика текущего хода, еще не закрепленная генерацией.
func (s *Session) PendingInput() string { return s.pendingInput }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

// History возвращает копию истории принятых реплик.
func (s *Session) History() []string { return slices.Clone(s.history) }

// Transcript возвращает копию фрагментов транскрипта.
func (s *Session) Transcript() []Segment { return slices.Clone(s.transcript) }

// Choices возвращает текущие варианты выбора.
func (s *Session) Choices() []string { return slices.Clone(s.choices) }

// TranscriptText склеивает фрагменты транскрипта через пробел.
func (s *Session) TranscriptText() string {
	parts := make([]string, 0, len(s.transcript))
	for _, seg := range s.transcript {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, " ")
}

func (s *Session) touch() {
	s.updatedAt = time.Now().UTC()
}
