package session

import (
	"fmt"
	"slices"
	"time"
)

// Snapshot - сериализуемая копия сессии для хранилищ.
type Snapshot struct {
	ID           string    `json:"id"`
	State        State     `json:"state"`
	Transcript   []Segment `json:"transcript"`
	History      []string  `json:"history"`
	InputCount   int       `json:"input_count"`
	PendingInput string    `json:"pending_input,omitempty"`
	Choices      []string  `json:"choices"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Snapshot возвращает независимую копию состояния.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:           s.id,
		State:        s.state,
		Transcript:   slices.Clone(s.transcript),
		History:      slices.Clone(s.history),
		InputCount:   s.inputCount,
		PendingInput: s.pendingInput,
		Choices:      slices.Clone(s.choices),
		CreatedAt:    s.createdAt,
		UpdatedAt:    s.updatedAt,
	}
}

// Restore восстанавливает сессию из снимка.
func Restore(snap Snapshot) (*Session, error) {
	switch snap.State {
	case StateAwaitingInput, StateAwaitingGeneration, StateConcluded:
	default:
		return nil, fmt.Errorf("unknown session state %q", snap.State)
	}
	if snap.InputCount < 0 {
		return nil, fmt.Errorf("negative input count %d", snap.InputCount)
	}
	if snap.State == StateAwaitingGeneration && snap.PendingInput == "" {
		return nil, fmt.Errorf("session %s awaits generation without pending input", snap.ID)
	}
	return &Session{
		id:           snap.ID,
		state:        snap.State,
		transcript:   slices.Clone(snap.Transcript),
		history:      slices.Clone(snap.History),
		inputCount:   snap.InputCount,
		pendingInput: snap.PendingInput,
		choices:      slices.Clone(snap.Choices),
		createdAt:    snap.CreatedAt,
		updatedAt:    snap.UpdatedAt,
	}, nil
}
