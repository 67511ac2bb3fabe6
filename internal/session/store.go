package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store хранит снимки сессий. Реализации не отдают наружу разделяемые
// изменяемые значения: Get всегда возвращает свою копию, поэтому ход,
// прерванный до Save, не оставляет следов.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

// MemoryStore - хранилище сессий в памяти процесса с истечением по TTL.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// Compile-time check
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore создает хранилище в памяти. ttl <= 0 отключает истечение.
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.Named("MemorySessionStore"),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	entry, ok := m.entries[id]
	if ok && m.expired(entry) {
		delete(m.entries, id)
		ok = false
		m.logger.Debug("Session expired", zap.String("session_id", id))
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return Restore(entry.snap)
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	entry := memoryEntry{snap: s.Snapshot()}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[s.ID()] = entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.entries, id)
	return nil
}

// PurgeExpired удаляет истекшие сессии и возвращает их количество.
func (m *MemoryStore) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for id, entry := range m.entries {
		if m.expired(entry) {
			delete(m.entries, id)
			purged++
		}
	}
	return purged
}

// RunJanitor периодически вызывает PurgeExpired, пока не отменен ctx.
func (m *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 || m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.PurgeExpired(); n > 0 {
				m.logger.Info("Expired sessions purged", zap.Int("count", n))
			}
		}
	}
}

func (m *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)
}
