package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
	"github.com/sourav8908/FLEX-QC-APP/internal/workflow"
)

// SessionStore persists workflow sessions between requests. A missing
// session is (nil, nil).
type SessionStore interface {
	Save(ctx context.Context, s *workflow.Session) error
	Get(ctx context.Context, id string) (*workflow.Session, error)
	Delete(ctx context.Context, id string) error
}

const sessionKeyPrefix = "qcsession:"

// NewSessionStore returns a Redis-backed store, or an in-process one
// when no Redis client is available, so terminals keep working when
// the cache tier is down (at the cost of sessions not surviving a
// server restart).
func NewSessionStore(rdb *redis.Client, ttl time.Duration) SessionStore {
	if rdb == nil {
		return newMemorySessionStore()
	}
	return &redisSessionStore{rdb: rdb, ttl: ttl}
}

type redisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func (r *redisSessionStore) Save(ctx context.Context, s *workflow.Session) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKeyPrefix+s.ID, body, r.ttl).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) Get(ctx context.Context, id string) (*workflow.Session, error) {
	body, err := r.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var s workflow.Session
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

func (r *redisSessionStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

// memorySessionStore is the single-process fallback. Workflow
// semantics assume one logical actor per session, so a plain mutex
// around the map is enough.
type memorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*workflow.Session
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]*workflow.Session)}
}

func (m *memorySessionStore) Save(_ context.Context, s *workflow.Session) error {
	stored := *s
	stored.Checkpoints = append([]model.CheckpointResult(nil), s.Checkpoints...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &stored
	return nil
}

func (m *memorySessionStore) Get(_ context.Context, id string) (*workflow.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	out := *s
	out.Checkpoints = append([]model.CheckpointResult(nil), s.Checkpoints...)
	return &out, nil
}

func (m *memorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
