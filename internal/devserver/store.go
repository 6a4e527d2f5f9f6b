package devserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/todoask/internal/health"
)

// Task is a stored to-do item.
type Task struct {
	ID        string `json:"_id"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

// TaskStore persists tasks. List returns tasks in insertion order; Update
// and Remove report whether the task existed.
type TaskStore interface {
	List(ctx context.Context) ([]Task, error)
	Add(ctx context.Context, text string, completed bool) (Task, error)
	Update(ctx context.Context, id, text string, completed bool) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// MemoryStore keeps tasks in memory in insertion order.
//
// Thread-safe: Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]Task
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]Task)}
}

// List returns every task.
func (s *MemoryStore) List(_ context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}
	return out, nil
}

// Add stores a new task and returns it with its id.
func (s *MemoryStore) Add(_ context.Context, text string, completed bool) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Task{ID: uuid.NewString(), Task: text, Completed: completed}
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	return t, nil
}

// Update replaces the text and completion of id.
func (s *MemoryStore) Update(_ context.Context, id, text string, completed bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	s.tasks[id] = Task{ID: id, Task: text, Completed: completed}
	return true, nil
}

// Remove deletes id.
func (s *MemoryStore) Remove(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// StoreConfig selects a TaskStore backend.
type StoreConfig struct {
	// Kind is "memory", "sqlite" or "redis". Empty means memory.
	Kind       string
	SQLitePath string
	RedisURL   string
}

// OpenTaskStore opens the backend described by cfg.
func OpenTaskStore(ctx context.Context, cfg StoreConfig) (TaskStore, error) {
	switch cfg.Kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case "redis":
		return OpenRedisStore(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("unknown task store %q (supported: memory, sqlite, redis)", cfg.Kind)
	}
}

// storeCheck reports the task store in readiness probes.
func storeCheck(store TaskStore) health.Checker {
	return health.CheckFunc("task-store", func(ctx context.Context) *health.Result {
		if err := store.Ping(ctx); err != nil {
			return health.Unhealthy("task store unavailable").With("error", err.Error())
		}
		return health.Healthy("task store reachable")
	})
}
