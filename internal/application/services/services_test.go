package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/infrastructure/config"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
)

var taipei = time.FixedZone("CST", 8*3600)

// Wednesday 2024-05-15 10:00 local.
var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, taipei)

// memoryStore is an in-memory TaskStore whose calls can be made to fail.
type memoryStore struct {
	mu    sync.Mutex
	tasks map[string][]entities.Task
	now   func() time.Time
	seq   int
	fail  error
	calls int
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{tasks: map[string][]entities.Task{}, now: now}
}

func (m *memoryStore) List(ctx context.Context, ownerID string) ([]entities.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return nil, entities.NewStoreError("memory", "list", m.fail)
	}
	out := make([]entities.Task, len(m.tasks[ownerID]))
	copy(out, m.tasks[ownerID])
	return out, nil
}

func (m *memoryStore) Create(ctx context.Context, ownerID string, input entities.TaskInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return "", entities.NewStoreError("memory", "create", m.fail)
	}
	m.seq++
	id := fmt.Sprintf("t%02d", m.seq)
	now := m.now()
	m.tasks[ownerID] = append(m.tasks[ownerID], entities.Task{
		ID: id, OwnerID: ownerID, Title: input.Title, Content: input.Content, Tag: input.Tag,
		Alert: input.Alert, Deadline: input.Deadline, CreatedAt: now, UpdatedAt: now,
	})
	return id, nil
}

func (m *memoryStore) Update(ctx context.Context, ownerID string, task entities.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return entities.NewStoreError("memory", "update", m.fail)
	}
	for i, t := range m.tasks[ownerID] {
		if t.ID == task.ID {
			task.CreatedAt = t.CreatedAt
			task.UpdatedAt = m.now()
			m.tasks[ownerID][i] = task
			return nil
		}
	}
	return entities.ErrTaskNotFound
}

func (m *memoryStore) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return entities.NewStoreError("memory", "delete", m.fail)
	}
	owned := m.tasks[ownerID]
	for i, t := range owned {
		if t.ID == id {
			m.tasks[ownerID] = append(owned[:i:i], owned[i+1:]...)
			return nil
		}
	}
	return entities.ErrTaskNotFound
}

func (m *memoryStore) setFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func boardConfig() config.BoardConfig {
	return config.BoardConfig{
		Tags:          []string{"work", "study", "personal", "other"},
		FallbackTag:   "other",
		PageSize:      5,
		SoonDueWindow: 72 * time.Hour,
		StatsScope:    "deadline",
	}
}

func newTestService(t *testing.T) (*TaskService, *memoryStore) {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := newMemoryStore(clock)
	svc, err := NewTaskService(store, boardConfig(), taipei, logger.NewNop())
	if err != nil {
		t.Fatalf("NewTaskService: %v", err)
	}
	return svc.WithClock(clock), store
}

func mustCreate(t *testing.T, svc *TaskService, owner, title, tag, deadline string) *entities.Task {
	t.Helper()
	task, err := svc.Create(context.Background(), owner, createRequest(title, tag, deadline))
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	return task
}

func ptr[T any](v T) *T { return &v }

var errBackendDown = errors.New("backend down")
