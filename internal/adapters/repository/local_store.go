package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/ports"
)

// LocalStore keeps every owner's tasks in one JSON document on disk.
// An empty path keeps the document in memory only.
//
// Writes build a candidate document and only replace the in-memory copy once
// the candidate has been saved, so a failed save leaves the store unchanged.
type LocalStore struct {
	mu    sync.RWMutex
	path  string
	tasks map[string][]entities.Task
	opts  storeOptions
}

// NewLocalStore opens the document at path, creating its directory when needed.
// A missing or empty file is an empty store.
func NewLocalStore(path string, opts ...Option) (*LocalStore, error) {
	s := &LocalStore{
		path:  path,
		tasks: make(map[string][]entities.Task),
		opts:  buildOptions(opts),
	}
	if path == "" {
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, entities.NewStoreError(BackendLocal, "open", err)
	}
	tasks, err := s.load()
	if err != nil {
		return nil, entities.NewStoreError(BackendLocal, "open", err)
	}
	s.tasks = tasks
	return s, nil
}

var _ ports.TaskStore = (*LocalStore)(nil)

func (s *LocalStore) Backend() string { return BackendLocal }

func (s *LocalStore) List(ctx context.Context, ownerID string) ([]entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError(BackendLocal, "list", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.tasks[ownerID]
	out := make([]entities.Task, len(owned))
	for i, t := range owned {
		t.OwnerID = ownerID
		t.Deadline = normalizeDeadline(t.Deadline)
		out[i] = t
	}
	return out, nil
}

func (s *LocalStore) Create(ctx context.Context, ownerID string, input entities.TaskInput) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", entities.NewStoreError(BackendLocal, "create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := newTask(ownerID, s.opts.newID(), input, s.opts.now())
	owned := append(cloneTasks(s.tasks[ownerID]), task)
	if err := s.commit(ownerID, owned); err != nil {
		return "", entities.NewStoreError(BackendLocal, "create", err)
	}
	return task.ID, nil
}

func (s *LocalStore) Update(ctx context.Context, ownerID string, task entities.Task) error {
	if err := ctx.Err(); err != nil {
		return entities.NewStoreError(BackendLocal, "update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := cloneTasks(s.tasks[ownerID])
	idx := indexOf(owned, task.ID)
	if idx < 0 {
		return entities.ErrTaskNotFound
	}
	owned[idx] = applyUpdate(owned[idx], task, s.opts.now())
	return entities.NewStoreError(BackendLocal, "update", s.commit(ownerID, owned))
}

func (s *LocalStore) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return entities.NewStoreError(BackendLocal, "delete", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.tasks[ownerID]
	idx := indexOf(owned, id)
	if idx < 0 {
		return entities.ErrTaskNotFound
	}
	remaining := make([]entities.Task, 0, len(owned)-1)
	remaining = append(remaining, owned[:idx]...)
	remaining = append(remaining, owned[idx+1:]...)
	return entities.NewStoreError(BackendLocal, "delete", s.commit(ownerID, remaining))
}

// commit saves a candidate document with owner's tasks replaced and swaps it
// in on success. Caller holds the write lock.
func (s *LocalStore) commit(ownerID string, owned []entities.Task) error {
	candidate := make(map[string][]entities.Task, len(s.tasks)+1)
	for k, v := range s.tasks {
		candidate[k] = v
	}
	if len(owned) == 0 {
		delete(candidate, ownerID)
	} else {
		candidate[ownerID] = owned
	}

	if err := s.save(candidate); err != nil {
		return err
	}
	s.tasks = candidate
	return nil
}

func (s *LocalStore) save(doc map[string][]entities.Task) error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

func (s *LocalStore) load() (map[string][]entities.Task, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string][]entities.Task), nil
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return make(map[string][]entities.Task), nil
	}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	// timestamps are read leniently, like the redis documents
	doc := make(map[string][]entities.Task, len(raw))
	for ownerID, entries := range raw {
		tasks := make([]entities.Task, 0, len(entries))
		for _, entry := range entries {
			task, err := decodeDocument("", entry, nil)
			if err != nil {
				return nil, fmt.Errorf("owner %s: %w", ownerID, err)
			}
			tasks = append(tasks, task)
		}
		doc[ownerID] = tasks
	}
	return doc, nil
}

func cloneTasks(tasks []entities.Task) []entities.Task {
	out := make([]entities.Task, len(tasks), len(tasks)+1)
	copy(out, tasks)
	return out
}

func indexOf(tasks []entities.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
