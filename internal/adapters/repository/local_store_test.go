package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/a920604a/to-do-list/internal/domain/entities"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, path string) (*LocalStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC)}
	s, err := NewLocalStore(path, WithClock(clock.now), WithIDGenerator(sequentialIDs()))
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return s, clock
}

func TestLocalStoreCRUD(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todos.json")
	s, clock := newTestStore(t, path)

	deadline := time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC)
	id, err := s.Create(ctx, "alice", entities.TaskInput{Title: "report", Tag: "work", Deadline: &deadline})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "bob", entities.TaskInput{Title: "gym", Tag: "personal"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tasks, err := s.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != id || tasks[0].OwnerID != "alice" {
		t.Fatalf("alice sees %+v", tasks)
	}
	created := tasks[0]
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("new task timestamps differ: %v %v", created.CreatedAt, created.UpdatedAt)
	}

	clock.advance(time.Hour)
	created.Complete = true
	created.Deadline = nil
	created.CreatedAt = time.Time{}
	if err := s.Update(ctx, "alice", created); err != nil {
		t.Fatalf("Update: %v", err)
	}

	tasks, _ = s.List(ctx, "alice")
	got := tasks[0]
	if !got.Complete || got.Deadline != nil {
		t.Errorf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("CreatedAt changed to %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(clock.now()) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, clock.now())
	}

	reopened, _ := newTestStore(t, path)
	tasks, _ = reopened.List(ctx, "alice")
	if len(tasks) != 1 || !tasks[0].Complete {
		t.Errorf("document not persisted: %+v", tasks)
	}

	if err := s.Delete(ctx, "alice", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if tasks, _ := s.List(ctx, "alice"); len(tasks) != 0 {
		t.Errorf("task survived delete: %+v", tasks)
	}
	if tasks, _ := s.List(ctx, "bob"); len(tasks) != 1 {
		t.Errorf("bob's tasks affected: %+v", tasks)
	}
}

func TestLocalStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, "")

	if err := s.Update(ctx, "alice", entities.Task{ID: "missing", Title: "x"}); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("Update err = %v", err)
	}
	if err := s.Delete(ctx, "alice", "missing"); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("Delete err = %v", err)
	}

	id, _ := s.Create(ctx, "alice", entities.TaskInput{Title: "x"})
	if err := s.Delete(ctx, "bob", id); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("cross-owner delete err = %v", err)
	}
}

func TestLocalStoreFailedSaveKeepsMemory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	s, _ := newTestStore(t, filepath.Join(dir, "todos.json"))

	id, err := s.Create(ctx, "alice", entities.TaskInput{Title: "keep me"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Create(ctx, "alice", entities.TaskInput{Title: "lost"}); !entities.IsStoreError(err) {
		t.Fatalf("Create err = %v, want StoreError", err)
	}
	if err := s.Delete(ctx, "alice", id); !entities.IsStoreError(err) {
		t.Fatalf("Delete err = %v, want StoreError", err)
	}

	tasks, _ := s.List(ctx, "alice")
	if len(tasks) != 1 || tasks[0].ID != id {
		t.Errorf("memory changed after failed saves: %+v", tasks)
	}
}

func TestLocalStoreEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := newTestStore(t, path)
	tasks, err := s.List(context.Background(), "alice")
	if err != nil || len(tasks) != 0 {
		t.Errorf("List = %v, %v", tasks, err)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewLocalStore(path); !entities.IsStoreError(err) {
		t.Errorf("corrupt document err = %v, want StoreError", err)
	}
}

func TestLocalStoreLenientTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	doc := `{"alice":[
  {"id":"a","title":"bad deadline","tag":"work","deadline":"someday","created_at":"2024-05-13T09:00:00Z","updated_at":"2024-05-13T10:00:00Z"},
  {"id":"b","title":"bad created","tag":"work","deadline":"2024-05-20T18:00:00Z","created_at":"garbage"}
]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewLocalStore(path)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	tasks, err := s.List(context.Background(), "alice")
	if err != nil || len(tasks) != 2 {
		t.Fatalf("List = %+v, %v", tasks, err)
	}

	byID := map[string]entities.Task{}
	for _, task := range tasks {
		byID[task.ID] = task
	}
	if byID["a"].Deadline != nil {
		t.Errorf("unparseable deadline = %v, want absent", byID["a"].Deadline)
	}
	if want := time.Date(2024, 5, 13, 10, 0, 0, 0, time.UTC); !byID["a"].UpdatedAt.Equal(want) {
		t.Errorf("updated = %v, want %v", byID["a"].UpdatedAt, want)
	}
	if want := time.Date(2024, 5, 20, 18, 0, 0, 0, time.UTC); byID["b"].Deadline == nil || !byID["b"].Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", byID["b"].Deadline, want)
	}
	if !byID["b"].CreatedAt.IsZero() {
		t.Errorf("unparseable created_at = %v, want zero", byID["b"].CreatedAt)
	}
}

func TestLocalStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _ := newTestStore(t, "")
	if _, err := s.List(ctx, "alice"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
