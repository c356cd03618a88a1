package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/ports"
)

// RedisStore keeps each owner's tasks in one hash, {prefix}:{owner}, with
// one JSON document per task id. Timestamps are epoch milliseconds.
type RedisStore struct {
	client *redis.Client
	prefix string
	loc    *time.Location
	opts   storeOptions
}

// NewRedisStore creates a redis backed task store
func NewRedisStore(client *redis.Client, prefix string, loc *time.Location, opts ...Option) *RedisStore {
	if prefix == "" {
		prefix = "todos"
	}
	if loc == nil {
		loc = time.Local
	}
	return &RedisStore{client: client, prefix: prefix, loc: loc, opts: buildOptions(opts)}
}

var (
	_ ports.TaskStore     = (*RedisStore)(nil)
	_ ports.HealthChecker = (*RedisStore)(nil)
)

func (s *RedisStore) Backend() string { return BackendRedis }

func (s *RedisStore) Ping(ctx context.Context) error {
	return entities.NewStoreError(BackendRedis, "ping", s.client.Ping(ctx).Err())
}

func (s *RedisStore) List(ctx context.Context, ownerID string) ([]entities.Task, error) {
	fields, err := s.client.HGetAll(ctx, s.key(ownerID)).Result()
	if err != nil {
		return nil, entities.NewStoreError(BackendRedis, "list", err)
	}

	tasks := make([]entities.Task, 0, len(fields))
	for id, raw := range fields {
		task, err := decodeDocument(id, []byte(raw), s.loc)
		if err != nil {
			return nil, entities.NewStoreError(BackendRedis, "list", err)
		}
		task.OwnerID = ownerID
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (s *RedisStore) Create(ctx context.Context, ownerID string, input entities.TaskInput) (string, error) {
	task := newTask(ownerID, s.opts.newID(), input, s.opts.now())
	data, err := json.Marshal(encodeDocument(task))
	if err != nil {
		return "", entities.NewStoreError(BackendRedis, "create", err)
	}

	if err := s.client.HSet(ctx, s.key(ownerID), task.ID, data).Err(); err != nil {
		return "", entities.NewStoreError(BackendRedis, "create", err)
	}
	return task.ID, nil
}

func (s *RedisStore) Update(ctx context.Context, ownerID string, task entities.Task) error {
	key := s.key(ownerID)

	raw, err := s.client.HGet(ctx, key, task.ID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return entities.ErrTaskNotFound
		}
		return entities.NewStoreError(BackendRedis, "update", err)
	}
	existing, err := decodeDocument(task.ID, raw, s.loc)
	if err != nil {
		return entities.NewStoreError(BackendRedis, "update", err)
	}

	updated := applyUpdate(existing, task, s.opts.now())
	data, err := json.Marshal(encodeDocument(updated))
	if err != nil {
		return entities.NewStoreError(BackendRedis, "update", err)
	}
	return entities.NewStoreError(BackendRedis, "update", s.client.HSet(ctx, key, task.ID, data).Err())
}

func (s *RedisStore) Delete(ctx context.Context, ownerID, id string) error {
	n, err := s.client.HDel(ctx, s.key(ownerID), id).Result()
	if err != nil {
		return entities.NewStoreError(BackendRedis, "delete", err)
	}
	if n == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}

func (s *RedisStore) key(ownerID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, ownerID)
}

// document is the stored shape of a task. Deadline is null when absent.
type document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Tag       string `json:"tag"`
	Complete  bool   `json:"complete"`
	Alert     bool   `json:"alert"`
	Deadline  *int64 `json:"deadline"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func encodeDocument(t entities.Task) document {
	doc := document{
		ID:        t.ID,
		Title:     t.Title,
		Content:   t.Content,
		Tag:       t.Tag,
		Complete:  t.Complete,
		Alert:     t.Alert,
		CreatedAt: t.CreatedAt.UnixMilli(),
		UpdatedAt: t.UpdatedAt.UnixMilli(),
	}
	if t.HasDeadline() {
		ms := t.Deadline.UnixMilli()
		doc.Deadline = &ms
	}
	return doc
}
