package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/a920604a/to-do-list/internal/domain/entities"
)

// Backend names, also used as the store.driver config value
const (
	BackendLocal    = "local"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type storeOptions struct {
	now   func() time.Time
	newID func() string
}

// Option configures a task store
type Option func(*storeOptions)

// WithClock overrides the time source used for CreatedAt and UpdatedAt
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		o.now = now
	}
}

// WithIDGenerator overrides the uuid based id generator
func WithIDGenerator(newID func() string) Option {
	return func(o *storeOptions) {
		o.newID = newID
	}
}

func buildOptions(opts []Option) storeOptions {
	o := storeOptions{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newTask(ownerID, id string, input entities.TaskInput, now time.Time) entities.Task {
	return entities.Task{
		ID:        id,
		OwnerID:   ownerID,
		Title:     input.Title,
		Content:   input.Content,
		Tag:       input.Tag,
		Alert:     input.Alert,
		Deadline:  normalizeDeadline(input.Deadline),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// applyUpdate copies the mutable fields of incoming onto existing.
func applyUpdate(existing, incoming entities.Task, now time.Time) entities.Task {
	existing.Title = incoming.Title
	existing.Content = incoming.Content
	existing.Tag = incoming.Tag
	existing.Complete = incoming.Complete
	existing.Alert = incoming.Alert
	existing.Deadline = normalizeDeadline(incoming.Deadline)
	if now.Before(existing.CreatedAt) {
		now = existing.CreatedAt
	}
	existing.UpdatedAt = now
	return existing
}

// normalizeDeadline keeps an absent deadline absent; zero times count as absent.
func normalizeDeadline(d *time.Time) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	v := *d
	return &v
}

// looseDocument accepts timestamps written as numbers or strings.
type looseDocument struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Tag       string          `json:"tag"`
	Complete  bool            `json:"complete"`
	Alert     bool            `json:"alert"`
	Deadline  json.RawMessage `json:"deadline"`
	CreatedAt json.RawMessage `json:"created_at"`
	UpdatedAt json.RawMessage `json:"updated_at"`
}

// decodeDocument maps a stored document to a task. Unparseable timestamps
// become absent; a missing UpdatedAt falls back to CreatedAt. An empty id
// takes the document's own.
func decodeDocument(id string, raw []byte, loc *time.Location) (entities.Task, error) {
	var doc looseDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return entities.Task{}, fmt.Errorf("decode task %s: %w", id, err)
	}

	if id == "" {
		id = doc.ID
	}
	task := entities.Task{
		ID:       id,
		Title:    doc.Title,
		Content:  doc.Content,
		Tag:      doc.Tag,
		Complete: doc.Complete,
		Alert:    doc.Alert,
		Deadline: rawTimestamp(doc.Deadline, loc),
	}
	if created := rawTimestamp(doc.CreatedAt, loc); created != nil {
		task.CreatedAt = *created
	}
	if updated := rawTimestamp(doc.UpdatedAt, loc); updated != nil {
		task.UpdatedAt = *updated
	} else {
		task.UpdatedAt = task.CreatedAt
	}
	return task, nil
}

func rawTimestamp(raw json.RawMessage, loc *time.Location) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil {
			return nil
		}
		return entities.ParseStoredTimestamp(s, loc)
	}
	// JSON numbers may carry a fraction or exponent
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return nil
	}
	return entities.ParseStoredTimestamp(strconv.FormatInt(int64(f), 10), loc)
}
