package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/ports"
)

// PostgresStore implements TaskStore on the todos table, scoped by user_id
type PostgresStore struct {
	db   *sqlx.DB
	opts storeOptions
}

// NewPostgresStore creates a new postgres task store
func NewPostgresStore(db *sqlx.DB, opts ...Option) *PostgresStore {
	return &PostgresStore{db: db, opts: buildOptions(opts)}
}

var (
	_ ports.TaskStore     = (*PostgresStore)(nil)
	_ ports.HealthChecker = (*PostgresStore)(nil)
)

func (s *PostgresStore) Backend() string { return BackendPostgres }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return entities.NewStoreError(BackendPostgres, "ping", s.db.PingContext(ctx))
}

func (s *PostgresStore) List(ctx context.Context, ownerID string) ([]entities.Task, error) {
	query := `
		SELECT id, user_id, title, content, tag, complete, alert, deadline, created_at, updated_at
		FROM todos
		WHERE user_id = $1`

	tasks := make([]entities.Task, 0)
	if err := s.db.SelectContext(ctx, &tasks, query, ownerID); err != nil {
		return nil, entities.NewStoreError(BackendPostgres, "list", err)
	}
	for i := range tasks {
		tasks[i].Deadline = normalizeDeadline(tasks[i].Deadline)
	}
	return tasks, nil
}

func (s *PostgresStore) Create(ctx context.Context, ownerID string, input entities.TaskInput) (string, error) {
	task := newTask(ownerID, s.opts.newID(), input, s.opts.now())

	query := `
		INSERT INTO todos (id, user_id, title, content, tag, complete, alert, deadline, created_at, updated_at)
		VALUES (:id, :user_id, :title, :content, :tag, :complete, :alert, :deadline, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, query, task); err != nil {
		return "", entities.NewStoreError(BackendPostgres, "create", err)
	}
	return task.ID, nil
}

func (s *PostgresStore) Update(ctx context.Context, ownerID string, task entities.Task) error {
	query := `
		UPDATE todos
		SET title = $3, content = $4, tag = $5, complete = $6, alert = $7, deadline = $8,
			updated_at = GREATEST($9, created_at)
		WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query,
		task.ID, ownerID, task.Title, task.Content, task.Tag,
		task.Complete, task.Alert, normalizeDeadline(task.Deadline), s.opts.now(),
	)
	if err != nil {
		return entities.NewStoreError(BackendPostgres, "update", err)
	}
	return checkAffected(result, "update")
}

func (s *PostgresStore) Delete(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM todos WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return entities.NewStoreError(BackendPostgres, "delete", err)
	}
	return checkAffected(result, "delete")
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func checkAffected(result rowsAffecter, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return entities.NewStoreError(BackendPostgres, op, fmt.Errorf("rows affected: %w", err))
	}
	if rows == 0 {
		return entities.ErrTaskNotFound
	}
	return nil
}
