package ports

import (
	"context"

	"github.com/a920604a/to-do-list/internal/domain/entities"
)

// TaskStore defines the persistence operations for an owner's tasks.
// Implementations wrap backend failures in *entities.StoreError and report
// missing tasks as entities.ErrTaskNotFound.
type TaskStore interface {
	// List returns an unordered snapshot of the owner's tasks.
	List(ctx context.Context, ownerID string) ([]entities.Task, error)
	// Create stores a new task and returns its assigned id. CreatedAt and
	// UpdatedAt are both set to the time of the call.
	Create(ctx context.Context, ownerID string, input entities.TaskInput) (string, error)
	// Update replaces the mutable fields of an existing task. ID and
	// CreatedAt are preserved and UpdatedAt is refreshed.
	Update(ctx context.Context, ownerID string, task entities.Task) error
	Delete(ctx context.Context, ownerID, id string) error
}

// HealthChecker is implemented by stores backed by a remote service
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// StoreInfo describes the backend behind a store
type StoreInfo interface {
	Backend() string
}
