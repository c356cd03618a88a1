package ports

import (
	"context"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/domain/listing"
	"github.com/a920604a/to-do-list/internal/domain/stats"
)

// AuthService interface for owner identity tokens
type AuthService interface {
	IssueToken(ownerID string) (*TokenResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// TaskService interface for task management operations
type TaskService interface {
	Create(ctx context.Context, ownerID string, req CreateTaskRequest) (*entities.Task, error)
	Update(ctx context.Context, ownerID, id string, req UpdateTaskRequest) (*entities.Task, error)
	Toggle(ctx context.Context, ownerID, id string) (*entities.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	Snapshot(ctx context.Context, ownerID string) ([]entities.Task, error)
	View(ctx context.Context, ownerID string, query listing.Query, page, pageSize int) (listing.Page, error)
	Completed(ctx context.Context, ownerID string, page, pageSize int) (listing.Page, error)
	Stats(ctx context.Context, ownerID string, req StatsRequest) (*stats.Stats, error)
	Calendar(ctx context.Context, ownerID, month string) ([]stats.CalendarDay, error)
	Categories() entities.Categories
}

// Request/Response Types

type TokenRequest struct {
	OwnerID string `json:"owner_id" validate:"required,max=128"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	OwnerID     string `json:"owner_id"`
}

type Claims struct {
	OwnerID string `json:"owner_id"`
}

// CreateTaskRequest is the create form. Deadline accepts the formats of
// entities.ParseTimestamp; anything unparseable leaves the task without one.
type CreateTaskRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"omitempty,max=2000"`
	Tag      string `json:"tag" validate:"omitempty,max=50"`
	Deadline string `json:"deadline" validate:"omitempty,max=40"`
	Alert    bool   `json:"alert"`
}

// UpdateTaskRequest patches a task. Nil fields are left unchanged and
// ClearDeadline removes an existing deadline; a Deadline that does not parse
// leaves it as it was.
type UpdateTaskRequest struct {
	Title         *string `json:"title" validate:"omitempty,max=200"`
	Content       *string `json:"content" validate:"omitempty,max=2000"`
	Tag           *string `json:"tag" validate:"omitempty,max=50"`
	Deadline      *string `json:"deadline" validate:"omitempty,max=40"`
	ClearDeadline bool    `json:"clear_deadline"`
	Alert         *bool   `json:"alert"`
	Complete      *bool   `json:"complete"`
}

type ListRequest struct {
	Tag      string `query:"tag" validate:"omitempty,max=50"`
	Search   string `query:"q" validate:"omitempty,max=200"`
	Sort     string `query:"sort" validate:"omitempty,oneof=created_at updated_at deadline"`
	Order    string `query:"order" validate:"omitempty,oneof=asc desc"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=100"`
}

type StatsRequest struct {
	Range string `query:"range" validate:"omitempty,oneof=today week month quarter year custom"`
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
	Scope string `query:"scope" validate:"omitempty,oneof=deadline created"`
}

type CalendarRequest struct {
	Month string `query:"month" validate:"omitempty,datetime=2006-01"`
}

type TagsResponse struct {
	Tags     []string `json:"tags"`
	Fallback string   `json:"fallback"`
}

type CreatedResponse struct {
	ID   string         `json:"id"`
	Task *entities.Task `json:"task"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
