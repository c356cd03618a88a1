package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/domain/listing"
	"github.com/a920604a/to-do-list/internal/domain/period"
	"github.com/a920604a/to-do-list/internal/domain/stats"
	"github.com/a920604a/to-do-list/internal/infrastructure/config"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
	"github.com/a920604a/to-do-list/internal/ports"
)

// MonthLayout is the format of calendar month selectors
const MonthLayout = "2006-01"

// TaskService handles task-related operations for one store
type TaskService struct {
	store      ports.TaskStore
	categories entities.Categories
	pageSize   int
	soonWindow time.Duration
	scope      stats.Scope
	loc        *time.Location
	now        func() time.Time
	logger     *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(store ports.TaskStore, cfg config.BoardConfig, loc *time.Location, logger *logger.Logger) (*TaskService, error) {
	categories, err := entities.NewCategories(cfg.Tags, cfg.FallbackTag)
	if err != nil {
		return nil, fmt.Errorf("board categories: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = listing.DefaultPageSize
	}

	return &TaskService{
		store:      store,
		categories: categories,
		pageSize:   pageSize,
		soonWindow: cfg.SoonDueWindow,
		scope:      stats.ParseScope(cfg.StatsScope),
		loc:        loc,
		now:        time.Now,
		logger:     logger.WithComponent("task_service"),
	}, nil
}

// WithClock replaces the wall clock, for tests and fixed-time reports
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

var _ ports.TaskService = (*TaskService)(nil)

// Categories returns the configured tag set
func (s *TaskService) Categories() entities.Categories {
	return s.categories
}

// PageSize returns the configured default page size
func (s *TaskService) PageSize() int {
	return s.pageSize
}

// Now returns the current time in the configured location
func (s *TaskService) Now() time.Time {
	return s.now().In(s.loc)
}

// Create validates the form and stores a new task. A blank title never
// reaches the store.
func (s *TaskService) Create(ctx context.Context, ownerID string, req ports.CreateTaskRequest) (*entities.Task, error) {
	input, err := entities.TaskInput{
		Title:    req.Title,
		Content:  req.Content,
		Tag:      req.Tag,
		Deadline: entities.ParseTimestamp(req.Deadline, s.loc),
		Alert:    req.Alert,
	}.Normalize(s.categories)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	id, err := s.store.Create(ctx, ownerID, input)
	s.logger.LogStoreOp("create", ownerID, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	task, err := s.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	s.logger.WithOwner(ownerID).Infow("Task created", "task_id", id, "tag", task.Tag)
	return task, nil
}

// Update applies a partial patch; fields left nil keep their value.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, entities.ErrBlankTitle
		}
		task.Title = title
	}
	if req.Content != nil {
		task.Content = strings.TrimSpace(*req.Content)
	}
	if req.Tag != nil {
		task.Tag = s.categories.Normalize(*req.Tag)
	}
	switch {
	case req.ClearDeadline:
		task.Deadline = nil
	case req.Deadline != nil:
		// an unparseable deadline keeps the current one
		if deadline := entities.ParseTimestamp(*req.Deadline, s.loc); deadline != nil {
			task.Deadline = deadline
		}
	}
	if req.Alert != nil {
		task.Alert = *req.Alert
	}
	if req.Complete != nil {
		task.Complete = *req.Complete
	}

	return s.save(ctx, ownerID, *task)
}

// Toggle flips the completion flag
func (s *TaskService) Toggle(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	task, err := s.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	task.Complete = !task.Complete
	return s.save(ctx, ownerID, *task)
}

// Delete removes a task
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	start := time.Now()
	err := s.store.Delete(ctx, ownerID, id)
	s.logger.LogStoreOp("delete", ownerID, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	s.logger.WithOwner(ownerID).Infow("Task deleted", "task_id", id)
	return nil
}

// Snapshot returns every task of the owner. Stored tags outside the
// configured categories read as the fallback.
func (s *TaskService) Snapshot(ctx context.Context, ownerID string) ([]entities.Task, error) {
	start := time.Now()
	tasks, err := s.store.List(ctx, ownerID)
	s.logger.LogStoreOp("list", ownerID, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		tasks[i].Tag = s.categories.Normalize(tasks[i].Tag)
	}
	return tasks, nil
}

// View returns one page of the active task list. A non-positive page size
// uses the configured default.
func (s *TaskService) View(ctx context.Context, ownerID string, query listing.Query, page, pageSize int) (listing.Page, error) {
	tasks, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return listing.Page{}, err
	}
	return listing.FilterSortPaginate(tasks, query, page, s.resolvePageSize(pageSize))
}

// Completed returns one page of finished tasks, most recent first
func (s *TaskService) Completed(ctx context.Context, ownerID string, page, pageSize int) (listing.Page, error) {
	tasks, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return listing.Page{}, err
	}
	return listing.CompletedHistory(tasks, page, s.resolvePageSize(pageSize))
}

// Stats computes statistics for the requested range
func (s *TaskService) Stats(ctx context.Context, ownerID string, req ports.StatsRequest) (*stats.Stats, error) {
	tasks, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result := s.ComputeStats(tasks, period.ParseLabel(req.Range), req.Start, req.End, req.Scope)
	return &result, nil
}

// ComputeStats runs the aggregator over an existing snapshot. An empty scope
// uses the configured default.
func (s *TaskService) ComputeStats(tasks []entities.Task, label period.Label, customStart, customEnd, scope string) stats.Stats {
	now := s.Now()
	rng, set := period.ResolveRange(label, now, customStart, customEnd)

	opts := stats.Options{Scope: s.scope, SoonWindow: s.soonWindow}
	if scope != "" {
		opts.Scope = stats.ParseScope(scope)
	}
	return stats.Compute(tasks, s.categories.Tags, rng, set, now, opts)
}

// Calendar groups tasks by deadline day for a YYYY-MM month, defaulting to
// the current month.
func (s *TaskService) Calendar(ctx context.Context, ownerID, month string) ([]stats.CalendarDay, error) {
	first := period.StartOfMonth(s.Now())
	if month != "" {
		parsed, err := time.ParseInLocation(MonthLayout, month, s.loc)
		if err != nil {
			return nil, entities.ErrInvalidMonth
		}
		first = parsed
	}

	tasks, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	rng := period.Range{Start: first, End: first.AddDate(0, 1, 0).Add(-time.Nanosecond)}
	return stats.Calendar(tasks, rng), nil
}

func (s *TaskService) save(ctx context.Context, ownerID string, task entities.Task) (*entities.Task, error) {
	start := time.Now()
	err := s.store.Update(ctx, ownerID, task)
	s.logger.LogStoreOp("update", ownerID, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", task.ID, err)
	}
	return s.get(ctx, ownerID, task.ID)
}

func (s *TaskService) get(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	tasks, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i], nil
		}
	}
	return nil, entities.ErrTaskNotFound
}

func (s *TaskService) resolvePageSize(pageSize int) int {
	if pageSize <= 0 {
		return s.pageSize
	}
	return pageSize
}
