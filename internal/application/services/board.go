package services

import (
	"context"
	"sync"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/domain/listing"
	"github.com/a920604a/to-do-list/internal/domain/period"
	"github.com/a920604a/to-do-list/internal/domain/stats"
	"github.com/a920604a/to-do-list/internal/ports"
)

// ViewState is the board's current view parameters
type ViewState struct {
	Tag         string          `json:"tag" yaml:"tag"`
	Search      string          `json:"search" yaml:"search"`
	SortKey     listing.SortKey `json:"sort_key" yaml:"sort_key"`
	Ascending   bool            `json:"ascending" yaml:"ascending"`
	Range       period.Label    `json:"range" yaml:"range"`
	CustomStart string          `json:"custom_start,omitempty" yaml:"custom_start,omitempty"`
	CustomEnd   string          `json:"custom_end,omitempty" yaml:"custom_end,omitempty"`
	Scope       string          `json:"scope,omitempty" yaml:"scope,omitempty"`
	Page        int             `json:"page" yaml:"page"`
	PageSize    int             `json:"page_size" yaml:"page_size"`
}

// Board holds one owner's task snapshot and view state. Every mutation goes
// through the store and is followed by a refresh; a failed call leaves the
// previous snapshot in place. Calls are serialised, so the last one wins.
type Board struct {
	mu    sync.Mutex
	svc   *TaskService
	owner string
	tasks []entities.Task
	state ViewState
}

// NewBoard creates an empty board. Call Refresh to load the snapshot.
func NewBoard(svc *TaskService, ownerID string) *Board {
	return &Board{
		svc:   svc,
		owner: ownerID,
		tasks: []entities.Task{},
		state: ViewState{
			Tag:      listing.AllTags,
			SortKey:  listing.SortCreatedAt,
			Range:    period.Week,
			Page:     1,
			PageSize: svc.PageSize(),
		},
	}
}

// Refresh reloads the snapshot from the store
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshLocked(ctx)
}

func (b *Board) refreshLocked(ctx context.Context) error {
	tasks, err := b.svc.Snapshot(ctx, b.owner)
	if err != nil {
		return err
	}
	b.tasks = tasks
	return nil
}

// Create adds a task and refreshes
func (b *Board) Create(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, err := b.svc.Create(ctx, b.owner, req)
	if err != nil {
		return nil, err
	}
	return task, b.refreshLocked(ctx)
}

// Update patches a task and refreshes
func (b *Board) Update(ctx context.Context, id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, err := b.svc.Update(ctx, b.owner, id, req)
	if err != nil {
		return nil, err
	}
	return task, b.refreshLocked(ctx)
}

// Toggle flips a task's completion and refreshes
func (b *Board) Toggle(ctx context.Context, id string) (*entities.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	task, err := b.svc.Toggle(ctx, b.owner, id)
	if err != nil {
		return nil, err
	}
	return task, b.refreshLocked(ctx)
}

// Delete removes a task and refreshes
func (b *Board) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.svc.Delete(ctx, b.owner, id); err != nil {
		return err
	}
	return b.refreshLocked(ctx)
}

// SetTag changes the tag filter and returns to the first page
func (b *Board) SetTag(tag string) {
	b.update(func(s *ViewState) {
		if tag == "" {
			tag = listing.AllTags
		}
		s.Tag = tag
		s.Page = 1
	})
}

// SetSearch changes the search term and returns to the first page
func (b *Board) SetSearch(term string) {
	b.update(func(s *ViewState) {
		s.Search = term
		s.Page = 1
	})
}

// SetSort changes the ordering and returns to the first page
func (b *Board) SetSort(key listing.SortKey, ascending bool) {
	b.update(func(s *ViewState) {
		s.SortKey = listing.ParseSortKey(string(key))
		s.Ascending = ascending
		s.Page = 1
	})
}

// SetPageSize changes the page size and returns to the first page.
// Non-positive sizes are ignored.
func (b *Board) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	b.update(func(s *ViewState) {
		s.PageSize = size
		s.Page = 1
	})
}

// SetRange selects the statistics range. Custom bounds are only kept for
// the custom label.
func (b *Board) SetRange(label period.Label, customStart, customEnd string) {
	b.update(func(s *ViewState) {
		s.Range = label
		s.CustomStart, s.CustomEnd = "", ""
		if label == period.Custom {
			s.CustomStart, s.CustomEnd = customStart, customEnd
		}
	})
}

// SetScope selects the statistics scope, deadline or created
func (b *Board) SetScope(scope string) {
	b.update(func(s *ViewState) {
		s.Scope = scope
	})
}

// GoTo jumps to a page, clamped to the current page count
func (b *Board) GoTo(page int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Page = page
	b.state.Page = b.pageLocked().PageNumber
}

// Next moves to the following page, staying on the last one
func (b *Board) Next() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Page = b.pageLocked().Next()
}

// Prev moves to the preceding page, staying on the first one
func (b *Board) Prev() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Page = b.pageLocked().Prev()
}

// Page derives the current page from the snapshot
func (b *Board) Page() listing.Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	page := b.pageLocked()
	b.state.Page = page.PageNumber
	return page
}

// Stats derives statistics for the selected range from the snapshot
func (b *Board) Stats() stats.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state
	return b.svc.ComputeStats(b.tasks, s.Range, s.CustomStart, s.CustomEnd, s.Scope)
}

// State returns a copy of the view state
func (b *Board) State() ViewState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Tasks returns a copy of the snapshot
func (b *Board) Tasks() []entities.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

func (b *Board) update(fn func(*ViewState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.state)
}

func (b *Board) pageLocked() listing.Page {
	q := listing.Query{
		Tag:       b.state.Tag,
		Search:    b.state.Search,
		SortKey:   b.state.SortKey,
		Ascending: b.state.Ascending,
	}
	// PageSize is kept positive by SetPageSize and NewBoard
	page, _ := listing.FilterSortPaginate(b.tasks, q, b.state.Page, b.state.PageSize)
	return page
}
