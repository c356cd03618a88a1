package entities

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Common errors
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrBlankTitle      = errors.New("title must not be blank")
	ErrInvalidPageSize = errors.New("page size must be positive")
	ErrUnknownTag      = errors.New("unknown tag")
	ErrInvalidMonth    = errors.New("month must be formatted as YYYY-MM")
)

// Default category configuration
const (
	TagWork     = "work"
	TagStudy    = "study"
	TagPersonal = "personal"
	TagOther    = "other"
)

// DefaultTags is the category set used when none is configured.
var DefaultTags = []string{TagWork, TagStudy, TagPersonal, TagOther}

// Task represents a to-do item owned by exactly one user
type Task struct {
	ID        string     `json:"id" db:"id"`
	OwnerID   string     `json:"-" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	Content   string     `json:"content" db:"content"`
	Tag       string     `json:"tag" db:"tag"`
	Complete  bool       `json:"complete" db:"complete"`
	Alert     bool       `json:"alert" db:"alert"`
	Deadline  *time.Time `json:"deadline,omitempty" db:"deadline"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskInput holds the owner supplied fields of a new task
type TaskInput struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Tag      string     `json:"tag"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Alert    bool       `json:"alert"`
}

// HasDeadline reports whether the task carries a deadline.
func (t *Task) HasDeadline() bool {
	return t.Deadline != nil && !t.Deadline.IsZero()
}

// IsOverdue reports whether an incomplete task has passed its deadline.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Complete && t.HasDeadline() && t.Deadline.Before(now)
}

// Matches does a case-insensitive substring match against title and content.
func (t *Task) Matches(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Content), term)
}

// Categories is the externally configured tag set.
type Categories struct {
	Tags     []string
	Fallback string
}

// NewCategories builds a category set; the fallback must be one of the tags.
func NewCategories(tags []string, fallback string) (Categories, error) {
	if len(tags) == 0 {
		tags = DefaultTags
	}
	if fallback == "" {
		fallback = tags[len(tags)-1]
	}
	c := Categories{Tags: append([]string(nil), tags...), Fallback: fallback}
	if !c.Contains(fallback) {
		return Categories{}, fmt.Errorf("fallback tag %q: %w", fallback, ErrUnknownTag)
	}
	return c, nil
}

// DefaultCategories returns work/study/personal/other with "other" as fallback.
func DefaultCategories() Categories {
	return Categories{Tags: append([]string(nil), DefaultTags...), Fallback: TagOther}
}

// Contains reports whether tag is configured.
func (c Categories) Contains(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Normalize maps blank or unrecognized tags to the fallback category.
func (c Categories) Normalize(tag string) string {
	tag = strings.TrimSpace(tag)
	if c.Contains(tag) {
		return tag
	}
	return c.Fallback
}

// Normalize trims the input and applies the tag fallback. A blank title is rejected.
func (in TaskInput) Normalize(c Categories) (TaskInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, ErrBlankTitle
	}
	in.Content = strings.TrimSpace(in.Content)
	in.Tag = c.Normalize(in.Tag)
	if in.Deadline != nil && in.Deadline.IsZero() {
		in.Deadline = nil
	}
	return in, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp turns a loosely formatted date into a time. Unparseable or empty
// input yields nil rather than an error. Bare digit strings such as 20240516
// are not dates.
func ParseTimestamp(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t
		}
	}
	return nil
}

// ParseStoredTimestamp is ParseTimestamp for values read back from a store,
// where a digit string is epoch milliseconds.
func ParseStoredTimestamp(raw string, loc *time.Location) *time.Time {
	raw = strings.TrimSpace(raw)
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ParseTimestamp(raw, loc)
	}
	if ms <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	t := time.UnixMilli(ms).In(loc)
	return &t
}

// StoreError is returned by store adapters when the backend fails.
type StoreError struct {
	Backend string
	Op      string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err unless it already is a not-found sentinel.
func NewStoreError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTaskNotFound) {
		return err
	}
	return &StoreError{Backend: backend, Op: op, Err: err}
}

// IsStoreError reports whether err came from a failing backend.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
