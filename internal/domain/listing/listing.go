// Package listing derives the paged task list shown in the list view.
package listing

import (
	"slices"
	"strings"
	"time"

	"github.com/a920604a/to-do-list/internal/domain/entities"
)

// AllTags disables the tag filter.
const AllTags = "all"

// DefaultPageSize is the number of tasks per page when none is configured.
const DefaultPageSize = 5

// SortKey selects the timestamp the list is ordered by.
type SortKey string

const (
	SortCreatedAt SortKey = "created_at"
	SortUpdatedAt SortKey = "updated_at"
	SortDeadline  SortKey = "deadline"
)

// ParseSortKey maps raw input to a SortKey, defaulting to created_at.
func ParseSortKey(raw string) SortKey {
	switch SortKey(raw) {
	case SortUpdatedAt, SortDeadline:
		return SortKey(raw)
	default:
		return SortCreatedAt
	}
}

// Query holds the list view filters and ordering.
type Query struct {
	Tag       string  `json:"tag"`
	Search    string  `json:"search"`
	SortKey   SortKey `json:"sort_key"`
	Ascending bool    `json:"ascending"`
}

// Page is one bounded slice of the filtered and sorted list.
type Page struct {
	Items      []entities.Task `json:"items"`
	PageNumber int             `json:"page"`
	PageCount  int             `json:"page_count"`
	PageSize   int             `json:"page_size"`
	Total      int             `json:"total"`
}

// Next returns the following page number, staying on the last page.
func (p Page) Next() int {
	return ClampPage(p.PageNumber+1, p.PageCount)
}

// Prev returns the preceding page number, staying on the first page.
func (p Page) Prev() int {
	return ClampPage(p.PageNumber-1, p.PageCount)
}

// ClampPage bounds page to [1, pageCount].
func ClampPage(page, pageCount int) int {
	if pageCount < 1 {
		pageCount = 1
	}
	return min(max(page, 1), pageCount)
}

// PageCount returns max(1, ceil(n/pageSize)).
func PageCount(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

// FilterSortPaginate filters out completed tasks and those failing the tag or
// search filter, orders the rest and returns the requested page. The input
// slice is not modified.
func FilterSortPaginate(tasks []entities.Task, q Query, page, pageSize int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, entities.ErrInvalidPageSize
	}
	filtered := Filter(tasks, q)
	Sort(filtered, q.SortKey, q.Ascending)
	return Paginate(filtered, page, pageSize), nil
}

// Filter keeps incomplete tasks matching the tag and search term.
func Filter(tasks []entities.Task, q Query) []entities.Task {
	term := strings.TrimSpace(q.Search)
	out := make([]entities.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Complete {
			continue
		}
		if q.Tag != "" && q.Tag != AllTags && t.Tag != q.Tag {
			continue
		}
		if !t.Matches(term) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Sort orders tasks in place by key. A missing date sorts after every present
// one in ascending order; ties fall back to the id. Descending order is the
// exact reverse of ascending.
func Sort(tasks []entities.Task, key SortKey, ascending bool) {
	key = ParseSortKey(string(key))
	slices.SortFunc(tasks, func(a, b entities.Task) int {
		c := compareDates(sortValue(&a, key), sortValue(&b, key))
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if !ascending {
			c = -c
		}
		return c
	})
}

// Paginate slices an already ordered list.
func Paginate(tasks []entities.Task, page, pageSize int) Page {
	count := PageCount(len(tasks), pageSize)
	page = ClampPage(page, count)

	begin := min((page-1)*pageSize, len(tasks))
	end := min(begin+pageSize, len(tasks))

	items := make([]entities.Task, end-begin)
	copy(items, tasks[begin:end])

	return Page{
		Items:      items,
		PageNumber: page,
		PageCount:  count,
		PageSize:   pageSize,
		Total:      len(tasks),
	}
}

// CompletedHistory lists completed tasks, most recently updated first.
func CompletedHistory(tasks []entities.Task, page, pageSize int) (Page, error) {
	if pageSize <= 0 {
		return Page{}, entities.ErrInvalidPageSize
	}
	done := make([]entities.Task, 0)
	for _, t := range tasks {
		if t.Complete {
			done = append(done, t)
		}
	}
	Sort(done, SortUpdatedAt, false)
	return Paginate(done, page, pageSize), nil
}

func sortValue(t *entities.Task, key SortKey) *time.Time {
	switch key {
	case SortUpdatedAt:
		return &t.UpdatedAt
	case SortDeadline:
		return t.Deadline
	default:
		return &t.CreatedAt
	}
}

// compareDates treats nil and zero times as the greatest value.
func compareDates(a, b *time.Time) int {
	aMissing := a == nil || a.IsZero()
	bMissing := b == nil || b.IsZero()
	switch {
	case aMissing && bMissing:
		return 0
	case aMissing:
		return 1
	case bMissing:
		return -1
	default:
		return a.Compare(*b)
	}
}
