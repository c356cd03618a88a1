// Package stats aggregates a task collection into the figures shown on the
// statistics and calendar views. Nothing here fails or reads the clock.
package stats

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/domain/period"
)

// Scope selects which timestamp places a task inside the statistics range.
type Scope string

const (
	ScopeDeadline Scope = "deadline"
	ScopeCreated  Scope = "created"
)

// ParseScope maps raw input to a Scope, defaulting to deadline.
func ParseScope(raw string) Scope {
	if Scope(raw) == ScopeCreated {
		return ScopeCreated
	}
	return ScopeDeadline
}

// DefaultSoonWindow is how far ahead a deadline counts as soon due.
const DefaultSoonWindow = 72 * time.Hour

// PointLayout formats trend and distribution labels as month/day.
const PointLayout = "1/2"

type Options struct {
	Scope      Scope
	SoonWindow time.Duration
}

type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DueTask pairs a task with the whole days left until its deadline, rounded
// up. Overdue tasks carry zero or a negative count.
type DueTask struct {
	Task entities.Task `json:"task"`
	Days int           `json:"days"`
}

type TrendPoint struct {
	Date  string    `json:"date"`
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

type DeadlineCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats is the full statistics snapshot for one range.
type Stats struct {
	Range                period.Range    `json:"range"`
	RangeSet             bool            `json:"range_set"`
	Scope                Scope           `json:"scope"`
	Total                int             `json:"total"`
	Completed            int             `json:"completed"`
	Alerts               int             `json:"alerts"`
	CompletionRate       float64         `json:"completion_rate"`
	Categories           []CategoryCount `json:"categories"`
	SoonDue              []DueTask       `json:"soon_due"`
	Overdue              []DueTask       `json:"overdue"`
	Trend                []TrendPoint    `json:"trend"`
	DeadlineDistribution []DeadlineCount `json:"deadline_distribution"`
	CompletedTasks       []entities.Task `json:"completed_tasks"`
}

// Compute derives statistics for the tasks in scope. When set is false the
// range is ignored, every task is in scope and the trend covers today only.
func Compute(tasks []entities.Task, tags []string, rng period.Range, set bool, now time.Time, opts Options) Stats {
	if opts.Scope == "" {
		opts.Scope = ScopeDeadline
	}
	if opts.SoonWindow <= 0 {
		opts.SoonWindow = DefaultSoonWindow
	}

	scoped := InScope(tasks, rng, set, opts.Scope)

	s := Stats{
		Range:                rng,
		RangeSet:             set,
		Scope:                opts.Scope,
		Total:                len(scoped),
		Categories:           make([]CategoryCount, 0, len(tags)),
		SoonDue:              make([]DueTask, 0),
		Overdue:              make([]DueTask, 0),
		DeadlineDistribution: make([]DeadlineCount, 0),
		CompletedTasks:       make([]entities.Task, 0),
	}

	perTag := make(map[string]int, len(tags))
	soonLimit := now.Add(opts.SoonWindow)
	for _, t := range scoped {
		perTag[t.Tag]++
		if t.Alert {
			s.Alerts++
		}
		if t.Complete {
			s.Completed++
			s.CompletedTasks = append(s.CompletedTasks, t)
			continue
		}
		if !t.HasDeadline() {
			continue
		}
		switch {
		case t.IsOverdue(now):
			s.Overdue = append(s.Overdue, DueTask{Task: t, Days: daysUntil(*t.Deadline, now)})
		case !t.Deadline.After(soonLimit):
			s.SoonDue = append(s.SoonDue, DueTask{Task: t, Days: daysUntil(*t.Deadline, now)})
		}
	}

	for _, tag := range tags {
		s.Categories = append(s.Categories, CategoryCount{Name: tag, Value: perTag[tag]})
	}
	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total)
	}

	slices.SortFunc(s.SoonDue, func(a, b DueTask) int {
		if a.Days != b.Days {
			return a.Days - b.Days
		}
		return compareDeadline(a.Task, b.Task)
	})
	slices.SortFunc(s.Overdue, func(a, b DueTask) int {
		return compareDeadline(a.Task, b.Task)
	})
	slices.SortFunc(s.CompletedTasks, func(a, b entities.Task) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	s.Trend = Trend(scoped, trendRange(rng, set, now), now.Location())
	s.DeadlineDistribution = DeadlineDistribution(scoped, now.Location())
	return s
}

// InScope returns the tasks whose scope timestamp lies in rng. Under the
// deadline scope a task without a deadline is never in a set range.
func InScope(tasks []entities.Task, rng period.Range, set bool, scope Scope) []entities.Task {
	out := make([]entities.Task, 0, len(tasks))
	for _, t := range tasks {
		if !set {
			out = append(out, t)
			continue
		}
		switch scope {
		case ScopeCreated:
			if rng.Contains(t.CreatedAt) {
				out = append(out, t)
			}
		default:
			if t.HasDeadline() && rng.Contains(*t.Deadline) {
				out = append(out, t)
			}
		}
	}
	return out
}

// Trend counts tasks created on each calendar day of rng, matched by date in
// loc. Days without tasks still get a zero point.
func Trend(tasks []entities.Task, rng period.Range, loc *time.Location) []TrendPoint {
	created := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if t.CreatedAt.IsZero() {
			continue
		}
		created[t.CreatedAt.In(loc).Format(period.DateLayout)]++
	}

	points := make([]TrendPoint, 0)
	for day := range rng.Days() {
		points = append(points, TrendPoint{
			Date:  day.Format(PointLayout),
			Day:   day,
			Count: created[day.Format(period.DateLayout)],
		})
	}
	return points
}

// DeadlineDistribution counts tasks per formatted deadline date, ordered by
// the earliest deadline carrying each label.
func DeadlineDistribution(tasks []entities.Task, loc *time.Location) []DeadlineCount {
	type bucket struct {
		first time.Time
		count int
	}
	buckets := make(map[string]*bucket)
	for _, t := range tasks {
		if !t.HasDeadline() {
			continue
		}
		label := t.Deadline.In(loc).Format(PointLayout)
		b, ok := buckets[label]
		if !ok {
			buckets[label] = &bucket{first: *t.Deadline, count: 1}
			continue
		}
		b.count++
		if t.Deadline.Before(b.first) {
			b.first = *t.Deadline
		}
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if c := buckets[a].first.Compare(buckets[b].first); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	out := make([]DeadlineCount, 0, len(labels))
	for _, label := range labels {
		out = append(out, DeadlineCount{Date: label, Count: buckets[label].count})
	}
	return out
}

// CalendarDay lists the tasks due on one day.
type CalendarDay struct {
	Date  string          `json:"date"`
	Tasks []entities.Task `json:"tasks"`
}

// Calendar groups tasks by deadline day within rng. Days without a deadline
// are omitted; completed tasks are kept.
func Calendar(tasks []entities.Task, rng period.Range) []CalendarDay {
	loc := rng.Start.Location()
	due := make(map[string][]entities.Task)
	for _, t := range tasks {
		if !t.HasDeadline() || !rng.Contains(*t.Deadline) {
			continue
		}
		key := t.Deadline.In(loc).Format(period.DateLayout)
		due[key] = append(due[key], t)
	}

	days := make([]CalendarDay, 0, len(due))
	for day := range rng.Days() {
		key := day.Format(period.DateLayout)
		list, ok := due[key]
		if !ok {
			continue
		}
		slices.SortFunc(list, compareDeadline)
		days = append(days, CalendarDay{Date: key, Tasks: list})
	}
	return days
}

func trendRange(rng period.Range, set bool, now time.Time) period.Range {
	if set {
		return rng
	}
	return period.Range{Start: period.StartOfDay(now), End: period.EndOfDay(now)}
}

func daysUntil(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

func compareDeadline(a, b entities.Task) int {
	if c := a.Deadline.Compare(*b.Deadline); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
