package services

import (
	"context"
	"testing"

	"github.com/a920604a/to-do-list/internal/domain/listing"
	"github.com/a920604a/to-do-list/internal/domain/period"
	"github.com/a920604a/to-do-list/internal/ports"
)

func newTestBoard(t *testing.T, n int) (*Board, *memoryStore) {
	t.Helper()
	svc, store := newTestService(t)
	b := NewBoard(svc, "alice")
	for i := 0; i < n; i++ {
		tag := "work"
		if i%2 == 1 {
			tag = "study"
		}
		if _, err := b.Create(context.Background(), createRequest("task", tag, "2024-05-17")); err != nil {
			t.Fatal(err)
		}
	}
	return b, store
}

func TestBoardPaging(t *testing.T) {
	b, _ := newTestBoard(t, 12)

	if p := b.Page(); p.PageNumber != 1 || p.PageCount != 3 {
		t.Fatalf("page = %d/%d", p.PageNumber, p.PageCount)
	}
	b.Next()
	b.Next()
	b.Next()
	if got := b.State().Page; got != 3 {
		t.Errorf("next should stop at last page, got %d", got)
	}
	b.Prev()
	if got := b.State().Page; got != 2 {
		t.Errorf("prev = %d", got)
	}
	b.GoTo(99)
	if got := b.State().Page; got != 3 {
		t.Errorf("GoTo should clamp, got %d", got)
	}
}

func TestBoardFilterChangesResetPage(t *testing.T) {
	b, _ := newTestBoard(t, 12)

	changes := []struct {
		name  string
		apply func()
	}{
		{"tag", func() { b.SetTag("work") }},
		{"search", func() { b.SetSearch("task") }},
		{"sort", func() { b.SetSort(listing.SortDeadline, true) }},
		{"page size", func() { b.SetPageSize(2) }},
	}
	for _, c := range changes {
		b.GoTo(2)
		c.apply()
		if got := b.State().Page; got != 1 {
			t.Errorf("%s change left page at %d", c.name, got)
		}
	}

	b.SetTag("study")
	if p := b.Page(); p.Total != 6 {
		t.Errorf("study filter total = %d", p.Total)
	}
}

func TestBoardKeepsSnapshotOnFailure(t *testing.T) {
	ctx := context.Background()
	b, store := newTestBoard(t, 3)
	first := b.Tasks()[0]

	store.setFail(errBackendDown)

	if err := b.Refresh(ctx); err == nil {
		t.Error("expected refresh error")
	}
	if _, err := b.Create(ctx, createRequest("new", "work", "")); err == nil {
		t.Error("expected create error")
	}
	if _, err := b.Toggle(ctx, first.ID); err == nil {
		t.Error("expected toggle error")
	}
	if err := b.Delete(ctx, first.ID); err == nil {
		t.Error("expected delete error")
	}

	if got := len(b.Tasks()); got != 3 {
		t.Errorf("snapshot has %d tasks after failures, want 3", got)
	}
	if p := b.Page(); p.Total != 3 {
		t.Errorf("page total = %d", p.Total)
	}

	store.setFail(nil)
	if _, err := b.Toggle(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if p := b.Page(); p.Total != 2 {
		t.Errorf("toggled task still listed: total %d", p.Total)
	}
}

func TestBoardUpdateRefreshes(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBoard(t, 1)
	id := b.Tasks()[0].ID

	if _, err := b.Update(ctx, id, ports.UpdateTaskRequest{Title: ptr("renamed")}); err != nil {
		t.Fatal(err)
	}
	if got := b.Tasks()[0].Title; got != "renamed" {
		t.Errorf("title = %q", got)
	}
}

func TestBoardStats(t *testing.T) {
	b, _ := newTestBoard(t, 4)

	s := b.Stats()
	if s.Total != 4 || len(s.Trend) != 7 {
		t.Errorf("week stats total %d trend %d", s.Total, len(s.Trend))
	}

	b.SetRange(period.Custom, "2024-05-18", "2024-05-20")
	if s := b.Stats(); s.Total != 0 || len(s.Trend) != 3 {
		t.Errorf("custom stats total %d trend %d", s.Total, len(s.Trend))
	}

	b.SetRange(period.Today, "2024-01-01", "2024-01-02")
	if st := b.State(); st.CustomStart != "" || st.CustomEnd != "" {
		t.Errorf("custom bounds kept for non-custom range: %+v", st)
	}

	b.SetScope("created")
	if s := b.Stats(); s.Total != 4 {
		t.Errorf("created scope total = %d", s.Total)
	}
}

func TestBoardEmpty(t *testing.T) {
	b, _ := newTestBoard(t, 0)
	p := b.Page()
	if p.PageNumber != 1 || p.PageCount != 1 || len(p.Items) != 0 {
		t.Errorf("empty page = %+v", p)
	}
	b.Next()
	b.Prev()
	if b.State().Page != 1 {
		t.Errorf("page = %d", b.State().Page)
	}
}
