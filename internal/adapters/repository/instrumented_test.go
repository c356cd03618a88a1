package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/a920604a/to-do-list/internal/domain/entities"
)

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestCheckAffected(t *testing.T) {
	if err := checkAffected(fakeResult{rows: 1}, "update"); err != nil {
		t.Errorf("one row: %v", err)
	}
	if err := checkAffected(fakeResult{}, "update"); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Errorf("no rows: %v", err)
	}
	if err := checkAffected(fakeResult{err: errors.New("boom")}, "delete"); !entities.IsStoreError(err) {
		t.Errorf("driver error: %v", err)
	}
}

func TestInstrumentedCountsOperations(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	local, _ := newTestStore(t, "")
	s := NewInstrumented(local, NewStoreMetrics(reg))

	if s.Backend() != BackendLocal {
		t.Errorf("backend = %q", s.Backend())
	}

	id, err := s.Create(ctx, "alice", entities.TaskInput{Title: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(ctx, "alice"); err != nil {
		t.Fatal(err)
	}
	_ = s.Delete(ctx, "alice", id)
	_ = s.Delete(ctx, "alice", id)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "todo_store_operations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "op" || lp.GetName() == "result" {
					key += lp.GetValue() + "/"
				}
			}
			counts[key] = m.GetCounter().GetValue()
		}
	}

	want := map[string]float64{
		"create/ok/":        1,
		"list/ok/":          1,
		"delete/ok/":        1,
		"delete/not_found/": 1,
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("%s = %v, want %v (all: %v)", k, counts[k], v, counts)
		}
	}
}
