package repository

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/ports"
)

// StoreMetrics holds the prometheus collectors for store calls
type StoreMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewStoreMetrics creates and registers the store collectors
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "todo_store_operations_total",
				Help: "Total number of task store operations",
			},
			[]string{"backend", "op", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "todo_store_operation_duration_seconds",
				Help:    "Task store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"backend", "op"},
		),
	}
	reg.MustRegister(m.operations, m.duration)
	return m
}

func (m *StoreMetrics) observe(backend, op string, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, entities.ErrTaskNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	m.operations.WithLabelValues(backend, op, result).Inc()
	m.duration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}

// Instrumented decorates a TaskStore with operation metrics
type Instrumented struct {
	next    ports.TaskStore
	backend string
	metrics *StoreMetrics
}

// NewInstrumented wraps next. The backend label is taken from next when it
// reports one.
func NewInstrumented(next ports.TaskStore, metrics *StoreMetrics) *Instrumented {
	backend := "unknown"
	if info, ok := next.(ports.StoreInfo); ok {
		backend = info.Backend()
	}
	return &Instrumented{next: next, backend: backend, metrics: metrics}
}

var (
	_ ports.TaskStore     = (*Instrumented)(nil)
	_ ports.HealthChecker = (*Instrumented)(nil)
)

func (s *Instrumented) Backend() string { return s.backend }

// Ping forwards to the wrapped store when it supports health checks
func (s *Instrumented) Ping(ctx context.Context) error {
	hc, ok := s.next.(ports.HealthChecker)
	if !ok {
		return nil
	}
	start := time.Now()
	err := hc.Ping(ctx)
	s.metrics.observe(s.backend, "ping", start, err)
	return err
}

func (s *Instrumented) List(ctx context.Context, ownerID string) ([]entities.Task, error) {
	start := time.Now()
	tasks, err := s.next.List(ctx, ownerID)
	s.metrics.observe(s.backend, "list", start, err)
	return tasks, err
}

func (s *Instrumented) Create(ctx context.Context, ownerID string, input entities.TaskInput) (string, error) {
	start := time.Now()
	id, err := s.next.Create(ctx, ownerID, input)
	s.metrics.observe(s.backend, "create", start, err)
	return id, err
}

func (s *Instrumented) Update(ctx context.Context, ownerID string, task entities.Task) error {
	start := time.Now()
	err := s.next.Update(ctx, ownerID, task)
	s.metrics.observe(s.backend, "update", start, err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, ownerID, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, ownerID, id)
	s.metrics.observe(s.backend, "delete", start, err)
	return err
}
