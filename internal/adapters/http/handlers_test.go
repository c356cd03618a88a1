package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/a920604a/to-do-list/internal/adapters/repository"
	"github.com/a920604a/to-do-list/internal/application/services"
	"github.com/a920604a/to-do-list/internal/domain/entities"
	"github.com/a920604a/to-do-list/internal/domain/listing"
	"github.com/a920604a/to-do-list/internal/domain/stats"
	"github.com/a920604a/to-do-list/internal/infrastructure/config"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
	"github.com/a920604a/to-do-list/internal/ports"
)

var taipei = time.FixedZone("CST", 8*3600)

var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, taipei)

// brokenStore fails every call the way an unreachable backend does.
type brokenStore struct{}

func (brokenStore) List(context.Context, string) ([]entities.Task, error) {
	return nil, entities.NewStoreError("broken", "list", errors.New("connection refused"))
}

func (brokenStore) Create(context.Context, string, entities.TaskInput) (string, error) {
	return "", entities.NewStoreError("broken", "create", errors.New("connection refused"))
}

func (brokenStore) Update(context.Context, string, entities.Task) error {
	return entities.NewStoreError("broken", "update", errors.New("connection refused"))
}

func (brokenStore) Delete(context.Context, string, string) error {
	return entities.NewStoreError("broken", "delete", errors.New("connection refused"))
}

func newTestEcho(t *testing.T, store ports.TaskStore, owner string) *echo.Echo {
	t.Helper()

	log := logger.NewNop()
	board := config.BoardConfig{Tags: []string{"work", "study", "other"}, FallbackTag: "other", PageSize: 2}
	svc, err := services.NewTaskService(store, board, taipei, log)
	if err != nil {
		t.Fatalf("NewTaskService: %v", err)
	}
	svc.WithClock(func() time.Time { return fixedNow })

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(log)

	tasks := NewTaskHandler(svc, log)
	statsHandler := NewStatsHandler(svc, log)

	v1 := e.Group("/api/v1", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if owner != "" {
				SetOwner(c, owner)
			}
			return next(c)
		}
	})
	v1.GET("/tasks", tasks.ListTasks)
	v1.POST("/tasks", tasks.CreateTask)
	v1.GET("/tasks/completed", tasks.CompletedTasks)
	v1.PUT("/tasks/:id", tasks.UpdateTask)
	v1.PATCH("/tasks/:id/toggle", tasks.ToggleTask)
	v1.DELETE("/tasks/:id", tasks.DeleteTask)
	v1.GET("/stats", statsHandler.GetStats)
	v1.GET("/calendar", statsHandler.GetCalendar)
	v1.GET("/tags", statsHandler.GetTags)
	return e
}

func newLocalEcho(t *testing.T) *echo.Echo {
	t.Helper()
	store, err := repository.NewLocalStore("", repository.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatal(err)
	}
	return newTestEcho(t, store, "alice")
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createTask(t *testing.T, e *echo.Echo, body string) *entities.Task {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/v1/tasks", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	created := decode[ports.CreatedResponse](t, rec)
	if created.ID == "" || created.Task == nil || created.Task.ID != created.ID {
		t.Fatalf("unexpected create response %+v", created)
	}
	return created.Task
}

func TestCreateAndListTasks(t *testing.T) {
	e := newLocalEcho(t)

	createTask(t, e, `{"title":"Write report","tag":"work","deadline":"2024-05-16T18:00"}`)
	createTask(t, e, `{"title":"Read chapter","tag":"study"}`)
	createTask(t, e, `{"title":"Gym","tag":"hobby"}`)

	rec := do(e, http.MethodGet, "/api/v1/tasks?page=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	page := decode[listing.Page](t, rec)
	if page.Total != 3 || page.PageCount != 2 || len(page.Items) != 2 {
		t.Errorf("page = %+v", page)
	}

	rec = do(e, http.MethodGet, "/api/v1/tasks?tag=other", "")
	page = decode[listing.Page](t, rec)
	if len(page.Items) != 1 || page.Items[0].Title != "Gym" {
		t.Errorf("unknown tag should fall back to other, got %+v", page.Items)
	}

	rec = do(e, http.MethodGet, "/api/v1/tasks?sort=deadline&order=asc", "")
	page = decode[listing.Page](t, rec)
	if len(page.Items) == 0 || page.Items[0].Title != "Write report" {
		t.Errorf("deadline ascending should list the dated task first, got %+v", page.Items)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	e := newLocalEcho(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing title", `{"tag":"work"}`, http.StatusBadRequest},
		{"blank title", `{"title":"   "}`, http.StatusBadRequest},
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"ok", `{"title":"Plan"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/v1/tasks", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestListQueryValidation(t *testing.T) {
	e := newLocalEcho(t)

	for _, target := range []string{
		"/api/v1/tasks?sort=priority",
		"/api/v1/tasks?order=sideways",
		"/api/v1/tasks?page_size=1000",
		"/api/v1/stats?range=decade",
		"/api/v1/stats?range=custom&start=15/05/2024",
		"/api/v1/calendar?month=2024-13",
	} {
		if rec := do(e, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestUpdateToggleDelete(t *testing.T) {
	e := newLocalEcho(t)
	task := createTask(t, e, `{"title":"Draft","tag":"work","deadline":"2024-05-16"}`)

	rec := do(e, http.MethodPut, "/api/v1/tasks/"+task.ID, `{"title":"Final","clear_deadline":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[entities.Task](t, rec)
	if updated.Title != "Final" || updated.Deadline != nil || updated.Tag != "work" {
		t.Errorf("updated = %+v", updated)
	}

	rec = do(e, http.MethodPatch, "/api/v1/tasks/"+task.ID+"/toggle", "")
	if toggled := decode[entities.Task](t, rec); !toggled.Complete {
		t.Errorf("toggle should complete the task: %+v", toggled)
	}

	rec = do(e, http.MethodGet, "/api/v1/tasks/completed", "")
	if page := decode[listing.Page](t, rec); page.Total != 1 {
		t.Errorf("completed total = %d, want 1", page.Total)
	}

	if rec = do(e, http.MethodDelete, "/api/v1/tasks/"+task.ID, ""); rec.Code != http.StatusOK {
		t.Errorf("delete: %d", rec.Code)
	}
	if rec = do(e, http.MethodDelete, "/api/v1/tasks/"+task.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: %d, want 404", rec.Code)
	}
	if rec = do(e, http.MethodPatch, "/api/v1/tasks/missing/toggle", ""); rec.Code != http.StatusNotFound {
		t.Errorf("toggle missing: %d, want 404", rec.Code)
	}
}

func TestStatsCalendarAndTags(t *testing.T) {
	e := newLocalEcho(t)
	createTask(t, e, `{"title":"Report","tag":"work","deadline":"2024-05-16T18:00"}`)
	createTask(t, e, `{"title":"Essay","tag":"study","deadline":"2024-05-20T09:00"}`)

	rec := do(e, http.MethodGet, "/api/v1/stats?range=week", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: %d %s", rec.Code, rec.Body.String())
	}
	s := decode[stats.Stats](t, rec)
	if s.Total != 1 || len(s.Trend) != 7 || len(s.SoonDue) != 1 {
		t.Errorf("week stats = total %d, trend %d, soon %d", s.Total, len(s.Trend), len(s.SoonDue))
	}

	rec = do(e, http.MethodGet, "/api/v1/stats?range=custom&start=2024-05-01&end=2024-05-31", "")
	if s = decode[stats.Stats](t, rec); s.Total != 2 {
		t.Errorf("custom stats total = %d, want 2", s.Total)
	}

	rec = do(e, http.MethodGet, "/api/v1/calendar?month=2024-05", "")
	days := decode[[]stats.CalendarDay](t, rec)
	if len(days) != 2 || days[0].Date != "2024-05-16" {
		t.Errorf("calendar = %+v", days)
	}

	rec = do(e, http.MethodGet, "/api/v1/tags", "")
	tags := decode[ports.TagsResponse](t, rec)
	if len(tags.Tags) != 3 || tags.Fallback != "other" {
		t.Errorf("tags = %+v", tags)
	}
}

func TestMissingOwnerIsUnauthorized(t *testing.T) {
	store, _ := repository.NewLocalStore("")
	e := newTestEcho(t, store, "")

	if rec := do(e, http.MethodGet, "/api/v1/tasks", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestStoreFailureIsServiceUnavailable(t *testing.T) {
	e := newTestEcho(t, brokenStore{}, "alice")

	rec := do(e, http.MethodGet, "/api/v1/tasks", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	body := decode[ports.ErrorResponse](t, rec)
	if body.Details["backend"] != "broken" {
		t.Errorf("details = %v", body.Details)
	}

	if rec = do(e, http.MethodPost, "/api/v1/tasks", `{"title":"x"}`); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("create status = %d, want 503", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found wrapped", errors.Join(errors.New("ctx"), entities.ErrTaskNotFound), http.StatusNotFound},
		{"invalid month", entities.ErrInvalidMonth, http.StatusBadRequest},
		{"page size", entities.ErrInvalidPageSize, http.StatusBadRequest},
		{"echo error", echo.NewHTTPError(http.StatusTeapot, "tea"), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := statusFor(tt.err); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
