package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/a920604a/to-do-list/internal/domain/listing"
	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
	"github.com/a920604a/to-do-list/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	tasks  ports.TaskService
	logger *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.WithComponent("task_handler"),
	}
}

// ListTasks godoc
// @Summary List active tasks
// @Description Filter, sort and paginate the owner's incomplete tasks
// @Tags tasks
// @Produce json
// @Param tag query string false "Tag filter, 'all' for every tag"
// @Param q query string false "Case-insensitive search in title and content"
// @Param sort query string false "created_at, updated_at or deadline"
// @Param order query string false "asc or desc"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} listing.Page
// @Failure 400 {object} ports.ErrorResponse
// @Failure 401 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	ownerID, err := requireOwner(c)
	if err != nil {
		return err
	}

	var req ports.ListRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	query := listing.Query{
		Tag:       req.Tag,
		Search:    req.Search,
		SortKey:   listing.ParseSortKey(req.Sort),
		Ascending: req.Order == "asc",
	}
	page, err := h.tasks.View(c.Request().Context(), ownerID, query, req.Page, req.PageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// CompletedTasks godoc
// @Summary List completed tasks
// @Description Completed tasks, most recently updated first
// @Tags tasks
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} listing.Page
// @Security BearerAuth
// @Router /tasks/completed [get]
func (h *TaskHandler) CompletedTasks(c echo.Context) error {
	ownerID, err := requireOwner(c)
	if err != nil {
		return err
	}

	var req ports.ListRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	page, err := h.tasks.Completed(c.Request().Context(), ownerID, req.Page, req.PageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} ports.CreatedResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 503 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	ownerID, err := requireOwner(c)
	if err != nil {
		return err
	}

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.Request().Context(), ownerID, req)
	if err != nil {
		h.logger.Warnw("Create task failed", "error", err, "owner_id", ownerID)
		return err
	}

	return c.JSON(http.StatusCreated, ports.CreatedResponse{ID: task.ID, Task: task})
}

// UpdateTask godoc
// @Summary Update a task
// @Description Patch a task; omitted fields keep their value
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	ownerID, err := requireOwner(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.tasks.Update(c.Request().Context(), ownerID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// ToggleTask godoc
// @Summary Toggle completion
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} entities.Task
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id}/toggle [patch]
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	ownerID, err := requireOwner(c)
	if err != nil {
		return err
	}

	task, err := h.tasks.Toggle(c.Request().Context(), ownerID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	ownerID, err := requireOwner(c)
	if err != nil {
		return err
	}

	if err := h.tasks.Delete(c.Request().Context(), ownerID, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task deleted"})
}

// TokenHandler issues owner tokens. It is only routed outside production.
type TokenHandler struct {
	auth   ports.AuthService
	logger *logger.Logger
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(auth ports.AuthService, logger *logger.Logger) *TokenHandler {
	return &TokenHandler{
		auth:   auth,
		logger: logger,
	}
}

// IssueToken godoc
// @Summary Issue an owner token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.TokenRequest true "Owner"
// @Success 200 {object} ports.TokenResponse
// @Failure 400 {object} ports.ErrorResponse
// @Router /auth/token [post]
func (h *TokenHandler) IssueToken(c echo.Context) error {
	var req ports.TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.auth.IssueToken(req.OwnerID)
	if err != nil {
		h.logger.Error("Issue token failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, token)
}
