package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/a920604a/to-do-list/internal/infrastructure/logger"
	"github.com/a920604a/to-do-list/internal/ports"
)

// StatsHandler serves the statistics, calendar and tag views
type StatsHandler struct {
	tasks  ports.TaskService
	logger *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(tasks ports.TaskService, logger *logger.Logger) *StatsHandler {
	return &StatsHandler{
		tasks:  tasks,
		logger: logger.WithComponent("stats_handler"),
	}
}

// GetStats godoc
// @Summary Task statistics
// @Description Counts, completion rate, categories, due lists and trend for a range
// @Tags stats
// @Produce json
// @Param range query string false "today, week, month, quarter, year or custom"
// @Param start query string false "Custom range start (YYYY-MM-DD)"
// @Param end query string false "Custom range end (YYYY-MM-DD)"
// @Param scope query string false "deadline or created"
// @Success 200 {object} stats.Stats
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /stats [get]
func (h *StatsHandler) GetStats(c echo.Context) error {
	ownerID, err := requireOwner(c)
	if err != nil {
		return err
	}

	var req ports.StatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.tasks.Stats(c.Request().Context(), ownerID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// GetCalendar godoc
// @Summary Deadlines by day
// @Tags stats
// @Produce json
// @Param month query string false "Month (YYYY-MM), defaults to the current month"
// @Success 200 {array} stats.CalendarDay
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /calendar [get]
func (h *StatsHandler) GetCalendar(c echo.Context) error {
	ownerID, err := requireOwner(c)
	if err != nil {
		return err
	}

	var req ports.CalendarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	days, err := h.tasks.Calendar(c.Request().Context(), ownerID, req.Month)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, days)
}

// GetTags godoc
// @Summary Configured tags
// @Tags stats
// @Produce json
// @Success 200 {object} ports.TagsResponse
// @Security BearerAuth
// @Router /tags [get]
func (h *StatsHandler) GetTags(c echo.Context) error {
	categories := h.tasks.Categories()
	return c.JSON(http.StatusOK, ports.TagsResponse{
		Tags:     categories.Tags,
		Fallback: categories.Fallback,
	})
}
