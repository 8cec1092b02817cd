package handlers

import (
	"net/http"
	"time"

	"luthier/internal/common"
	"luthier/internal/models"
	"luthier/internal/services"

	"github.com/labstack/echo/v4"
)

type TaskHandlers struct {
	taskService services.TaskService
}

func NewTaskHandlers(taskService services.TaskService) *TaskHandlers {
	return &TaskHandlers{taskService: taskService}
}

// CreateTaskRequest is the maintenance task creation payload.
type CreateTaskRequest struct {
	InstrumentID string     `json:"instrument_id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	Status       string     `json:"status"`
}

func (h *TaskHandlers) CreateTask(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	instrumentID, err := common.ValidateUUID(req.InstrumentID, "instrument ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := common.ValidateRequiredString(req.Title, "title"); err != nil {
		return common.SendValidationError(c, "title", err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	task := &models.MaintenanceTask{
		InstrumentID: instrumentID,
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		Status:       req.Status,
	}
	if err := h.taskService.Create(ctx, tenantID, task); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, task)
}

func (h *TaskHandlers) GetTask(c echo.Context) error {
	ctx := c.Request().Context()

	taskID, err := common.ValidateUUID(c.Param("id"), "task ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	task, err := h.taskService.GetByID(ctx, tenantID, taskID)
	if err != nil {
		return common.SendNotFoundError(c, "task")
	}

	return c.JSON(http.StatusOK, task)
}

// ListTasks lists the tenant's tasks; overdue=true narrows to overdue ones.
func (h *TaskHandlers) ListTasks(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if c.QueryParam("overdue") == "true" {
		tasks, err := h.taskService.ListOverdue(ctx, tenantID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list overdue tasks")
		}
		return c.JSON(http.StatusOK, tasks)
	}

	var req struct {
		Limit  int `query:"limit"`
		Offset int `query:"offset"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}
	limit, offset, err := common.ValidatePaginationParams(req.Limit, req.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tasks, err := h.taskService.List(ctx, tenantID, limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list tasks")
	}

	return c.JSON(http.StatusOK, tasks)
}

// UpdateTaskRequest is the task update payload.
type UpdateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Status      string     `json:"status"`
}

func (h *TaskHandlers) UpdateTask(c echo.Context) error {
	ctx := c.Request().Context()

	taskID, err := common.ValidateUUID(c.Param("id"), "task ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	existing, err := h.taskService.GetByID(ctx, tenantID, taskID)
	if err != nil {
		return common.SendNotFoundError(c, "task")
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.DueDate = req.DueDate
	existing.Status = req.Status
	if err := h.taskService.Update(ctx, tenantID, existing); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, existing)
}

func (h *TaskHandlers) DeleteTask(c echo.Context) error {
	ctx := c.Request().Context()

	taskID, err := common.ValidateUUID(c.Param("id"), "task ID")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	if err := h.taskService.Delete(ctx, tenantID, taskID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete task")
	}

	return c.NoContent(http.StatusNoContent)
}
