package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "studiora/backend/internal/errors"
	"studiora/backend/internal/model"
	"studiora/backend/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
}

type createTaskRequest struct {
	Title    string         `json:"title"`
	DueDate  *string        `json:"dueDate"`
	Priority model.Priority `json:"priority"`
	Category string         `json:"category"`
}

// updateTaskRequest treats an empty dueDate as a request to clear it.
type updateTaskRequest struct {
	Title     *string         `json:"title"`
	Completed *bool           `json:"completed"`
	DueDate   *string         `json:"dueDate"`
	Priority  *model.Priority `json:"priority"`
	Category  *string         `json:"category"`
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	filter := service.TaskFilter{
		Category: c.Query("category"),
		Priority: model.Priority(c.Query("priority")),
	}
	if raw := c.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, apperrors.Validation("completed", "completed must be true or false"))
			return
		}
		filter.Completed = &completed
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(c, apperrors.Validation("limit", "limit must be a non-negative integer"))
			return
		}
		filter.Limit = limit
	}

	tasks, apiErr := h.taskService.List(c.Request.Context(), userID, filter)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) Summary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	summary, apiErr := h.taskService.Summary(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if !bindJSON(c, &req, false) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	input := service.TaskInput{
		Title:    req.Title,
		Priority: req.Priority,
		Category: req.Category,
	}
	if req.DueDate != nil && *req.DueDate != "" {
		due, err := model.ParseDate(*req.DueDate)
		if err != nil {
			writeError(c, apperrors.Validation("dueDate", "dueDate must be formatted as YYYY-MM-DD"))
			return
		}
		input.DueDate = &due
	}

	change, apiErr := h.taskService.Add(c.Request.Context(), userID, input)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": change.Value, "synced": change.Synced})
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if !bindJSON(c, &req, false) {
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	patch := service.TaskPatch{
		Title:     req.Title,
		Completed: req.Completed,
		Priority:  req.Priority,
		Category:  req.Category,
	}
	if req.DueDate != nil {
		if *req.DueDate == "" {
			patch.ClearDueDate = true
		} else {
			due, err := model.ParseDate(*req.DueDate)
			if err != nil {
				writeError(c, apperrors.Validation("dueDate", "dueDate must be formatted as YYYY-MM-DD"))
				return
			}
			patch.DueDate = &due
		}
	}

	change, apiErr := h.taskService.Update(c.Request.Context(), userID, c.Param("id"), patch)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": change.Value, "synced": change.Synced})
}

func (h *TaskHandler) Toggle(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	change, apiErr := h.taskService.ToggleCompletion(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": change.Value, "synced": change.Synced})
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	change, apiErr := h.taskService.Delete(c.Request.Context(), userID, c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": change.Value, "synced": change.Synced})
}
