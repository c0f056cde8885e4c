package handlers

import (
	"net/http"
	"strconv"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/models/task"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

// taskID отвечает 400 сам, если id в пути не число
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "Invalid task ID")
		return 0, false
	}
	return id, true
}

// listQuery: нечисловые page/limit превращаются в значения по умолчанию в сервисе
func listQuery(r *http.Request) task.ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	return task.ListQuery{
		Filter: task.Filter{
			Search:   q.Get("search"),
			Status:   task.Status(q.Get("status")),
			Category: q.Get("category"),
			Priority: task.Priority(q.Get("priority")),
			View:     task.View(q.Get("view")),
		},
		Sort: task.Sort{
			Column: task.SortColumn(q.Get("sort_by")),
			Order:  task.SortOrder(q.Get("sort_order")),
		},
		Page: task.Page{Number: page, Limit: limit},
	}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CreateTaskRequest
	if !decodeAndValidate(w, r, &request) {
		return
	}

	input, err := request.ToInput()
	if err != nil {
		responseWithError(w, http.StatusBadRequest, "Valid due date is required")
		return
	}

	created, err := h.TaskService.Create(r.Context(), input, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, "Failed to create task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	writeJSON(w, http.StatusCreated, dto.TaskResponse{Message: "Task created successfully", Task: created})
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	res, err := h.TaskService.List(r.Context(), listQuery(r), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, "Failed to fetch tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(res.Tasks)),
		zap.Int("total", res.Pagination.TotalTasks),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, res)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	t, err := h.TaskService.Get(r.Context(), id, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, "Failed to fetch task")
		return
	}

	writeJSON(w, http.StatusOK, dto.TaskResponse{Task: t})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeAndValidate(w, r, &request) {
		return
	}

	patch, err := request.ToPatch()
	if err != nil {
		responseWithError(w, http.StatusBadRequest, "Valid due date is required")
		return
	}

	updated, err := h.TaskService.Update(r.Context(), id, patch, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, "Failed to update task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.TaskResponse{Message: "Task updated successfully", Task: updated})
}

func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	completed, err := h.TaskService.Complete(r.Context(), id, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err, "Failed to mark task as completed")
		return
	}

	logger.Info("HTTP_OUT: Задача завершена", zap.Int64("task_id", id))
	writeJSON(w, http.StatusOK, dto.TaskResponse{Message: "Task marked as completed", Task: completed})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.TaskService.Delete(r.Context(), id, middleware.IdentityFromContext(r.Context())); err != nil {
		handleError(w, r, err, "Failed to delete task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Task deleted successfully"})
}
