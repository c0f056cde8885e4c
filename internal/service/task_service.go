package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/policy"
	rep "taskManager/internal/repository"
	"time"

	"go.uber.org/zap"
)

const (
	msgTaskNotFound     = "Task not found"
	msgAssigneeNotFound = "Assigned user not found"
	msgAssignForbidden  = "Only admins can assign tasks to others"
)

type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Category    string
	Status      task.Status
	Priority    task.Priority
	AssignedTo  *int64
}

type TaskService struct {
	tasks TaskRepository
	users UserRepository
	now   func() time.Time
}

func NewTaskService(tasks TaskRepository, users UserRepository) *TaskService {
	return &TaskService{
		tasks: tasks,
		users: users,
		now:   time.Now,
	}
}

func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

func requireActor(actor *user.Identity) error {
	if actor == nil {
		return NewUnauthorized("Authentication required")
	}
	return nil
}

func (s *TaskService) Create(ctx context.Context, in CreateTaskInput, actor *user.Identity) (*task.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)

	if in.Title == "" {
		return nil, NewValidationError("title", "Title is required")
	}
	if in.DueDate.IsZero() {
		return nil, NewValidationError("due_date", "Valid due date is required")
	}
	if in.Category == "" {
		return nil, NewValidationError("category", "Category is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, NewValidationError("status", "Invalid status")
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, NewValidationError("priority", "Invalid priority")
	}

	opts := []task.TaskOption{
		task.WithDescription(in.Description),
		task.WithStatus(in.Status),
		task.WithPriority(in.Priority),
	}

	if in.AssignedTo != nil && *in.AssignedTo != actor.ID {
		if err := s.checkAssignee(ctx, actor, *in.AssignedTo); err != nil {
			return nil, err
		}
		opts = append(opts, task.WithAssignee(*in.AssignedTo))
	}

	t := task.New(in.Title, in.DueDate, in.Category, actor.ID, opts...)
	if err := s.tasks.CreateTask(ctx, t); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(msgAssigneeNotFound)
		}
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Создана задача", zap.Int64("task_id", t.ID), zap.Int64("actor_id", actor.ID))
	return s.tasks.GetTask(ctx, t.ID)
}

// checkAssignee: чужого исполнителя назначает только админ, и он должен существовать
func (s *TaskService) checkAssignee(ctx context.Context, actor *user.Identity, assigneeID int64) error {
	if !policy.CanAssign(actor, assigneeID) {
		return NewForbidden(msgAssignForbidden)
	}
	if _, err := s.users.GetUserByID(ctx, assigneeID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(msgAssigneeNotFound)
		}
		return fmt.Errorf("проверка исполнителя: %w", err)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context, q task.ListQuery, actor *user.Identity) (*task.ListResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	q.Filter.AssignedTo = policy.Scope(actor)
	q.Filter.View = task.ParseView(string(q.Filter.View))
	q.Filter.Search = strings.TrimSpace(q.Filter.Search)
	q.Sort = task.NewSort(string(q.Sort.Column), string(q.Sort.Order))
	q.Page = task.NewPage(q.Page.Number, q.Page.Limit)

	tasks, total, err := s.tasks.ListTasks(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return task.NewListResult(tasks, total, q.Page), nil
}

// visible отдаёт задачу, только если actor может выполнить над ней action;
// отсутствующая и чужая задачи неразличимы
func (s *TaskService) visible(ctx context.Context, id int64, actor *user.Identity, action policy.Action) (*task.Task, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	t, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(msgTaskNotFound)
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	if !policy.Can(actor, t, action) {
		logger.Info("Service: Доступ к задаче запрещён", zap.Int64("task_id", id), zap.Int64("actor_id", actor.ID))
		return nil, NewNotFound(msgTaskNotFound)
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id int64, actor *user.Identity) (*task.Task, error) {
	return s.visible(ctx, id, actor, policy.ActionView)
}

func (s *TaskService) Update(ctx context.Context, id int64, patch task.Patch, actor *user.Identity) (*task.Task, error) {
	current, err := s.visible(ctx, id, actor, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if patch.Empty() {
		return nil, NewValidationError("body", "No fields to update")
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.AssignedTo != nil && *patch.AssignedTo != current.AssignedTo {
		if err := s.checkAssignee(ctx, actor, *patch.AssignedTo); err != nil {
			return nil, err
		}
	}

	// просрочку ставит воркер; перенос срока в будущее её снимает
	if patch.Status == nil && patch.DueDate != nil &&
		current.Status == task.StatusOverdue && patch.DueDate.After(s.now()) {
		pending := task.StatusPending
		patch.Status = &pending
	}

	updated, err := s.tasks.UpdateTask(ctx, id, patch)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(msgTaskNotFound)
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return updated, nil
}

func validatePatch(p task.Patch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return NewValidationError("title", "Title cannot be empty")
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return NewValidationError("category", "Category cannot be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		return NewValidationError("status", "Invalid status")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return NewValidationError("priority", "Invalid priority")
	}
	return nil
}

func (s *TaskService) Delete(ctx context.Context, id int64, actor *user.Identity) error {
	if _, err := s.visible(ctx, id, actor, policy.ActionDelete); err != nil {
		return err
	}

	if err := s.tasks.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound(msgTaskNotFound)
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Удалена задача", zap.Int64("task_id", id), zap.Int64("actor_id", actor.ID))
	return nil
}

// Complete всегда перештамповывает completed_at, даже у уже завершённой задачи
func (s *TaskService) Complete(ctx context.Context, id int64, actor *user.Identity) (*task.Task, error) {
	if _, err := s.visible(ctx, id, actor, policy.ActionComplete); err != nil {
		return nil, err
	}

	status := task.StatusCompleted
	completedAt := s.now()
	updated, err := s.tasks.UpdateTask(ctx, id, task.Patch{Status: &status, CompletedAt: &completedAt})
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound(msgTaskNotFound)
		}
		return nil, fmt.Errorf("завершение задачи: %w", err)
	}
	return updated, nil
}
