package task

import (
	"time"
)

type TaskOption func(*Task)

// New собирает задачу со значениями по умолчанию: pending, medium
func New(title string, dueDate time.Time, category string, createdBy int64, opts ...TaskOption) *Task {
	t := &Task{
		Title:      title,
		DueDate:    dueDate,
		Category:   category,
		Status:     StatusPending,
		Priority:   PriorityMedium,
		CreatedBy:  createdBy,
		AssignedTo: createdBy,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func WithDescription(description string) TaskOption {
	if description == "" {
		return nil
	}
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if status == "" {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if priority == "" {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithAssignee(userID int64) TaskOption {
	if userID == 0 {
		return nil
	}
	return func(task *Task) {
		task.AssignedTo = userID
	}
}
