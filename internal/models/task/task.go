package task

import (
	"time"
)

type Task struct {
	ID             int64      `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    string     `json:"description" db:"description"`
	DueDate        time.Time  `json:"due_date" db:"due_date"`
	Category       string     `json:"category" db:"category"`
	Status         Status     `json:"status" db:"status"`
	Priority       Priority   `json:"priority" db:"priority"`
	CreatedBy      int64      `json:"created_by" db:"created_by"`
	AssignedTo     int64      `json:"assigned_to" db:"assigned_to"`
	CompletedAt    *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	CreatedByName  string     `json:"created_by_name,omitempty" db:"created_by_name"`
	AssignedToName string     `json:"assigned_to_name,omitempty" db:"assigned_to_name"`
}

type Status string
type Priority string

const StatusPending Status = "pending"
const StatusInProgress Status = "in_progress"
const StatusCompleted Status = "completed"
const StatusOverdue Status = "overdue"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Patch - частичное обновление, nil означает "поле не передано"
type Patch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Category    *string
	Status      *Status
	Priority    *Priority
	AssignedTo  *int64
	CompletedAt *time.Time
}

func (p Patch) Empty() bool {
	return p.Title == nil &&
		p.Description == nil &&
		p.DueDate == nil &&
		p.Category == nil &&
		p.Status == nil &&
		p.Priority == nil &&
		p.AssignedTo == nil &&
		p.CompletedAt == nil
}

// Apply применяет патч к копии задачи в памяти
func (p Patch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.AssignedTo != nil {
		t.AssignedTo = *p.AssignedTo
	}
	if p.CompletedAt != nil {
		completedAt := *p.CompletedAt
		t.CompletedAt = &completedAt
	}
}
