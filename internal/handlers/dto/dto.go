package dto

import (
	"errors"
	"strings"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/service"
	"time"
)

var ErrInvalidDate = errors.New("неверный формат даты")

// допустимые варианты ISO 8601: с временем и без
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate разбирает дату без зоны как UTC
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = user.NormalizeEmail(r.Email)
}

func (r *RegisterRequest) ToInput() service.RegisterInput {
	return service.RegisterInput{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
		Role:     user.Role(r.Role),
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = user.NormalizeEmail(r.Email)
}

type RequestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *RequestOTPRequest) Normalize() {
	r.Email = user.NormalizeEmail(r.Email)
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6"`
}

func (r *VerifyOTPRequest) Normalize() {
	r.Email = user.NormalizeEmail(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"required,iso8601"`
	Category    string `json:"category" validate:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=pending in_progress completed overdue"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssignedTo  *int64 `json:"assigned_to" validate:"omitnil,gt=0"`
}

func (r *CreateTaskRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
}

// ToInput вызывается после валидации, поэтому дата уже корректна
func (r *CreateTaskRequest) ToInput() (service.CreateTaskInput, error) {
	due, err := ParseDate(r.DueDate)
	if err != nil {
		return service.CreateTaskInput{}, err
	}
	return service.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     due,
		Category:    r.Category,
		Status:      task.Status(r.Status),
		Priority:    task.Priority(r.Priority),
		AssignedTo:  r.AssignedTo,
	}, nil
}

// UpdateTaskRequest - nil означает, что поле не передано
type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitnil,min=1"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date" validate:"omitnil,iso8601"`
	Category    *string `json:"category" validate:"omitnil,min=1"`
	Status      *string `json:"status" validate:"omitnil,oneof=pending in_progress completed overdue"`
	Priority    *string `json:"priority" validate:"omitnil,oneof=low medium high"`
	AssignedTo  *int64  `json:"assigned_to" validate:"omitnil,gt=0"`
	CompletedAt *string `json:"completed_at" validate:"omitnil,iso8601"`
}

func (r *UpdateTaskRequest) Normalize() {
	for _, field := range []*string{r.Title, r.Description, r.Category} {
		if field != nil {
			*field = strings.TrimSpace(*field)
		}
	}
}

func (r *UpdateTaskRequest) ToPatch() (task.Patch, error) {
	p := task.Patch{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		AssignedTo:  r.AssignedTo,
	}
	if r.Status != nil {
		status := task.Status(*r.Status)
		p.Status = &status
	}
	if r.Priority != nil {
		priority := task.Priority(*r.Priority)
		p.Priority = &priority
	}
	if r.DueDate != nil {
		due, err := ParseDate(*r.DueDate)
		if err != nil {
			return task.Patch{}, err
		}
		p.DueDate = &due
	}
	if r.CompletedAt != nil {
		completedAt, err := ParseDate(*r.CompletedAt)
		if err != nil {
			return task.Patch{}, err
		}
		p.CompletedAt = &completedAt
	}
	return p, nil
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AuthResponse struct {
	Message string       `json:"message"`
	User    user.Summary `json:"user"`
	Token   string       `json:"token"`
}

func FromAuthResult(message string, res *service.AuthResult) AuthResponse {
	return AuthResponse{
		Message: message,
		User:    res.User,
		Token:   res.Token,
	}
}

type TaskResponse struct {
	Message string     `json:"message,omitempty"`
	Task    *task.Task `json:"task"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}
