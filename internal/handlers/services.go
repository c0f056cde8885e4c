package handlers

import (
	"context"
	"taskManager/internal/models/dashboard"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/service"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	RequestOTP(ctx context.Context, email string) (*service.OTPRequestResult, error)
	VerifyOTP(ctx context.Context, email, code string) (*service.AuthResult, error)
	CurrentUser(identity *user.Identity) (*user.Identity, error)
}

type TaskService interface {
	Create(ctx context.Context, in service.CreateTaskInput, actor *user.Identity) (*task.Task, error)
	List(ctx context.Context, q task.ListQuery, actor *user.Identity) (*task.ListResult, error)
	Get(ctx context.Context, id int64, actor *user.Identity) (*task.Task, error)
	Update(ctx context.Context, id int64, patch task.Patch, actor *user.Identity) (*task.Task, error)
	Delete(ctx context.Context, id int64, actor *user.Identity) error
	Complete(ctx context.Context, id int64, actor *user.Identity) (*task.Task, error)
}

type AdminService interface {
	Dashboard(ctx context.Context) (*dashboard.Dashboard, error)
	Users(ctx context.Context) ([]*user.User, error)
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

var _ AuthService = (*service.AuthService)(nil)
var _ TaskService = (*service.TaskService)(nil)
var _ AdminService = (*service.AdminService)(nil)
