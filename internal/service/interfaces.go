package service

import (
	"context"
	"taskManager/internal/models/dashboard"
	"taskManager/internal/models/otp"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"time"
)

type UserRepository interface {
	// CreateUser заполняет ID и CreatedAt; занятый email -> repository.ErrConflict
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, t *task.Task) error
	// GetTask возвращает задачу вместе с именами автора и исполнителя
	GetTask(ctx context.Context, id int64) (*task.Task, error)
	ListTasks(ctx context.Context, q task.ListQuery) ([]*task.Task, int, error)
	UpdateTask(ctx context.Context, id int64, patch task.Patch) (*task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error)
}

type OTPRepository interface {
	CreateOTP(ctx context.Context, o *otp.OTP) error
	// ConsumeOTP атомарно гасит самый свежий пригодный код; нет такого -> repository.ErrNotFound
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*otp.OTP, error)
	PurgeOTPs(ctx context.Context, before time.Time) (int64, error)
}

type StatsRepository interface {
	DashboardSnapshot(ctx context.Context, now time.Time) (*dashboard.Snapshot, error)
}

// Limiter ограничивает запросы кодов по ключу
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}
