package service_test

import (
	"context"
	"taskManager/internal/models/dashboard"
	"taskManager/internal/models/otp"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository - мок репозитория пользователей
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) CreateTask(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListTasks(ctx context.Context, q task.ListQuery) ([]*task.Task, int, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*task.Task), args.Int(1), args.Error(2)
}

func (m *MockTaskRepository) UpdateTask(ctx context.Context, id int64, patch task.Patch) (*task.Task, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) DeleteTask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).(int64), args.Error(1)
}

// MockOTPRepository - мок хранилища кодов
type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) CreateOTP(ctx context.Context, o *otp.OTP) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOTPRepository) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*otp.OTP, error) {
	args := m.Called(ctx, email, code, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*otp.OTP), args.Error(1)
}

func (m *MockOTPRepository) PurgeOTPs(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockStatsRepository - мок статистики
type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) DashboardSnapshot(ctx context.Context, now time.Time) (*dashboard.Snapshot, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Snapshot), args.Error(1)
}

// MockSender - мок почты
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendOTP(ctx context.Context, email, code string) error {
	args := m.Called(ctx, email, code)
	return args.Error(0)
}

// MockLimiter - мок ограничителя запросов
type MockLimiter struct {
	mock.Mock
}

func (m *MockLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Get(1).(time.Duration), args.Error(2)
}
