package handlers_test

import (
	"context"
	"taskManager/internal/handlers"
	"taskManager/internal/models/dashboard"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"taskManager/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockAuthService - мок сервиса аутентификации
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) RequestOTP(ctx context.Context, email string) (*service.OTPRequestResult, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.OTPRequestResult), args.Error(1)
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, email, code string) (*service.AuthResult, error) {
	args := m.Called(ctx, email, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *MockAuthService) CurrentUser(identity *user.Identity) (*user.Identity, error) {
	args := m.Called(identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Identity), args.Error(1)
}

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) Create(ctx context.Context, in service.CreateTaskInput, actor *user.Identity) (*task.Task, error) {
	args := m.Called(ctx, in, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) List(ctx context.Context, q task.ListQuery, actor *user.Identity) (*task.ListResult, error) {
	args := m.Called(ctx, q, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.ListResult), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, id int64, actor *user.Identity) (*task.Task, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Update(ctx context.Context, id int64, patch task.Patch, actor *user.Identity) (*task.Task, error) {
	args := m.Called(ctx, id, patch, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, id int64, actor *user.Identity) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockTaskService) Complete(ctx context.Context, id int64, actor *user.Identity) (*task.Task, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

// MockAdminService - мок админского сервиса
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Dashboard(ctx context.Context) (*dashboard.Dashboard, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dashboard.Dashboard), args.Error(1)
}

func (m *MockAdminService) Users(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

// MockHealthChecker - мок проверки хранилища
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ handlers.AuthService = (*MockAuthService)(nil)
var _ handlers.TaskService = (*MockTaskService)(nil)
var _ handlers.AdminService = (*MockAdminService)(nil)
var _ handlers.HealthChecker = (*MockHealthChecker)(nil)
