package inmemory

import (
	"context"
	"sync"
	"taskManager/internal/models/otp"
	"taskManager/internal/models/task"
	"taskManager/internal/models/user"
	"time"
)

// Storage хранит пользователей, задачи и коды в памяти процесса.
// Наружу отдаются только копии, поэтому вызывающий код не может испортить состояние.
type Storage struct {
	mtx *sync.RWMutex

	users  map[int64]*user.User
	emails map[string]int64
	tasks  map[int64]*task.Task
	otps   []*otp.OTP

	nextUserID int64
	nextTaskID int64
	nextOTPID  int64

	now func() time.Time
}

func New() *Storage {
	return &Storage{
		mtx:    &sync.RWMutex{},
		users:  make(map[int64]*user.User),
		emails: make(map[string]int64),
		tasks:  make(map[int64]*task.Task),
		otps:   []*otp.OTP{},
		now:    time.Now,
	}
}

// WithClock подменяет часы, которыми проставляются created_at и считаются окна
func (s *Storage) WithClock(now func() time.Time) *Storage {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.now = now
	return s
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) Close() {}

func copyUser(u *user.User) *user.User {
	c := *u
	return &c
}

func copyTask(t *task.Task) *task.Task {
	c := *t
	if t.CompletedAt != nil {
		completedAt := *t.CompletedAt
		c.CompletedAt = &completedAt
	}
	return &c
}

func copyOTP(o *otp.OTP) *otp.OTP {
	c := *o
	return &c
}
