package service

import (
	"context"
	"fmt"
	"taskManager/internal/models/dashboard"
	"taskManager/internal/models/user"
	"time"
)

type AdminService struct {
	stats StatsRepository
	users UserRepository
	now   func() time.Time
}

func NewAdminService(stats StatsRepository, users UserRepository) *AdminService {
	return &AdminService{
		stats: stats,
		users: users,
		now:   time.Now,
	}
}

func (s *AdminService) WithClock(now func() time.Time) *AdminService {
	s.now = now
	return s
}

func (s *AdminService) Dashboard(ctx context.Context) (*dashboard.Dashboard, error) {
	snap, err := s.stats.DashboardSnapshot(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("сбор статистики: %w", err)
	}
	return dashboard.Build(snap), nil
}

func (s *AdminService) Users(ctx context.Context) ([]*user.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	if users == nil {
		users = []*user.User{}
	}
	return users, nil
}
