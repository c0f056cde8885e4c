package inmemory

import (
	"context"
	"fmt"
	"sort"
	"taskManager/internal/models/user"
	repo "taskManager/internal/repository"
)

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, taken := s.emails[u.Email]; taken {
		return fmt.Errorf("создание пользователя: %w", repo.ErrConflict)
	}

	s.nextUserID++
	u.ID = s.nextUserID
	u.CreatedAt = s.now()

	s.users[u.ID] = copyUser(u)
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, fmt.Errorf("получение пользователя: %w", repo.ErrNotFound)
	}
	return copyUser(s.users[id]), nil
}

func (s *Storage) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("получение пользователя: %w", repo.ErrNotFound)
	}
	return copyUser(u), nil
}

// ListUsers - новые сверху, при равном created_at больший id первым
func (s *Storage) ListUsers(ctx context.Context) ([]*user.User, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	users := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, copyUser(u))
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
	return users, nil
}

// SetActive нужен тестам и локальному запуску: API активацию не открывает
func (s *Storage) SetActive(id int64, active bool) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.Active = active
	return nil
}
