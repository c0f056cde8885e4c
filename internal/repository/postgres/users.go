package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/user"
	repo "taskManager/internal/repository"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var userColumns = []string{"id", "name", "email", "password", "role", "is_active", "created_at"}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Active,
		&u.CreatedAt,
	)
	return u, err
}

func (s *Storage) CreateUser(ctx context.Context, u *user.User) error {
	start := time.Now()
	defer logSlow("create_user", start)

	query, args, err := psql.Insert("users").
		Columns("name", "email", "password", "role", "is_active").
		Values(u.Name, u.Email, u.PasswordHash, u.Role, u.Active).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("сборка запроса: %w", err)
	}

	err = s.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			logger.Info("Repository: Email уже занят", zap.String("email", u.Email))
			return fmt.Errorf("создание пользователя: %w", repo.ErrConflict)
		}
		logger.Error("Repository: Не удалось создать пользователя", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("создание пользователя: %w", err)
	}
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getUser(ctx, sq.Eq{"email": email})
}

func (s *Storage) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	return s.getUser(ctx, sq.Eq{"id": id})
}

func (s *Storage) getUser(ctx context.Context, where sq.Eq) (*user.User, error) {
	start := time.Now()
	defer logSlow("get_user", start)

	query, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}

	u, err := scanUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("получение пользователя: %w", repo.ErrNotFound)
		}
		logger.Error("Repository: Не удалось получить пользователя", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]*user.User, error) {
	start := time.Now()
	defer logSlow("list_users", start)

	query, args, err := psql.Select(userColumns...).
		From("users").
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить пользователей", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение пользователей: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование пользователя: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return users, nil
}
