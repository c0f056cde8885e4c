package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Category,
		&t.Status,
		&t.Priority,
		&t.CreatedBy,
		&t.AssignedTo,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.CreatedByName,
		&t.AssignedToName,
	)
	return t, err
}

func (s *Storage) CreateTask(ctx context.Context, t *task.Task) error {
	start := time.Now()
	defer logSlow("create_task", start)

	query, args, err := psql.Insert("tasks").
		Columns("title", "description", "due_date", "category", "status", "priority", "created_by", "assigned_to").
		Values(t.Title, t.Description, t.DueDate, t.Category, t.Status, t.Priority, t.CreatedBy, t.AssignedTo).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("сборка запроса: %w", err)
	}

	if err := s.pool.QueryRow(ctx, query, args...).Scan(&t.ID, &t.CreatedAt); err != nil {
		if pgCode(err) == foreignKeyViolation {
			return fmt.Errorf("добавление задачи: %w", repo.ErrNotFound)
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()
	defer logSlow("get_task", start)

	query, args, err := selectTasks().Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}

	t, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("получение задачи %d: %w", id, repo.ErrNotFound)
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

func (s *Storage) ListTasks(ctx context.Context, q task.ListQuery) ([]*task.Task, int, error) {
	start := time.Now()
	defer logSlow("list_tasks", start)

	countSQL, countArgs, err := countTasksQuery(q.Filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("сборка запроса: %w", err)
	}

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("подсчёт задач: %w", err)
	}

	listSQL, listArgs, err := listTasksQuery(q).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("сборка запроса: %w", err)
	}

	rows, err := s.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, 0, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, 0, fmt.Errorf("итерация по строкам: %w", err)
	}

	return tasks, total, nil
}

func (s *Storage) UpdateTask(ctx context.Context, id int64, patch task.Patch) (*task.Task, error) {
	start := time.Now()
	defer logSlow("update_task", start)

	set := patchClauses(patch)
	if len(set) == 0 {
		return s.GetTask(ctx, id)
	}

	query, args, err := psql.Update("tasks").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}

	var updatedID int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&updatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("обновление задачи %d: %w", id, repo.ErrNotFound)
		}
		if pgCode(err) == foreignKeyViolation {
			return nil, fmt.Errorf("обновление задачи %d: исполнитель: %w", id, repo.ErrNotFound)
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	return s.GetTask(ctx, updatedID)
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	start := time.Now()
	defer logSlow("delete_task", start)

	query, args, err := psql.Delete("tasks").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("сборка запроса: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление задачи %d: %w", id, repo.ErrNotFound)
	}
	return nil
}

func (s *Storage) MarkOverdue(ctx context.Context, now time.Time, limit int) (int64, error) {
	start := time.Now()
	defer logSlow("mark_overdue", start)

	query, args, err := markOverdueQuery(now, limit).ToSql()
	if err != nil {
		return 0, fmt.Errorf("сборка запроса: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось пометить просроченные задачи", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("пометка просроченных: %w", err)
	}
	return tag.RowsAffected(), nil
}
