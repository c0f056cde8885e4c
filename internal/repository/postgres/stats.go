package postgres

import (
	"context"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/dashboard"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type keyCount struct {
	key   string
	count int64
}

func windowStart(now time.Time, windows int) time.Time {
	return now.Add(-time.Duration(windows*dashboard.WindowDays) * 24 * time.Hour)
}

func taskTotalsQuery(now time.Time) sq.SelectBuilder {
	last := windowStart(now, 1)
	previous := windowStart(now, 2)

	return psql.Select("COUNT(*)").
		Column(sq.Expr("COUNT(*) FILTER (WHERE created_at >= ?)", last)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE created_at >= ? AND created_at < ?)", previous, last)).
		Column(sq.Expr("COUNT(DISTINCT assigned_to) FILTER (WHERE created_at >= ?)", last)).
		From("tasks")
}

func distributionQuery(column string) sq.SelectBuilder {
	return psql.Select(column, "COUNT(*)").
		From("tasks").
		GroupBy(column).
		OrderBy("COUNT(*) DESC", column+" ASC")
}

func topUsersQuery() sq.SelectBuilder {
	return psql.Select("u.id", "u.name", "u.email", "COUNT(t.id) AS task_count").
		From("users u").
		LeftJoin("tasks t ON u.id = t.assigned_to").
		GroupBy("u.id", "u.name", "u.email").
		OrderBy("task_count DESC", "u.id ASC").
		Limit(dashboard.TopUsersLimit)
}

// DashboardSnapshot читает все счётчики в одной read-only транзакции repeatable read
func (s *Storage) DashboardSnapshot(ctx context.Context, now time.Time) (*dashboard.Snapshot, error) {
	start := time.Now()
	defer logSlow("dashboard", start)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		logger.Error("Repository: Не удалось открыть транзакцию", err)
		return nil, fmt.Errorf("открытие транзакции: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	snap := &dashboard.Snapshot{}

	query, args, err := taskTotalsQuery(now).ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}
	err = tx.QueryRow(ctx, query, args...).Scan(
		&snap.TotalTasks,
		&snap.TasksLast7Days,
		&snap.TasksPrevious7Days,
		&snap.ActiveAssignees7Days,
	)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("подсчёт задач: %w", err)
	}

	query, args, err = psql.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&snap.TotalUsers); err != nil {
		logger.Error("Repository: Не удалось посчитать пользователей", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("подсчёт пользователей: %w", err)
	}

	statuses, err := queryCounts(ctx, tx, distributionQuery("status"))
	if err != nil {
		return nil, err
	}
	for _, c := range statuses {
		snap.StatusDistribution = append(snap.StatusDistribution, dashboard.StatusCount{Status: c.key, Count: c.count})
	}

	categories, err := queryCounts(ctx, tx, distributionQuery("category"))
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		snap.CategoryDistribution = append(snap.CategoryDistribution, dashboard.CategoryCount{Category: c.key, Count: c.count})
	}

	priorities, err := queryCounts(ctx, tx, distributionQuery("priority"))
	if err != nil {
		return nil, err
	}
	for _, c := range priorities {
		snap.PriorityDistribution = append(snap.PriorityDistribution, dashboard.PriorityCount{Priority: c.key, Count: c.count})
	}

	snap.TopUsers, err = queryTopUsers(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("завершение транзакции: %w", err)
	}
	return snap, nil
}

func queryCounts(ctx context.Context, tx pgx.Tx, b sq.SelectBuilder) ([]keyCount, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить распределение", err)
		return nil, fmt.Errorf("получение распределения: %w", err)
	}
	defer rows.Close()

	counts := []keyCount{}
	for rows.Next() {
		var c keyCount
		if err := rows.Scan(&c.key, &c.count); err != nil {
			return nil, fmt.Errorf("сканирование распределения: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func queryTopUsers(ctx context.Context, tx pgx.Tx) ([]dashboard.TopUser, error) {
	query, args, err := topUsersQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить топ пользователей", err)
		return nil, fmt.Errorf("получение топа пользователей: %w", err)
	}
	defer rows.Close()

	top := []dashboard.TopUser{}
	for rows.Next() {
		var u dashboard.TopUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.TaskCount); err != nil {
			return nil, fmt.Errorf("сканирование пользователя: %w", err)
		}
		top = append(top, u)
	}
	return top, rows.Err()
}
