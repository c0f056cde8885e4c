package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"
const foreignKeyViolation = "23503"

const slowQuery = 100 * time.Millisecond

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func logSlow(op string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.String("op", op), zap.Duration("ms", elapsed))
	}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
