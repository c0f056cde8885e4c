package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/otp"
	repo "taskManager/internal/repository"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

func (s *Storage) CreateOTP(ctx context.Context, o *otp.OTP) error {
	start := time.Now()
	defer logSlow("create_otp", start)

	query, args, err := psql.Insert("otps").
		Columns("email", "otp", "expires_at", "is_used").
		Values(o.Email, o.Code, o.ExpiresAt, false).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("сборка запроса: %w", err)
	}

	if err := s.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CreatedAt); err != nil {
		logger.Error("Repository: Не удалось сохранить код", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("сохранение кода: %w", err)
	}
	o.Used = false
	return nil
}

// consumeOTPQuery гасит код одним оператором: строку под FOR UPDATE SKIP LOCKED
// второй конкурентный запрос не увидит
func consumeOTPQuery(email, code string, now time.Time) sq.UpdateBuilder {
	newest := sq.Select("id").
		From("otps").
		Where(sq.Eq{"email": email, "otp": code, "is_used": false}).
		Where(sq.Gt{"expires_at": now}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1).
		Suffix("FOR UPDATE SKIP LOCKED")

	return psql.Update("otps").
		Set("is_used", true).
		Where(sq.Expr("id = (?)", newest)).
		Where(sq.Eq{"is_used": false}).
		Suffix("RETURNING id, email, otp, expires_at, is_used, created_at")
}

func (s *Storage) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*otp.OTP, error) {
	start := time.Now()
	defer logSlow("consume_otp", start)

	query, args, err := consumeOTPQuery(email, code, now).ToSql()
	if err != nil {
		return nil, fmt.Errorf("сборка запроса: %w", err)
	}

	o := &otp.OTP{}
	err = s.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.Email, &o.Code, &o.ExpiresAt, &o.Used, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("погашение кода: %w", repo.ErrNotFound)
		}
		logger.Error("Repository: Не удалось погасить код", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("погашение кода: %w", err)
	}
	return o, nil
}

// PurgeOTPs удаляет коды, истёкшие до before, и использованные коды, созданные до before
func (s *Storage) PurgeOTPs(ctx context.Context, before time.Time) (int64, error) {
	start := time.Now()
	defer logSlow("purge_otps", start)

	query, args, err := psql.Delete("otps").
		Where(sq.Or{
			sq.Lt{"expires_at": before},
			sq.And{sq.Eq{"is_used": true}, sq.Lt{"created_at": before}},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("сборка запроса: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось удалить старые коды", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("удаление кодов: %w", err)
	}
	return tag.RowsAffected(), nil
}
