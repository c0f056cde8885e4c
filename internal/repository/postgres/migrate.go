package postgres

import (
	"errors"
	"fmt"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// MigrateUp применяет все новые миграции; отсутствие изменений ошибкой не считается
func MigrateUp(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	logger.Info("Repository: Применение миграций")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка применения миграций", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Repository: Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func MigrateDown(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrator(m)

	logger.Info("Repository: Откат миграций")
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Ошибка отката миграций", err)
		return fmt.Errorf("откат миграций: %w", err)
	}
	return nil
}

func newMigrator(databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil || dbErr != nil {
		logger.Warn("Repository: Ошибка закрытия мигратора", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
	}
}

// migrateURL переводит postgres:// в схему драйвера pgx/v5 для golang-migrate
func migrateURL(databaseURL string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}
