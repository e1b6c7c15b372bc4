package database

import (
	"fmt"
	"strings"

	"github.com/gdg-garage/guest-checkin-api/internal/config"
	"github.com/gdg-garage/guest-checkin-api/internal/logging"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the configured database and migrates every model.
func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "", "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.DatabasePath))
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logging.NewGormLogger(logger)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("database ready", zap.String("driver", dialector.Name()))
	return db, nil
}

// SQLiteDSN makes writers wait on each other instead of failing with "database is locked".
// Transactions take the write lock on BEGIN, so a read inside Admit cannot be upgraded into a
// deadlock by a concurrent writer.
func SQLiteDSN(path string) string {
	var params []string
	if !strings.Contains(path, "_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}
	if !strings.Contains(path, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
