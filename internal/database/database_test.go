package database

import (
	"path/filepath"
	"testing"

	"github.com/gdg-garage/guest-checkin-api/internal/config"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"go.uber.org/zap"
)

func TestConnect(t *testing.T) {
	t.Run("SQLite", func(t *testing.T) {
		db, err := Connect(&config.Config{DatabaseDriver: "sqlite", DatabasePath: filepath.Join(t.TempDir(), "checkin.db")}, zap.NewNop())
		if err != nil {
			t.Fatalf("Connect returned error: %v", err)
		}
		for _, m := range models.All() {
			if !db.Migrator().HasTable(m) {
				t.Errorf("expected table for %T", m)
			}
		}
	})

	t.Run("PostgresWithoutDSN", func(t *testing.T) {
		if _, err := Connect(&config.Config{DatabaseDriver: "postgres"}, zap.NewNop()); err == nil {
			t.Fatal("expected error without DATABASE_DSN")
		}
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		if _, err := Connect(&config.Config{DatabaseDriver: "oracle"}, zap.NewNop()); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"checkin.db", "checkin.db?_busy_timeout=5000&_txlock=immediate"},
		{"checkin.db?cache=shared", "checkin.db?cache=shared&_busy_timeout=5000&_txlock=immediate"},
		{"checkin.db?_busy_timeout=100", "checkin.db?_busy_timeout=100&_txlock=immediate"},
		{"checkin.db?_busy_timeout=100&_txlock=deferred", "checkin.db?_busy_timeout=100&_txlock=deferred"},
	}
	for _, tt := range tests {
		if got := SQLiteDSN(tt.path); got != tt.want {
			t.Errorf("SQLiteDSN(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
