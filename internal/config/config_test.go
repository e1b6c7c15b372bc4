package config

import "testing"

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := LoadConfig()
		if cfg.FreePlanPolicy != FreePlanDisabled {
			t.Errorf("expected free plan policy %q, got %q", FreePlanDisabled, cfg.FreePlanPolicy)
		}
		if cfg.FreePlanQuota != 5 {
			t.Errorf("expected free plan quota 5, got %d", cfg.FreePlanQuota)
		}
		if cfg.DatabaseDriver != "sqlite" {
			t.Errorf("expected sqlite driver, got %q", cfg.DatabaseDriver)
		}
	})

	t.Run("FromEnv", func(t *testing.T) {
		t.Setenv("FREE_PLAN_POLICY", FreePlanQuota)
		t.Setenv("FREE_PLAN_QUOTA", "3")
		t.Setenv("SCAN_QUEUE_SIZE", "0")
		t.Setenv("JWT_SECRET", "s3cret")

		cfg := LoadConfig()
		if cfg.FreePlanPolicy != FreePlanQuota {
			t.Errorf("expected free plan policy %q, got %q", FreePlanQuota, cfg.FreePlanPolicy)
		}
		if cfg.FreePlanQuota != 3 {
			t.Errorf("expected free plan quota 3, got %d", cfg.FreePlanQuota)
		}
		if cfg.ScanQueueSize != 1 {
			t.Errorf("expected queue size clamped to 1, got %d", cfg.ScanQueueSize)
		}
		if cfg.JWTSecret != "s3cret" {
			t.Errorf("expected JWT secret from env, got %q", cfg.JWTSecret)
		}
	})
}
