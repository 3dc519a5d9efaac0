package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WORKFLOW_MODE", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("JWT_ACCESS_EXPIRY", "")

	cfg := Load()

	assert.Equal(t, "permissive", cfg.WorkflowMode)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.False(t, cfg.UsesMemoryStore())
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 30, cfg.LogRetentionDays)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKFLOW_MODE", "STRICT")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_REFRESH_EXPIRY", "not-a-duration")
	t.Setenv("TRACK_RATE_LIMIT", "-3")
	t.Setenv("DB_NAME", "cases")

	cfg := Load()

	assert.Equal(t, "strict", cfg.WorkflowMode)
	assert.True(t, cfg.UsesMemoryStore())
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshExpiry)
	assert.Equal(t, 20, cfg.TrackRateLimit)
	assert.Contains(t, cfg.DSN(), "dbname=cases")
}
