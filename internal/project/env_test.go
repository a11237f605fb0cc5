package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/piwi3910/RoomLoad/internal/model"
)

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("ROOMLOAD_PORT", "7070")
	t.Setenv("ROOMLOAD_UPLOAD_DIR", "/var/spool/roomload")
	t.Setenv("ROOMLOAD_MAX_FILE_SIZE", "2048")
	t.Setenv("ROOMLOAD_CORS_ORIGIN", "https://a.example, https://b.example")
	t.Setenv("ROOMLOAD_LOG_LEVEL", "debug")
	t.Setenv("ROOMLOAD_POWER_FACTOR", "0.85")

	cfg := model.DefaultAppConfig()
	ApplyEnv(&cfg, filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "/var/spool/roomload", cfg.UploadDir)
	assert.Equal(t, 2048, cfg.MaxUploadSize)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.85, cfg.PowerFactor)
	assert.Equal(t, "json", cfg.LogFormat, "unset variables keep config values")
}

func TestApplyEnv_BarePort(t *testing.T) {
	t.Setenv("ROOMLOAD_PORT", "")
	t.Setenv("PORT", "3100")

	cfg := model.DefaultAppConfig()
	ApplyEnv(&cfg, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, 3100, cfg.Port)
}

func TestApplyEnv_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("ROOMLOAD_PORT", "eighty")
	t.Setenv("PORT", "")
	t.Setenv("ROOMLOAD_POWER_FACTOR", "1.5")

	cfg := model.DefaultAppConfig()
	ApplyEnv(&cfg, filepath.Join(t.TempDir(), "missing.env"))
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 1.0, cfg.PowerFactor)
}

func TestApplyEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("ROOMLOAD_HISTORY_DB=/tmp/runs.db\nROOMLOAD_FACTORS=factors.csv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("ROOMLOAD_HISTORY_DB")
		os.Unsetenv("ROOMLOAD_FACTORS")
	})

	cfg := model.DefaultAppConfig()
	ApplyEnv(&cfg, path)
	assert.Equal(t, "/tmp/runs.db", cfg.HistoryDB)
	assert.Equal(t, "factors.csv", cfg.FactorsPath)
}
