package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("BASEROW_TOKEN", "secret")
	t.Setenv("BASEROW_BASE_URL", "")
	t.Setenv("BASEROW_PAGE_SIZE", "")
	t.Setenv("BASEROW_OUTPUT_DIR", "")
	t.Setenv("BASEROW_MAX_PAGES", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "https://api.baserow.io", cfg.BaseURL)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, "data/snapshots", cfg.OutputDir)
	assert.Equal(t, 1000, cfg.MaxPages)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("BASEROW_TOKEN", "secret")
	t.Setenv("BASEROW_BASE_URL", "http://localhost:8000")
	t.Setenv("BASEROW_PAGE_SIZE", "25")
	t.Setenv("BASEROW_OUTPUT_DIR", "/tmp/snaps")
	t.Setenv("BASEROW_MAX_PAGES", "50")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.BaseURL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, "/tmp/snaps", cfg.OutputDir)
	assert.Equal(t, 50, cfg.MaxPages)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	t.Setenv("BASEROW_TOKEN", "")

	_, err := LoadConfig()
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadConfig_BadPageSize(t *testing.T) {
	t.Setenv("BASEROW_TOKEN", "secret")
	for _, bad := range []string{"abc", "0", "-5"} {
		t.Setenv("BASEROW_PAGE_SIZE", bad)
		_, err := LoadConfig()
		var cfgErr *ConfigError
		assert.ErrorAs(t, err, &cfgErr, "page size %q should be rejected", bad)
	}
}
