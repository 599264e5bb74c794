package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "5689", cfg.Port)
	require.Equal(t, "https://open.fxiaoke.com/cgi", cfg.CRMAPIBase)
	require.False(t, cfg.CRMDryRun)
	require.Equal(t, 100, cfg.CRMProgressStep)
	require.Equal(t, 50, cfg.SinkMaxBuffer)
	require.Equal(t, 15*time.Second, cfg.SinkMaxInterval)
	require.Equal(t, "http://localhost:5689", cfg.PublicBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FXCRM_DRY_RUN", "1")
	t.Setenv("FXCRM_PROGRESS_STEP", "25")
	t.Setenv("SINK_MAX_INTERVAL_SECONDS", "30")
	t.Setenv("PUBLIC_BASE_URL", "https://sync.example.test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9000", cfg.Port)
	require.True(t, cfg.CRMDryRun)
	require.Equal(t, 25, cfg.CRMProgressStep)
	require.Equal(t, 30*time.Second, cfg.SinkMaxInterval)
	require.Equal(t, "https://sync.example.test", cfg.PublicBaseURL)
}

func TestLoadDirectPostHeaders(t *testing.T) {
	t.Setenv("FXCRM_DIRECT_POST_HEADERS", `{"X-Channel":"erp","X-Env":"prod"}`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"X-Channel": "erp", "X-Env": "prod"}, cfg.CRMDirectPostHeaders)
}

func TestLoadBadHeadersJSON(t *testing.T) {
	t.Setenv("FXCRM_DIRECT_POST_HEADERS", "not-json")

	_, err := Load()
	require.ErrorContains(t, err, "FXCRM_DIRECT_POST_HEADERS")
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("FXCRM_PROGRESS_STEP", "many")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 100, cfg.CRMProgressStep)
}
