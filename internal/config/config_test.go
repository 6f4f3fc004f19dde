package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "Close", cfg.Defaults.QuoteTiming)
	assert.Equal(t, "1d", cfg.Defaults.Period)
	assert.Equal(t, "1m", cfg.Defaults.Interval)
	assert.Equal(t, 3, cfg.HMM.States)
	assert.Equal(t, "full", cfg.HMM.CovarianceType)
	assert.Equal(t, 1000, cfg.HMM.Iterations)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricelab.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_source:
  provider: rest
  base_url: http://bars.local
hmm:
  states: 4
  covariance_type: diag
watch:
  symbols: [CVX]
`), 0o644))

	t.Setenv("PRICELAB_WATCH_SYMBOLS", "CVX, XOM ,")
	t.Setenv("PRICELAB_HMM_STATES", "2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rest", cfg.DataSource.Provider)
	assert.Equal(t, "http://bars.local", cfg.DataSource.BaseURL)
	assert.Equal(t, 2, cfg.HMM.States)
	assert.Equal(t, "diag", cfg.HMM.CovarianceType)
	assert.Equal(t, []string{"CVX", "XOM"}, cfg.Watch.Symbols)
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateWatch())
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hmm: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	cfg.DataSource.Provider = "rest"
	assert.Error(t, cfg.Validate(), "rest without base url")

	cfg.DataSource.Provider = "yahoo"
	cfg.Defaults.Period = "2w"
	assert.Error(t, cfg.Validate())

	cfg.Defaults.Period = "1mo"
	cfg.HMM.CovarianceType = "spherical"
	assert.Error(t, cfg.Validate())

	cfg.HMM.CovarianceType = "full"
	cfg.HMM.States = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateWatch(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateWatch())

	cfg.Watch.Symbols = []string{"CVX"}
	cfg.Telegram.BotToken = "token"
	assert.Error(t, cfg.ValidateWatch())

	cfg.Telegram.ChatID = "42"
	assert.NoError(t, cfg.ValidateWatch())
}
