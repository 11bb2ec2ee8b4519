package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMergesFileAndEnv(t *testing.T) {
	configYAML := `
server:
  port: 9090
compare:
  tolerance: 0.05
  tickers:
    RELIANCE: RELIANCE.NS
    TCS: TCS.NS
`
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0644))
	t.Setenv("NSE_CONFIG_FILE", configPath)
	t.Setenv("NSE_COMPARE_TOLERANCE", "0.25")

	cfg, err := Load()
	require.NoError(t, err)

	// Env wins over the file.
	assert.Equal(t, 0.25, cfg.Compare.Tolerance)
	// The file fills what the environment leaves empty.
	assert.Equal(t, map[string]string{
		"RELIANCE": "RELIANCE.NS",
		"TCS":      "TCS.NS",
	}, cfg.Compare.Tickers)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NSE_CONFIG_FILE", filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultWorkers, cfg.Adjust.Workers)
	assert.Equal(t, DefaultRoundPrecision, cfg.Adjust.RoundPrecision)
	assert.Equal(t, DefaultTolerance, cfg.Compare.Tolerance)
	assert.True(t, cfg.Retriever.Headless)
}

func TestMergeConfigsEnvPrecedence(t *testing.T) {
	fileCfg := Config{}
	fileCfg.Server.Port = 9090
	fileCfg.Logging.Level = "debug"
	fileCfg.Adjust.Workers = 8
	fileCfg.Compare.Tickers = map[string]string{"INFY": "INFY.NS"}

	envCfg := Config{}
	envCfg.Server.Port = 8081
	envCfg.Compare.Tickers = map[string]string{"TCS": "TCS.NS"}

	merged := mergeConfigs(fileCfg, envCfg)

	assert.Equal(t, 8081, merged.Server.Port, "env port wins")
	assert.Equal(t, "debug", merged.Logging.Level, "file fills empty env field")
	assert.Equal(t, 8, merged.Adjust.Workers)
	assert.Equal(t, map[string]string{"TCS": "TCS.NS"}, merged.Compare.Tickers, "env tickers win when set")
}

func TestValidateCoercesAndRejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "bad logging values coerced",
			mutate: func(c *Config) { c.Logging.Format = "text"; c.Logging.Output = "syslog" },
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.Compare.Tolerance = -1 },
			wantErr: "tolerance must be non-negative",
		},
		{
			name:    "round precision too large",
			mutate:  func(c *Config) { c.Adjust.RoundPrecision = 9 },
			wantErr: "adjust config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Server: ServerConfig{
					Port:         8080,
					ReadTimeout:  15 * time.Second,
					WriteTimeout: 15 * time.Second,
				},
				Adjust:  AdjustConfig{Workers: 4, RoundPrecision: 2},
				Compare: CompareConfig{Tolerance: 0.01, RoundPrecision: 2},
			}
			tt.mutate(&cfg)

			err := cfg.validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "json", cfg.Logging.Format)
			assert.Equal(t, "both", cfg.Logging.Output)
		})
	}
}

func TestPathsAtLayout(t *testing.T) {
	root := t.TempDir()
	paths := PathsAt(root)

	assert.Equal(t, filepath.Join(root, "data", "downloads"), paths.DownloadsDir)
	assert.Equal(t, filepath.Join(paths.DownloadsDir, "bhav"), paths.LegacyBhavDir)
	assert.Equal(t, filepath.Join(paths.DownloadsDir, "bhav_full"), paths.FullBhavDir)
	assert.True(t, filepath.IsAbs(paths.CombinedDataCSV))

	require.NoError(t, paths.EnsureDirectories())
	for _, dir := range []string{paths.LegacyBhavDir, paths.DeliveryDir, paths.FullBhavDir, paths.ActionsDir, paths.ReferenceDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
