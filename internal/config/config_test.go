package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cambiatus/eosauth/pkg/log"
)

var configEnvKeys = []string{
	configDirPathEnv,
	"EOSAUTH_NETWORK",
	"EOS_ENDPOINT",
	"EOSAUTH_LOOKUP_TIMEOUT",
	"EOSAUTH_USE_HISTORY_API",
	"GRAPHQL_SECRET",
	"EOSAUTH_METRICS_ADDR",
	"LOG_FORMAT",
	"LOG_LEVEL",
	"LOG_OUTPUT",
}

// isolateEnv unsets every variable the loader reads and restores them when
// the test ends, including values written by godotenv.
func isolateEnv(t *testing.T) string {
	t.Helper()

	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	dir := t.TempDir()
	t.Setenv(configDirPathEnv, dir)
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load(log.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Network)
	assert.Equal(t, "https://staging.cambiatus.io", cfg.Chain.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Chain.Timeout)
	assert.Equal(t, "EOS", cfg.Chain.KeyPrefix)
	assert.False(t, cfg.Chain.UseHistoryAPI)
	assert.Empty(t, cfg.Auth.Secret)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, log.LevelInfo, cfg.Log.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	isolateEnv(t)
	t.Setenv("EOSAUTH_NETWORK", "production")
	t.Setenv("EOS_ENDPOINT", "https://eos.example.com")
	t.Setenv("EOSAUTH_LOOKUP_TIMEOUT", "3s")
	t.Setenv("EOSAUTH_USE_HISTORY_API", "true")
	t.Setenv("GRAPHQL_SECRET", "a-session-secret-value")
	t.Setenv("EOSAUTH_METRICS_ADDR", "localhost:9090")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load(log.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Network)
	assert.Equal(t, "https://eos.example.com", cfg.Chain.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Chain.Timeout)
	assert.True(t, cfg.Chain.UseHistoryAPI)
	assert.Equal(t, "a-session-secret-value", cfg.Auth.Secret)
	assert.Equal(t, "localhost:9090", cfg.MetricsAddr)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolateEnv(t)
	writeFile(t, filepath.Join(dir, ".env"), "EOSAUTH_NETWORK=production\nEOS_ENDPOINT=https://dotenv.example.com\n")

	cfg, err := Load(log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Network)
	assert.Equal(t, "https://dotenv.example.com", cfg.Chain.Endpoint)
}

func TestLoadNetworksFile(t *testing.T) {
	dir := isolateEnv(t)
	writeFile(t, filepath.Join(dir, networksFileName), `
networks:
  - name: telos_testnet
    endpoint: https://testnet.telos.net
    key_prefix: TLOS
    use_history_api: true
`)
	t.Setenv("EOSAUTH_NETWORK", "telos_testnet")

	cfg, err := Load(log.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, "https://testnet.telos.net", cfg.Chain.Endpoint)
	assert.Equal(t, "TLOS", cfg.Chain.KeyPrefix)
	assert.True(t, cfg.Chain.UseHistoryAPI)

	t.Setenv("EOSAUTH_NETWORK", "development")
	_, err = Load(log.NewNoopLogger())
	assert.ErrorContains(t, err, "unknown network")
}

func TestLoadErrors(t *testing.T) {
	tcs := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "production needs an endpoint",
			env:     map[string]string{"EOSAUTH_NETWORK": "production"},
			wantErr: "EOS_ENDPOINT",
		},
		{
			name:    "unknown network",
			env:     map[string]string{"EOSAUTH_NETWORK": "mainnet2"},
			wantErr: "unknown network",
		},
		{
			name:    "disabled network",
			env:     map[string]string{"EOSAUTH_NETWORK": "telos"},
			wantErr: "disabled",
		},
		{
			name:    "endpoint is not a url",
			env:     map[string]string{"EOS_ENDPOINT": "not a url"},
			wantErr: "invalid configuration",
		},
		{
			name:    "bad timeout",
			env:     map[string]string{"EOSAUTH_LOOKUP_TIMEOUT": "soon"},
			wantErr: "failed to read env",
		},
		{
			name:    "bad log format",
			env:     map[string]string{"LOG_FORMAT": "xml"},
			wantErr: "invalid configuration",
		},
		{
			name:    "bad metrics address",
			env:     map[string]string{"EOSAUTH_METRICS_ADDR": "nowhere"},
			wantErr: "invalid configuration",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			isolateEnv(t)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}

			_, err := Load(log.NewNoopLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadNetworksValidation(t *testing.T) {
	t.Run("built-in presets", func(t *testing.T) {
		networks, err := LoadNetworks(t.TempDir())
		require.NoError(t, err)

		dev, err := networks.Get("development")
		require.NoError(t, err)
		assert.Equal(t, "https://staging.cambiatus.io", dev.Endpoint)

		prod, err := networks.Get("production")
		require.NoError(t, err)
		assert.Empty(t, prod.Endpoint)
	})

	t.Run("duplicate names", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, networksFileName), "networks:\n  - name: a\n  - name: a\n")
		_, err := LoadNetworks(dir)
		assert.ErrorContains(t, err, "more than once")
	})

	t.Run("bad name", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, networksFileName), "networks:\n  - name: Main-Net\n")
		_, err := LoadNetworks(dir)
		assert.ErrorContains(t, err, "invalid network name")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, networksFileName), "networks: [\n")
		_, err := LoadNetworks(dir)
		assert.Error(t, err)
	})
}

func TestLoadLogConfig(t *testing.T) {
	isolateEnv(t)

	conf, err := LoadLogConfig()
	require.NoError(t, err)
	assert.Equal(t, log.Config{Format: "console", Level: log.LevelInfo, Output: "stderr"}, conf)

	t.Setenv("LOG_FORMAT", "logfmt")
	t.Setenv("LOG_LEVEL", "debug")
	conf, err = LoadLogConfig()
	require.NoError(t, err)
	assert.Equal(t, "logfmt", conf.Format)
	assert.Equal(t, log.LevelDebug, conf.Level)

	t.Setenv("LOG_LEVEL", "verbose")
	_, err = LoadLogConfig()
	assert.Error(t, err)
}
