package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/cambiatus/eosauth/pkg/auth"
	"github.com/cambiatus/eosauth/pkg/chain"
	"github.com/cambiatus/eosauth/pkg/log"
)

const (
	configDirPathEnv     = "EOSAUTH_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
)

// env is everything read from the process environment.
type env struct {
	Network       string        `env:"EOSAUTH_NETWORK" env-default:"development"`
	Endpoint      string        `env:"EOS_ENDPOINT"`
	LookupTimeout time.Duration `env:"EOSAUTH_LOOKUP_TIMEOUT" env-default:"10s"`
	UseHistoryAPI bool          `env:"EOSAUTH_USE_HISTORY_API"`
	SessionSecret string        `env:"GRAPHQL_SECRET"`
	MetricsAddr   string        `env:"EOSAUTH_METRICS_ADDR"`
	Log           log.Config
}

// Config is the application configuration.
type Config struct {
	Network string `validate:"required"`
	Chain   chain.Config
	// Auth is only validated by auth.NewManager, commands that never issue
	// sessions run without GRAPHQL_SECRET.
	Auth        auth.Config `validate:"-"`
	Log         log.Config
	MetricsAddr string `validate:"omitempty,hostname_port"`
}

// Load reads <config dir>/.env, the environment and the network presets.
// The config dir comes from EOSAUTH_CONFIG_DIR_PATH and defaults to the
// working directory. A missing .env file is not an error.
func Load(logger log.Logger) (*Config, error) {
	logger = logger.WithName("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	configDotEnvPath := filepath.Join(configDirPath, ".env")
	logger.Debug("loading .env file", "path", configDotEnvPath)
	if err := godotenv.Load(configDotEnvPath); err != nil {
		logger.Debug(".env file not found", "path", configDotEnvPath)
	}

	var e env
	if err := cleanenv.ReadEnv(&e); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	networks, err := LoadNetworks(configDirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load networks: %w", err)
	}
	network, err := networks.Get(e.Network)
	if err != nil {
		return nil, err
	}

	endpoint := network.Endpoint
	if e.Endpoint != "" {
		endpoint = e.Endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("network '%s' has no endpoint, set EOS_ENDPOINT", network.Name)
	}

	cfg := &Config{
		Network: network.Name,
		Chain: chain.Config{
			Endpoint:      endpoint,
			Timeout:       e.LookupTimeout,
			KeyPrefix:     network.KeyPrefix,
			UseHistoryAPI: network.UseHistoryAPI || e.UseHistoryAPI,
		},
		Auth:        auth.Config{Secret: e.SessionSecret},
		Log:         e.Log,
		MetricsAddr: e.MetricsAddr,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("configuration loaded", "network", cfg.Network, "endpoint", cfg.Chain.Endpoint, "historyApi", cfg.Chain.UseHistoryAPI)
	return cfg, nil
}

// LoadLogConfig reads only the LOG_* variables, so a logger can be built
// before the rest of the configuration.
func LoadLogConfig() (log.Config, error) {
	var conf log.Config
	if err := cleanenv.ReadEnv(&conf); err != nil {
		return log.Config{}, fmt.Errorf("failed to read log env: %w", err)
	}
	if err := validator.New().Struct(conf); err != nil {
		return log.Config{}, fmt.Errorf("invalid log configuration: %w", err)
	}
	if !conf.Level.Valid() {
		return log.Config{}, fmt.Errorf("invalid LOG_LEVEL %q", conf.Level)
	}
	return conf, nil
}
