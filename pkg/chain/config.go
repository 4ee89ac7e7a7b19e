package chain

import (
	"fmt"
	"net/url"
	"time"

	"github.com/cambiatus/eosauth/pkg/ecc"
)

const DefaultTimeout = 10 * time.Second

// Config is everything a Resolver needs to reach the directory. It is passed
// in explicitly; the resolver reads nothing from the environment.
type Config struct {
	// Endpoint is the base URL of a nodeos API node, e.g. https://eos.greymass.com.
	Endpoint string `yaml:"endpoint" validate:"required,url"`
	// Timeout bounds each lookup. Zero means DefaultTimeout.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// KeyPrefix is the legacy public key prefix of the network. Empty means "EOS".
	KeyPrefix string `yaml:"key_prefix" validate:"omitempty,alpha"`
	// UseHistoryAPI makes reverse lookups use /v1/history/get_key_accounts
	// instead of /v1/chain/get_accounts_by_authorizers.
	UseHistoryAPI bool `yaml:"use_history_api"`
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = ecc.DefaultKeyPrefix
	}
	return c
}

func (c Config) endpointURL(path string) (string, error) {
	base, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", c.Endpoint, err)
	}
	return base.JoinPath(path).String(), nil
}
