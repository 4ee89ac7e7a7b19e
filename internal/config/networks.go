package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

const networksFileName = "networks.yaml"

//go:embed networks.yaml
var defaultNetworks []byte

var networkNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// NetworksConfig is the root of networks.yaml.
type NetworksConfig struct {
	Networks []NetworkConfig `yaml:"networks"`
}

// NetworkConfig describes one EOSIO network the resolver can talk to.
type NetworkConfig struct {
	// Name selects the network through EOSAUTH_NETWORK.
	Name string `yaml:"name"`
	// Endpoint is the nodeos API base URL. EOS_ENDPOINT overrides it and is
	// required when it is empty.
	Endpoint string `yaml:"endpoint"`
	// KeyPrefix is the legacy public key prefix, "EOS" when empty.
	KeyPrefix string `yaml:"key_prefix"`
	// UseHistoryAPI selects the history plugin for reverse lookups.
	UseHistoryAPI bool `yaml:"use_history_api"`
	// Disabled networks cannot be selected.
	Disabled bool `yaml:"disabled"`
}

// LoadNetworks reads <configDirPath>/networks.yaml, or the built-in presets
// when that file does not exist.
func LoadNetworks(configDirPath string) (*NetworksConfig, error) {
	raw, err := os.ReadFile(filepath.Join(configDirPath, networksFileName))
	if errors.Is(err, os.ErrNotExist) {
		raw = defaultNetworks
	} else if err != nil {
		return nil, err
	}

	var cfg NetworksConfig
	if err := yaml.NewDecoder(bytes.NewReader(raw)).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", networksFileName, err)
	}

	if err := cfg.verifyVariables(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *NetworksConfig) verifyVariables() error {
	seen := make(map[string]bool, len(cfg.Networks))
	for _, n := range cfg.Networks {
		if !networkNameRegex.MatchString(n.Name) {
			return fmt.Errorf("invalid network name '%s', should match snake_case format", n.Name)
		}
		if seen[n.Name] {
			return fmt.Errorf("network '%s' is defined more than once", n.Name)
		}
		seen[n.Name] = true
	}
	return nil
}

// Get returns the enabled network called name.
func (cfg *NetworksConfig) Get(name string) (NetworkConfig, error) {
	for _, n := range cfg.Networks {
		if n.Name != name {
			continue
		}
		if n.Disabled {
			return NetworkConfig{}, fmt.Errorf("network '%s' is disabled", name)
		}
		return n, nil
	}
	return NetworkConfig{}, fmt.Errorf("unknown network '%s'", name)
}
