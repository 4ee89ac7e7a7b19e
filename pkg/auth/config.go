package auth

import "time"

const (
	DefaultIssuer          = "eosauth"
	DefaultChallengeTTL    = 5 * time.Minute
	DefaultSessionTTL      = 24 * time.Hour
	DefaultMaxChallenges   = 1000
	DefaultCleanupInterval = 10 * time.Minute
)

// Config controls challenge issuance and session tokens. Zero values fall back
// to the defaults above, except Secret which is required.
type Config struct {
	// Secret is the HS256 key session tokens are signed with.
	Secret          string        `yaml:"-" validate:"required,min=16"`
	Issuer          string        `yaml:"issuer"`
	ChallengeTTL    time.Duration `yaml:"challenge_ttl" validate:"gte=0"`
	SessionTTL      time.Duration `yaml:"session_ttl" validate:"gte=0"`
	MaxChallenges   int           `yaml:"max_challenges" validate:"gte=0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" validate:"gte=0"`
}

func (c Config) withDefaults() Config {
	if c.Issuer == "" {
		c.Issuer = DefaultIssuer
	}
	if c.ChallengeTTL == 0 {
		c.ChallengeTTL = DefaultChallengeTTL
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.MaxChallenges == 0 {
		c.MaxChallenges = DefaultMaxChallenges
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = DefaultCleanupInterval
	}
	return c
}
