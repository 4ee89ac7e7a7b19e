package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cambiatus/eosauth/pkg/chain"
	"github.com/cambiatus/eosauth/pkg/ecc"
	"github.com/cambiatus/eosauth/pkg/log"
	"github.com/cambiatus/eosauth/pkg/sign"
)

// usedChallengeGrace is how long a consumed challenge is kept so a replay
// reports ErrChallengeUsed instead of ErrChallengeNotFound.
const usedChallengeGrace = 30 * time.Second

// AccountResolver is the part of chain.Resolver the manager depends on.
type AccountResolver interface {
	AccountToPublicKey(ctx context.Context, account string) (*chain.AccountInfo, error)
}

var _ AccountResolver = (*chain.Resolver)(nil)

// Challenge is a phrase issued to an account holder. The holder signs
// Payload() and hands the signature back to Verify.
type Challenge struct {
	Token     uuid.UUID
	Account   string
	CreatedAt time.Time
	ExpiresAt time.Time

	completed bool
}

type challengePayload struct {
	Account   string `json:"account"`
	Challenge string `json:"challenge"`
	ExpiresAt string `json:"expires_at"`
}

// Payload returns the canonical JSON bytes the account holder must sign.
func (c Challenge) Payload() ([]byte, error) {
	return sign.Canonicalize(challengePayload{
		Account:   c.Account,
		Challenge: c.Token.String(),
		ExpiresAt: c.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Claims are carried by session tokens.
type Claims struct {
	Account   string `json:"account"`
	PublicKey string `json:"public_key"`
	jwt.RegisteredClaims
}

// Session is the result of a successful Verify.
type Session struct {
	Token  string
	Claims *Claims
}

// Manager issues challenges and turns signed challenges into session tokens.
// It is safe for concurrent use.
type Manager struct {
	cfg      Config
	secret   []byte
	resolver AccountResolver
	logger   log.Logger
	now      func() time.Time

	challenges   map[uuid.UUID]*Challenge
	challengesMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
	cleanupWg sync.WaitGroup
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger for verification outcomes.
func WithLogger(logger log.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager validates cfg and starts the challenge sweeper. Close stops it.
func NewManager(cfg Config, resolver AccountResolver, opts ...Option) (*Manager, error) {
	if resolver == nil {
		return nil, errors.New("account resolver is required")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}

	cfg = cfg.withDefaults()
	m := &Manager{
		cfg:        cfg,
		secret:     []byte(cfg.Secret),
		resolver:   resolver,
		logger:     log.NewNoopLogger(),
		now:        time.Now,
		challenges: make(map[uuid.UUID]*Challenge),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithName("auth")

	m.cleanupWg.Add(1)
	go m.cleanupExpiredChallenges()
	return m, nil
}

// NewChallenge issues a single use challenge for account.
func (m *Manager) NewChallenge(account string) (Challenge, error) {
	if !chain.IsValidAccountName(account) {
		return Challenge{}, fmt.Errorf("%w: %q", ErrInvalidAccount, account)
	}

	now := m.now()
	challenge := &Challenge{
		Token:     uuid.New(),
		Account:   account,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.ChallengeTTL),
	}

	m.challengesMu.Lock()
	defer m.challengesMu.Unlock()

	if m.isClosed() {
		return Challenge{}, ErrManagerClosed
	}
	if len(m.challenges) >= m.cfg.MaxChallenges {
		return Challenge{}, ErrTooManyChallenges
	}
	m.challenges[challenge.Token] = challenge

	return *challenge, nil
}

// Verify checks that signature was made over the challenge payload by a key
// of the challenged account, and issues a session token. The challenge is
// consumed by the first attempt, whether or not it succeeds.
func (m *Manager) Verify(ctx context.Context, token uuid.UUID, signature sign.Signature) (*Session, error) {
	challenge, err := m.consumeChallenge(token)
	if err != nil {
		return nil, err
	}

	logger := m.logger.WithKV("account", challenge.Account).WithKV("challenge", token.String())

	pub, err := recoverSigner(challenge, signature)
	if err != nil {
		logger.Info("challenge signature rejected", "error", err)
		return nil, err
	}

	info, err := m.resolver.AccountToPublicKey(ctx, challenge.Account)
	if err != nil {
		logger.Warn("account lookup failed", "error", err)
		return nil, fmt.Errorf("failed to resolve account %s: %w", challenge.Account, err)
	}
	if !info.HasKey(pub) {
		logger.Info("recovered key does not control account", "publicKey", pub.String())
		return nil, fmt.Errorf("%w: %s is not a key of %s", ErrKeyNotAuthorized, pub, challenge.Account)
	}

	session, err := m.issueToken(challenge.Account, pub)
	if err != nil {
		return nil, err
	}

	logger.Info("session issued", "publicKey", pub.String())
	return session, nil
}

func (m *Manager) consumeChallenge(token uuid.UUID) (Challenge, error) {
	m.challengesMu.Lock()
	defer m.challengesMu.Unlock()

	challenge, exists := m.challenges[token]
	if !exists {
		return Challenge{}, ErrChallengeNotFound
	}

	now := m.now()
	if challenge.completed {
		return Challenge{}, ErrChallengeUsed
	}
	if now.After(challenge.ExpiresAt) {
		delete(m.challenges, token)
		return Challenge{}, ErrChallengeExpired
	}

	issued := *challenge
	challenge.completed = true
	challenge.ExpiresAt = now.Add(usedChallengeGrace)
	return issued, nil
}

func recoverSigner(challenge Challenge, signature sign.Signature) (*ecc.PublicKey, error) {
	payload, err := challenge.Payload()
	if err != nil {
		return nil, fmt.Errorf("failed to build challenge payload: %w", err)
	}

	recoverer, err := sign.NewPublicKeyRecovererFromSignature(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	recovered, err := recoverer.RecoverPublicKey(payload, signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	pub, ok := recovered.(sign.EOSPublicKey)
	if !ok || pub.PublicKey == nil {
		return nil, fmt.Errorf("%w: unsupported key type", ErrInvalidSignature)
	}
	return pub.PublicKey, nil
}

func (m *Manager) issueToken(account string, pub *ecc.PublicKey) (*Session, error) {
	now := m.now()
	claims := &Claims{
		Account:   account,
		PublicKey: pub.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account,
			Issuer:    m.cfg.Issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.SessionTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &Session{Token: token, Claims: claims}, nil
}

// ParseToken validates a session token issued by this manager.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Account == "" || claims.Subject != claims.Account {
		return nil, fmt.Errorf("%w: account claim mismatch", ErrInvalidToken)
	}
	return claims, nil
}

// PendingChallenges returns the number of challenges held in memory.
func (m *Manager) PendingChallenges() int {
	m.challengesMu.Lock()
	defer m.challengesMu.Unlock()
	return len(m.challenges)
}

// Close stops the sweeper. Issued tokens stay valid; new challenges are refused.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.cleanupWg.Wait()
	return nil
}

func (m *Manager) isClosed() bool {
	select {
	case <-m.done:
		return true
	default:
		return false
	}
}

func (m *Manager) cleanupExpiredChallenges() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			if removed := m.sweep(); removed > 0 {
				m.logger.Debug("expired challenges removed", "count", removed)
			}
		}
	}
}

// sweep drops every challenge past its expiry and reports how many went.
func (m *Manager) sweep() int {
	now := m.now()

	m.challengesMu.Lock()
	defer m.challengesMu.Unlock()

	removed := 0
	for token, challenge := range m.challenges {
		if now.After(challenge.ExpiresAt) {
			delete(m.challenges, token)
			removed++
		}
	}
	return removed
}
