package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cambiatus/eosauth/internal/config"
	"github.com/cambiatus/eosauth/pkg/auth"
	"github.com/cambiatus/eosauth/pkg/chain"
	"github.com/cambiatus/eosauth/pkg/ecc"
	"github.com/cambiatus/eosauth/pkg/log"
	"github.com/cambiatus/eosauth/pkg/sign"
)

const (
	defaultWatchInterval = 30 * time.Second
	metricsEndpoint      = "/metrics"
)

// setupResolver loads the configuration and builds a resolver reporting to
// registry, which may be nil.
func setupResolver(logger log.Logger, registry prometheus.Registerer) (*config.Config, *chain.Resolver, error) {
	cfg, err := config.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	opts := []chain.Option{chain.WithLogger(logger)}
	if registry != nil {
		opts = append(opts, chain.WithMetrics(chain.NewMetricsWithRegistry(registry)))
	}
	resolver, err := chain.NewResolver(cfg.Chain, opts...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, resolver, nil
}

// singleArg parses fs and returns its one positional argument.
func singleArg(fs *flag.FlagSet, args []string, what string) (string, error) {
	if err := parseFlags(fs, args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("usage: eosauth %s <%s>", fs.Name(), what)
	}
	return fs.Arg(0), nil
}

type accountOutput struct {
	Account     string             `json:"account"`
	Created     time.Time          `json:"created,omitzero"`
	Balance     *chain.Asset       `json:"balance,omitempty"`
	PublicKeys  []string           `json:"publicKeys"`
	Permissions []chain.Permission `json:"permissions,omitempty"`
}

func newAccountOutput(info *chain.AccountInfo, keyPrefix string) accountOutput {
	keys := info.PublicKeys()
	encoded := make([]string, 0, len(keys))
	for _, key := range keys {
		encoded = append(encoded, key.StringWithPrefix(keyPrefix))
	}
	return accountOutput{
		Account:     info.Name,
		Created:     info.Created,
		Balance:     info.CoreLiquidBalance,
		PublicKeys:  encoded,
		Permissions: info.Permissions,
	}
}

func runAccountCli(ctx context.Context, logger log.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("account", flag.ContinueOnError)
	account, err := singleArg(fs, args, "account name")
	if err != nil {
		return err
	}

	cfg, resolver, err := setupResolver(logger, nil)
	if err != nil {
		return err
	}

	info, err := resolver.AccountToPublicKey(ctx, account)
	if err != nil {
		return err
	}
	return writeJSON(out, newAccountOutput(info, cfg.Chain.KeyPrefix))
}

type keyAccountsOutput struct {
	PublicKey string   `json:"publicKey"`
	Accounts  []string `json:"accounts"`
}

func runKeyAccountsCli(ctx context.Context, logger log.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("key-accounts", flag.ContinueOnError)
	key, err := singleArg(fs, args, "public key")
	if err != nil {
		return err
	}

	cfg, resolver, err := setupResolver(logger, nil)
	if err != nil {
		return err
	}
	pub, err := ecc.ParsePublicKeyWithPrefix(key, cfg.Chain.KeyPrefix)
	if err != nil {
		return err
	}

	accounts, err := resolver.PublicKeyToAccount(ctx, pub)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		names = append(names, acc.Name)
	}
	return writeJSON(out, keyAccountsOutput{PublicKey: pub.StringWithPrefix(cfg.Chain.KeyPrefix), Accounts: names})
}

type loginOutput struct {
	Account   string    `json:"account"`
	PublicKey string    `json:"publicKey"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// runLoginCli performs both sides of a login: it issues a challenge, signs it
// with the local key and verifies it against the directory.
func runLoginCli(ctx context.Context, logger log.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	account, err := singleArg(fs, args, "account name")
	if err != nil {
		return err
	}

	cfg, resolver, err := setupResolver(logger, nil)
	if err != nil {
		return err
	}
	priv, err := loadPrivateKey()
	if err != nil {
		return err
	}

	manager, err := auth.NewManager(cfg.Auth, resolver, auth.WithLogger(logger))
	if err != nil {
		return err
	}
	defer manager.Close()

	challenge, err := manager.NewChallenge(account)
	if err != nil {
		return err
	}
	payload, err := challenge.Payload()
	if err != nil {
		return err
	}

	signature, err := sign.NewEOSSignerFromKey(priv).Sign(payload)
	if err != nil {
		return err
	}
	priv.Zero()

	session, err := manager.Verify(ctx, challenge.Token, signature)
	if err != nil {
		return err
	}
	return writeJSON(out, loginOutput{
		Account:   session.Claims.Account,
		PublicKey: session.Claims.PublicKey,
		Token:     session.Token,
		ExpiresAt: session.Claims.ExpiresAt.Time,
	})
}

type keyChange struct {
	Account   string    `json:"account"`
	At        time.Time `json:"at"`
	Added     []string  `json:"added,omitempty"`
	Removed   []string  `json:"removed,omitempty"`
	Unchanged bool      `json:"unchanged,omitempty"`
}

// runWatchCli polls an account and prints a line whenever its key set
// changes. Lookup failures are logged and retried on the next tick. With
// EOSAUTH_METRICS_ADDR set, resolver metrics are served while it runs.
func runWatchCli(ctx context.Context, logger log.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("interval", defaultWatchInterval, "time between lookups")
	account, err := singleArg(fs, args, "account name")
	if err != nil {
		return err
	}
	if *interval <= 0 {
		return errors.New("-interval must be positive")
	}

	registry := prometheus.NewRegistry()
	cfg, resolver, err := setupResolver(logger, registry)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		metricsServer := startMetricsServer(logger, cfg.MetricsAddr, registry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to shut down metrics server", "error", err)
			}
		}()
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	var known []string
	first := true
	for {
		info, err := resolver.AccountToPublicKey(ctx, account)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			logger.Warn("account lookup failed", "account", account, "error", err)
		default:
			current := newAccountOutput(info, cfg.Chain.KeyPrefix).PublicKeys
			slices.Sort(current)
			if first || !slices.Equal(known, current) {
				change := diffKeys(known, current)
				change.Account = account
				change.At = time.Now().UTC()
				if err := writeJSON(out, change); err != nil {
					return err
				}
			}
			known, first = current, false
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// diffKeys compares two sorted key lists.
func diffKeys(before, after []string) keyChange {
	var change keyChange
	for _, key := range after {
		if _, found := slices.BinarySearch(before, key); !found {
			change.Added = append(change.Added, key)
		}
	}
	for _, key := range before {
		if _, found := slices.BinarySearch(after, key); !found {
			change.Removed = append(change.Removed, key)
		}
	}
	change.Unchanged = len(change.Added) == 0 && len(change.Removed) == 0
	return change
}

func startMetricsServer(logger log.Logger, addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(metricsEndpoint, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Prometheus metrics available", "listenAddr", addr, "endpoint", metricsEndpoint)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failure", "error", err)
		}
	}()
	return server
}
