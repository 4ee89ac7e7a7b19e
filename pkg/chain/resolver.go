package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cambiatus/eosauth/pkg/ecc"
	"github.com/cambiatus/eosauth/pkg/log"
)

const (
	getAccountPath               = "/v1/chain/get_account"
	getAccountsByAuthorizersPath = "/v1/chain/get_accounts_by_authorizers"
	getKeyAccountsPath           = "/v1/history/get_key_accounts"

	requestIDHeader = "X-Request-Id"
	tracerName      = "github.com/cambiatus/eosauth/pkg/chain"

	maxResponseSize = 4 << 20
)

// Resolver maps account names to public keys and back through the HTTP API
// of a nodeos node. Each call issues exactly one request and never retries.
// A Resolver is safe for concurrent use.
type Resolver struct {
	cfg      Config
	client   *http.Client
	validate *validator.Validate
	logger   log.Logger
	metrics  *Metrics
	tracer   trace.Tracer
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

// WithLogger sets the logger used for lookup diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(metrics *Metrics) Option {
	return func(r *Resolver) {
		r.metrics = metrics
	}
}

// WithTracerProvider sets the provider lookup spans are created from. The
// global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Resolver) {
		r.tracer = tp.Tracer(tracerName)
	}
}

// NewResolver validates cfg and builds a Resolver.
func NewResolver(cfg Config, opts ...Option) (*Resolver, error) {
	validate, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid resolver config: %w", err)
	}

	r := &Resolver{
		cfg:      cfg.withDefaults(),
		client:   &http.Client{},
		validate: validate,
		logger:   log.NewNoopLogger(),
		tracer:   otel.GetTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithName("resolver")
	return r, nil
}

// Config returns the effective configuration, defaults applied.
func (r *Resolver) Config() Config {
	return r.cfg
}

// AccountToPublicKey fetches an account and the keys of all its permissions.
// Every failure is an *AccountLookupError; an unknown account has Kind
// LookupNotFound.
func (r *Resolver) AccountToPublicKey(ctx context.Context, account string) (info *AccountInfo, err error) {
	ctx, finish := r.startLookup(ctx, operationGetAccount, attribute.String("eos.account", account))
	defer func() { finish(err) }()

	if err := r.validate.Struct(accountQuery{Name: account}); err != nil {
		return nil, accountError(LookupInvalidInput, account, fmt.Errorf("invalid account name %q", account))
	}

	var resp getAccountResponse
	if kind, cause := r.post(ctx, getAccountPath, getAccountRequest{AccountName: account}, &resp); cause != nil {
		return nil, accountError(kind, account, cause)
	}

	info, skipped, decodeErr := resp.toAccountInfo(r.cfg.KeyPrefix)
	if decodeErr != nil {
		return nil, accountError(LookupDecode, account, decodeErr)
	}
	if len(skipped) > 0 {
		log.FromContext(ctx).Debug("skipped keys of unsupported curves", "account", account, "keys", skipped)
	}
	if info.Name != account {
		return nil, accountError(LookupDecode, account, fmt.Errorf("directory returned account %q", info.Name))
	}

	log.FromContext(ctx).Debug("account resolved", "account", account, "keys", len(info.PublicKeys()))
	return info, nil
}

// PublicKeyToAccount lists the accounts that pub takes part in. A key that
// authorizes nothing yields an empty slice, not an error. Accounts are
// reported once even when the key appears in several of their permissions.
func (r *Resolver) PublicKeyToAccount(ctx context.Context, pub *ecc.PublicKey) (accounts []AccountInfo, err error) {
	var key string
	if pub != nil {
		key = pub.StringWithPrefix(r.cfg.KeyPrefix)
	}

	ctx, finish := r.startLookup(ctx, operationKeyAccounts, attribute.String("eos.public_key", key))
	defer func() { finish(err) }()

	if pub == nil {
		return nil, keyError(LookupInvalidInput, key, errors.New("public key is required"))
	}

	if r.cfg.UseHistoryAPI {
		accounts, err = r.historyKeyAccounts(ctx, key)
	} else {
		accounts, err = r.authorizedAccounts(ctx, key)
	}
	if err != nil {
		return nil, err
	}

	log.FromContext(ctx).Debug("key accounts resolved", "key", key, "accounts", len(accounts))
	return accounts, nil
}

func (r *Resolver) authorizedAccounts(ctx context.Context, key string) ([]AccountInfo, error) {
	req := getAccountsByAuthorizersRequest{Accounts: []PermissionLevel{}, Keys: []string{key}}

	var resp getAccountsByAuthorizersResponse
	if kind, cause := r.post(ctx, getAccountsByAuthorizersPath, req, &resp); cause != nil {
		return nil, keyError(kind, key, cause)
	}

	accounts := make([]AccountInfo, 0, len(resp.Accounts))
	index := make(map[string]int, len(resp.Accounts))
	for _, acc := range resp.Accounts {
		if !IsValidAccountName(acc.AccountName) {
			return nil, keyError(LookupDecode, key, fmt.Errorf("directory returned invalid account name %q", acc.AccountName))
		}

		i, seen := index[acc.AccountName]
		if !seen {
			i = len(accounts)
			index[acc.AccountName] = i
			accounts = append(accounts, AccountInfo{Name: acc.AccountName})
		}

		perm := Permission{Name: acc.PermissionName, Required: Authority{Threshold: acc.Threshold}}
		if acc.AuthorizingKey != "" {
			pub, err := ecc.ParsePublicKeyWithPrefix(acc.AuthorizingKey, r.cfg.KeyPrefix)
			if err != nil {
				return nil, keyError(LookupDecode, key, err)
			}
			perm.Required.Keys = []KeyWeight{{Key: pub, Weight: acc.Weight}}
		}
		accounts[i].Permissions = append(accounts[i].Permissions, perm)
	}
	return accounts, nil
}

func (r *Resolver) historyKeyAccounts(ctx context.Context, key string) ([]AccountInfo, error) {
	var resp getKeyAccountsResponse
	if kind, cause := r.post(ctx, getKeyAccountsPath, getKeyAccountsRequest{PublicKey: key}, &resp); cause != nil {
		return nil, keyError(kind, key, cause)
	}

	accounts := make([]AccountInfo, 0, len(resp.AccountNames))
	seen := make(map[string]struct{}, len(resp.AccountNames))
	for _, name := range resp.AccountNames {
		if !IsValidAccountName(name) {
			return nil, keyError(LookupDecode, key, fmt.Errorf("directory returned invalid account name %q", name))
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		accounts = append(accounts, AccountInfo{Name: name})
	}
	return accounts, nil
}

// startLookup applies the lookup deadline, opens a span and binds a request
// scoped logger to the returned context. finish must be called exactly once
// with the lookup result.
func (r *Resolver) startLookup(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	started := time.Now()
	requestID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	ctx, span := r.tracer.Start(ctx, "chain."+operation, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(append(attrs, attribute.String("request.id", requestID))...)

	lg := r.logger.WithKV("operation", operation).WithKV("requestId", requestID)
	ctx = log.SetContextLogger(context.WithValue(ctx, requestIDKey{}, requestID), lg)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.FromContext(ctx).Warn("directory lookup failed", "error", err)
		}
		r.metrics.observe(operation, started, err)
		span.End()
		cancel()
	}
}

type requestIDKey struct{}

// post sends body as JSON and decodes a 2xx response into out. Failures are
// returned as a kind and a cause for the caller to wrap.
func (r *Resolver) post(ctx context.Context, path string, body, out any) (LookupKind, error) {
	endpoint, err := r.cfg.endpointURL(path)
	if err != nil {
		return LookupInvalidInput, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return LookupInvalidInput, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return LookupInvalidInput, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		req.Header.Set(requestIDHeader, requestID)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return LookupTransport, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return LookupTransport, fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return classifyFailure(res.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return LookupDecode, fmt.Errorf("failed to decode response: %w", err)
	}
	return 0, nil
}

// classifyFailure turns a non-2xx response into a lookup kind. nodeos reports
// unknown accounts as HTTP 500 with an error name, so the body decides.
func classifyFailure(status int, raw []byte) (LookupKind, error) {
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		if status == http.StatusNotFound {
			return LookupNotFound, fmt.Errorf("HTTP %d", status)
		}
		return LookupTransport, fmt.Errorf("HTTP %d: %s", status, truncate(string(raw), 200))
	}

	cause := apiErr.Error.What
	if cause == "" {
		cause = apiErr.Message
	}
	for _, detail := range apiErr.Error.Details {
		if detail.Message != "" {
			cause = detail.Message
			break
		}
	}
	causeErr := fmt.Errorf("HTTP %d: %s", status, cause)

	if isNotFound(status, &apiErr) {
		return LookupNotFound, causeErr
	}
	return LookupTransport, causeErr
}

func isNotFound(status int, apiErr *apiError) bool {
	switch apiErr.Error.Name {
	case "unknown_key", "account_query_exception":
		return true
	}
	if strings.Contains(strings.ToLower(apiErr.Error.What), "unknown key") {
		return true
	}
	for _, detail := range apiErr.Error.Details {
		if strings.Contains(strings.ToLower(detail.Message), "unknown key") {
			return true
		}
	}
	return status == http.StatusNotFound && apiErr.Error.Name == ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
