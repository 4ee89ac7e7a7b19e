package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cambiatus/eosauth/pkg/ecc"
	"github.com/cambiatus/eosauth/pkg/log"
)

const (
	devPrivateKey = "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3"
	devPublicKey  = "EOS6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV"
)

func run(t *testing.T, name string, args ...string) (map[string]any, error) {
	t.Helper()

	var out bytes.Buffer
	if err := runCli(context.Background(), log.NewNoopLogger(), name, args, &out); err != nil {
		return nil, err
	}

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded), out.String())
	return decoded, nil
}

// stubDirectory serves alice, whose active permission holds the dev key.
func stubDirectory(t *testing.T) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/chain/get_account":
			var body struct {
				AccountName string `json:"account_name"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.AccountName != "alice" {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"code":500,"error":{"name":"unknown_key","what":"unknown key"}}`))
				return
			}
			_, _ = w.Write([]byte(`{
				"account_name": "alice",
				"core_liquid_balance": "5.0000 EOS",
				"permissions": [{
					"perm_name": "active",
					"parent": "owner",
					"required_auth": {"threshold": 1, "keys": [{"key": "` + devPublicKey + `", "weight": 1}], "accounts": []}
				}]
			}`))
		case "/v1/chain/get_accounts_by_authorizers":
			_, _ = w.Write([]byte(`{"accounts": [
				{"account_name": "alice", "permission_name": "active", "authorizing_key": "` + devPublicKey + `", "weight": 1, "threshold": 1},
				{"account_name": "bob", "permission_name": "active", "authorizing_key": "` + devPublicKey + `", "weight": 1, "threshold": 1}
			]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func setEnv(t *testing.T, endpoint string) {
	t.Helper()

	t.Setenv("EOSAUTH_CONFIG_DIR_PATH", t.TempDir())
	t.Setenv("EOSAUTH_NETWORK", "development")
	t.Setenv("EOS_ENDPOINT", endpoint)
	t.Setenv("EOSAUTH_LOOKUP_TIMEOUT", "2s")
	t.Setenv("EOSAUTH_USE_HISTORY_API", "false")
	t.Setenv("EOSAUTH_METRICS_ADDR", "")
	t.Setenv("GRAPHQL_SECRET", "cli-test-session-secret")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_OUTPUT", "stderr")
	t.Setenv(privateKeyEnv, devPrivateKey)
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "keygen")
	require.NoError(t, err)

	priv, err := ecc.DecodePrivateKey(out["privateKey"].(string))
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey().String(), out["publicKey"])
	assert.Equal(t, priv.PublicKey().K1String(), out["publicKeyK1"])

	out, err = run(t, "keygen", "-k1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out["privateKey"].(string), "PVT_K1_"))
}

func TestSignRecoverVerify(t *testing.T) {
	t.Setenv(privateKeyEnv, devPrivateKey)

	signed, err := run(t, "sign", "-message", `{ "id": 1 }`, "-canonical")
	require.NoError(t, err)
	assert.Equal(t, devPublicKey, signed["publicKey"])
	assert.Equal(t, `{"id":1}`, signed["message"])
	sig := signed["signature"].(string)
	assert.True(t, strings.HasPrefix(sig, "SIG_K1_"))

	t.Run("deterministic", func(t *testing.T) {
		again, err := run(t, "sign", "-message", `{"id":1}`)
		require.NoError(t, err)
		assert.Equal(t, sig, again["signature"])
	})

	t.Run("recover", func(t *testing.T) {
		recovered, err := run(t, "recover", "-message", `{"id":1}`, "-signature", sig)
		require.NoError(t, err)
		assert.Equal(t, devPublicKey, recovered["publicKey"])
		assert.Equal(t, signed["digest"], recovered["digest"])
	})

	t.Run("recover from digest", func(t *testing.T) {
		recovered, err := run(t, "recover", "-digest", signed["digest"].(string), "-signature", sig, "-prefix", "TLOS")
		require.NoError(t, err)
		assert.Equal(t, "TLOS"+strings.TrimPrefix(devPublicKey, "EOS"), recovered["publicKey"])
	})

	t.Run("verify", func(t *testing.T) {
		verified, err := run(t, "verify", "-message", `{"id":1}`, "-signature", sig, "-key", devPublicKey)
		require.NoError(t, err)
		assert.Equal(t, true, verified["valid"])

		verified, err = run(t, "verify", "-message", `{"id":2}`, "-signature", sig, "-key", devPublicKey)
		require.NoError(t, err)
		assert.Equal(t, false, verified["valid"])
	})

	t.Run("points", func(t *testing.T) {
		points, err := run(t, "points", "-message", `{"id":1}`, "-signature", sig)
		require.NoError(t, err)
		require.Contains(t, points, "publicKey")
		require.Contains(t, points, "signature")
	})

	t.Run("message from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "message.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"id":1}`), 0o600))

		fromFile, err := run(t, "sign", "-file", path)
		require.NoError(t, err)
		assert.Equal(t, sig, fromFile["signature"])
	})
}

func TestCliErrors(t *testing.T) {
	t.Setenv(privateKeyEnv, "")

	tcs := []struct {
		name string
		cmd  string
		args []string
	}{
		{name: "unknown command", cmd: "frobnicate"},
		{name: "sign without key", cmd: "sign", args: []string{"-message", "hi"}},
		{name: "sign without message", cmd: "sign"},
		{name: "message and digest", cmd: "recover", args: []string{"-message", "hi", "-digest", "0x00"}},
		{name: "short digest", cmd: "recover", args: []string{"-digest", "0x0102", "-signature", "SIG_K1_x"}},
		{name: "missing signature", cmd: "recover", args: []string{"-message", "hi"}},
		{name: "bad signature", cmd: "recover", args: []string{"-message", "hi", "-signature", "SIG_K1_abc"}},
		{name: "points from digest", cmd: "points", args: []string{"-digest", "0x" + strings.Repeat("00", 32), "-signature", "SIG_K1_x"}},
		{name: "verify bad key", cmd: "verify", args: []string{"-message", "hi", "-signature", "SIG_K1_x", "-key", "EOS1"}},
		{name: "unknown flag", cmd: "keygen", args: []string{"-nope"}},
		{name: "account without name", cmd: "account"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.cmd, tc.args...)
			assert.Error(t, err)
		})
	}
}

func TestAccountCommands(t *testing.T) {
	setEnv(t, stubDirectory(t))

	t.Run("account", func(t *testing.T) {
		out, err := run(t, "account", "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", out["account"])
		assert.Equal(t, "5.0000 EOS", out["balance"])
		assert.Equal(t, []any{devPublicKey}, out["publicKeys"])
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := run(t, "account", "nonexistent1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "account not found")
	})

	t.Run("key accounts", func(t *testing.T) {
		out, err := run(t, "key-accounts", devPublicKey)
		require.NoError(t, err)
		assert.Equal(t, []any{"alice", "bob"}, out["accounts"])
	})

	t.Run("login", func(t *testing.T) {
		out, err := run(t, "login", "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", out["account"])
		assert.Equal(t, devPublicKey, out["publicKey"])
		assert.NotEmpty(t, out["token"])
	})

	t.Run("login with a foreign key", func(t *testing.T) {
		pair, err := ecc.GenerateKeyPair()
		require.NoError(t, err)
		t.Setenv(privateKeyEnv, pair.PrivateKey.WIF())

		_, err = run(t, "login", "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "key does not control account")
	})
}

func TestWatch(t *testing.T) {
	setEnv(t, stubDirectory(t))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	err := runCli(ctx, log.NewNoopLogger(), "watch", []string{"-interval", "20ms", "alice"}, &out)
	require.NoError(t, err)

	// The key set never changes, so only the initial state is printed.
	dec := json.NewDecoder(&out)
	var change keyChange
	require.NoError(t, dec.Decode(&change))
	assert.Equal(t, "alice", change.Account)
	assert.Equal(t, []string{devPublicKey}, change.Added)
	assert.False(t, dec.More())
}

func TestDiffKeys(t *testing.T) {
	change := diffKeys([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	assert.Equal(t, []string{"d"}, change.Added)
	assert.Equal(t, []string{"a"}, change.Removed)
	assert.False(t, change.Unchanged)

	assert.True(t, diffKeys([]string{"a"}, []string{"a"}).Unchanged)
}
