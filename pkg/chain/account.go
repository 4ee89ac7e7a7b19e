package chain

import (
	"fmt"
	"strings"
	"time"

	"github.com/cambiatus/eosauth/pkg/ecc"
)

// chainTimeLayout is the block timestamp format. Fractional seconds, when
// present, are accepted by time.Parse without being in the layout.
const chainTimeLayout = "2006-01-02T15:04:05"

// AccountInfo is what the directory knows about an account. Reverse lookups
// only fill Name and the permissions the key takes part in.
type AccountInfo struct {
	Name              string       `json:"account_name"`
	Created           time.Time    `json:"created,omitzero"`
	CoreLiquidBalance *Asset       `json:"core_liquid_balance,omitempty"`
	Permissions       []Permission `json:"permissions,omitempty"`
}

// Permission is a named authority of an account, e.g. owner or active.
type Permission struct {
	Name     string    `json:"perm_name"`
	Parent   string    `json:"parent,omitempty"`
	Required Authority `json:"required_auth"`
}

// Authority is satisfied when the weights of the provided signatures reach
// Threshold.
type Authority struct {
	Threshold uint32                  `json:"threshold"`
	Keys      []KeyWeight             `json:"keys"`
	Accounts  []PermissionLevelWeight `json:"accounts"`
}

type KeyWeight struct {
	Key    *ecc.PublicKey `json:"key"`
	Weight uint16         `json:"weight"`
}

type PermissionLevel struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

type PermissionLevelWeight struct {
	Permission PermissionLevel `json:"permission"`
	Weight     uint16          `json:"weight"`
}

// PublicKeys returns every distinct key of every permission, in permission
// order.
func (a *AccountInfo) PublicKeys() []*ecc.PublicKey {
	var keys []*ecc.PublicKey
	for _, perm := range a.Permissions {
		for _, kw := range perm.Required.Keys {
			if !containsKey(keys, kw.Key) {
				keys = append(keys, kw.Key)
			}
		}
	}
	return keys
}

// HasKey reports whether pub appears in any permission of the account.
func (a *AccountInfo) HasKey(pub *ecc.PublicKey) bool {
	return pub != nil && containsKey(a.PublicKeys(), pub)
}

// Permission returns the named permission, if present.
func (a *AccountInfo) Permission(name string) (Permission, bool) {
	for _, perm := range a.Permissions {
		if perm.Name == name {
			return perm, true
		}
	}
	return Permission{}, false
}

func containsKey(keys []*ecc.PublicKey, pub *ecc.PublicKey) bool {
	for _, k := range keys {
		if k.Equals(pub) {
			return true
		}
	}
	return false
}

// Wire types of the chain and history plugin APIs.

type getAccountRequest struct {
	AccountName string `json:"account_name"`
}

type getAccountResponse struct {
	AccountName       string           `json:"account_name"`
	Created           string           `json:"created"`
	CoreLiquidBalance string           `json:"core_liquid_balance"`
	Permissions       []wirePermission `json:"permissions"`
}

type wirePermission struct {
	PermName     string        `json:"perm_name"`
	Parent       string        `json:"parent"`
	RequiredAuth wireAuthority `json:"required_auth"`
}

type wireAuthority struct {
	Threshold uint32                  `json:"threshold"`
	Keys      []wireKeyWeight         `json:"keys"`
	Accounts  []PermissionLevelWeight `json:"accounts"`
}

type wireKeyWeight struct {
	Key    string `json:"key"`
	Weight uint16 `json:"weight"`
}

type getAccountsByAuthorizersRequest struct {
	Accounts []PermissionLevel `json:"accounts"`
	Keys     []string          `json:"keys"`
}

type getAccountsByAuthorizersResponse struct {
	Accounts []authorizedAccount `json:"accounts"`
}

type authorizedAccount struct {
	AccountName    string `json:"account_name"`
	PermissionName string `json:"permission_name"`
	AuthorizingKey string `json:"authorizing_key"`
	Weight         uint16 `json:"weight"`
	Threshold      uint32 `json:"threshold"`
}

type getKeyAccountsRequest struct {
	PublicKey string `json:"public_key"`
}

type getKeyAccountsResponse struct {
	AccountNames []string `json:"account_names"`
}

// apiError is the body nodeos returns with non-2xx statuses.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   struct {
		Code    int    `json:"code"`
		Name    string `json:"name"`
		What    string `json:"what"`
		Details []struct {
			Message string `json:"message"`
		} `json:"details"`
	} `json:"error"`
}

// isForeignCurveKey reports whether key is a PUB_ key of another curve, such
// as PUB_R1_ or PUB_WA_ (WebAuthn).
func isForeignCurveKey(key string) bool {
	return strings.HasPrefix(key, "PUB_") && !strings.HasPrefix(key, "PUB_K1_")
}

// toAccountInfo converts a get_account response. Keys are parsed with the
// network prefix. Keys of other curves are left out of the result and
// returned as skipped; any other key that does not parse makes the whole
// response invalid.
func (resp *getAccountResponse) toAccountInfo(keyPrefix string) (info *AccountInfo, skipped []string, err error) {
	info = &AccountInfo{Name: resp.AccountName}

	if resp.Created != "" {
		created, err := time.ParseInLocation(chainTimeLayout, resp.Created, time.UTC)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid creation time %q: %w", resp.Created, err)
		}
		info.Created = created
	}

	if resp.CoreLiquidBalance != "" {
		balance, err := ParseAsset(resp.CoreLiquidBalance)
		if err != nil {
			return nil, nil, err
		}
		info.CoreLiquidBalance = &balance
	}

	info.Permissions = make([]Permission, 0, len(resp.Permissions))
	for _, wp := range resp.Permissions {
		keys := make([]KeyWeight, 0, len(wp.RequiredAuth.Keys))
		for _, wk := range wp.RequiredAuth.Keys {
			if isForeignCurveKey(wk.Key) {
				skipped = append(skipped, wk.Key)
				continue
			}
			pub, err := ecc.ParsePublicKeyWithPrefix(wk.Key, keyPrefix)
			if err != nil {
				return nil, nil, fmt.Errorf("permission %s: %w", wp.PermName, err)
			}
			keys = append(keys, KeyWeight{Key: pub, Weight: wk.Weight})
		}

		info.Permissions = append(info.Permissions, Permission{
			Name:   wp.PermName,
			Parent: wp.Parent,
			Required: Authority{
				Threshold: wp.RequiredAuth.Threshold,
				Keys:      keys,
				Accounts:  wp.RequiredAuth.Accounts,
			},
		})
	}
	return info, skipped, nil
}
