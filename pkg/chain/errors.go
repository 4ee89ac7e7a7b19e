package chain

import (
	"errors"
	"fmt"
)

// LookupKind classifies an AccountLookupError.
type LookupKind int

const (
	// LookupTransport covers connection failures, deadlines and unexpected
	// server errors.
	LookupTransport LookupKind = iota + 1
	// LookupNotFound means the directory answered and does not know the account.
	LookupNotFound
	// LookupDecode means the directory answered with a body that could not be
	// interpreted.
	LookupDecode
	// LookupInvalidInput means the request was rejected locally and never sent.
	LookupInvalidInput
)

// Sentinels matched by errors.Is against an *AccountLookupError of the
// corresponding kind.
var (
	ErrTransport    = errors.New("directory unreachable")
	ErrNotFound     = errors.New("account not found")
	ErrDecode       = errors.New("unexpected directory response")
	ErrInvalidInput = errors.New("invalid lookup input")
)

func (k LookupKind) sentinel() error {
	switch k {
	case LookupNotFound:
		return ErrNotFound
	case LookupDecode:
		return ErrDecode
	case LookupInvalidInput:
		return ErrInvalidInput
	default:
		return ErrTransport
	}
}

// String returns the kind name used in metrics and logs.
func (k LookupKind) String() string {
	switch k {
	case LookupNotFound:
		return "not_found"
	case LookupDecode:
		return "decode"
	case LookupInvalidInput:
		return "invalid_input"
	default:
		return "transport"
	}
}

// AccountLookupError is the only error type returned by Resolver. Exactly one
// of Account and Key is set, naming what was looked up.
type AccountLookupError struct {
	Kind    LookupKind
	Account string
	Key     string
	Cause   error
}

func (e *AccountLookupError) Error() string {
	subject := "account " + e.Account
	if e.Key != "" {
		subject = "key " + e.Key
	}
	if e.Cause == nil {
		return fmt.Sprintf("lookup of %s failed: %s", subject, e.Kind.sentinel())
	}
	return fmt.Sprintf("lookup of %s failed: %s: %v", subject, e.Kind.sentinel(), e.Cause)
}

// Unwrap exposes both the kind sentinel and the underlying cause, so
// errors.Is(err, ErrNotFound) and errors.Is(err, context.DeadlineExceeded)
// both work.
func (e *AccountLookupError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Cause}
}

func accountError(kind LookupKind, account string, cause error) *AccountLookupError {
	return &AccountLookupError{Kind: kind, Account: account, Cause: cause}
}

func keyError(kind LookupKind, key string, cause error) *AccountLookupError {
	return &AccountLookupError{Kind: kind, Key: key, Cause: cause}
}
