package log

import "strings"

const redacted = "[REDACTED]"

// Secret wraps a value that must never reach a log sink in clear text, such
// as a WIF private key or a signing secret. It renders as [REDACTED] through
// every logger in this package and through fmt.
type Secret string

// String implements fmt.Stringer.
func (Secret) String() string { return redacted }

// GoString implements fmt.GoStringer.
func (Secret) GoString() string { return redacted }

// MarshalText keeps the value out of JSON encoders.
func (Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Reveal returns the wrapped value.
func (s Secret) Reveal() string { return string(s) }

// sensitiveKeys are field names whose values are dropped regardless of type.
var sensitiveKeys = map[string]struct{}{
	"privatekey":  {},
	"private_key": {},
	"wif":         {},
	"secret":      {},
	"password":    {},
	"jwt":         {},
	"token":       {},
}

func isSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// Redact returns a copy of keysAndValues with every Secret value, and every
// value stored under a sensitive key, replaced by [REDACTED]. The input is
// not modified.
func Redact(keysAndValues []any) []any {
	out := make([]any, len(keysAndValues))
	copy(out, keysAndValues)

	for i := 0; i+1 < len(out); i += 2 {
		if key, ok := out[i].(string); ok && isSensitiveKey(key) {
			out[i+1] = redacted
			continue
		}
		if _, ok := out[i+1].(Secret); ok {
			out[i+1] = redacted
		}
	}
	return out
}
