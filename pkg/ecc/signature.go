package ecc

import (
	"fmt"
	"strings"
)

const (
	signatureSize = 65

	// compactMagic is the compact recovery byte offset: 27 plus 4 for a
	// compressed public key.
	compactMagic byte = 27 + 4

	maxRecoveryID byte = 3
)

// Signature is a compact secp256k1 signature with its recovery indicator.
//
// Bit 0 of RecoveryID is the y parity of the nonce point, bit 1 is set when
// the nonce point x coordinate was not below the curve order.
type Signature struct {
	RecoveryID byte
	R          [32]byte
	S          [32]byte
}

// RecoveryParam returns the recovery indicator in [0, 3] for signatures
// produced by Sign. Parsed signatures may carry any value; Recover rejects
// values above 3.
func (s *Signature) RecoveryParam() byte {
	return s.RecoveryID
}

// Bytes returns i | r | s with i = 31 + RecoveryID.
func (s *Signature) Bytes() []byte {
	out := make([]byte, 0, signatureSize)
	out = append(out, compactMagic+s.RecoveryID)
	out = append(out, s.R[:]...)
	out = append(out, s.S[:]...)
	return out
}

// String returns the "SIG_K1_" encoding.
func (s *Signature) String() string {
	return signatureK1Prefix + encodeCheck(s.Bytes(), ripemd160K1)
}

// MarshalText implements encoding.TextMarshaler.
func (s *Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(text []byte) error {
	parsed, err := ParseSignature(string(text))
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// ParseSignature decodes a "SIG_K1_" string. Only the encoding is checked
// here: an out of range recovery indicator or r/s value is reported by
// Recover, which is the operation that depends on them.
func ParseSignature(encoded string) (*Signature, error) {
	if !strings.HasPrefix(encoded, signatureK1Prefix) {
		return nil, fmt.Errorf("%w: missing %s prefix", ErrMalformedSignature, signatureK1Prefix)
	}

	payload, ok := decodeCheck(strings.TrimPrefix(encoded, signatureK1Prefix), ripemd160K1)
	if !ok {
		return nil, fmt.Errorf("%w: bad encoding or checksum", ErrMalformedSignature)
	}
	return SignatureFromBytes(payload)
}

// SignatureFromBytes parses the 65 byte i | r | s form.
func SignatureFromBytes(compact []byte) (*Signature, error) {
	if len(compact) != signatureSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, signatureSize, len(compact))
	}

	// Wraps around for i < 31 so those end up far outside [0, 3].
	sig := &Signature{RecoveryID: compact[0] - compactMagic}
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:])
	return sig, nil
}

// isCanonical is the EOSIO canonical-form rule for one signature component:
// the top bit is clear and the value is not zero-padded.
func isCanonical(v *[32]byte) bool {
	return v[0]&0x80 == 0 && !(v[0] == 0 && v[1]&0x80 == 0)
}

// IsCanonical reports whether both r and s satisfy the EOSIO canonical-form
// rule. Nodes reject transactions carrying non-canonical signatures.
func (s *Signature) IsCanonical() bool {
	return isCanonical(&s.R) && isCanonical(&s.S)
}
