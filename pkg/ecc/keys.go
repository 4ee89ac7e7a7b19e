package ecc

import (
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	privateKeySize = 32
	publicKeySize  = 33
)

// PrivateKey is a secp256k1 scalar in [1, n-1].
//
// Its String and Format methods never reveal key material, so a value that
// ends up in a log line or a %v format is harmless. Use WIF or K1String to
// obtain the real encodings.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey is a point on secp256k1 other than the point at infinity.
type PublicKey struct {
	key *secp256k1.PublicKey
}

// KeyPair is a private key and the public key derived from it.
type KeyPair struct {
	PrivateKey *PrivateKey
	PublicKey  *PublicKey
}

// NewPrivateKey validates a big-endian 32 byte scalar and wraps it.
func NewPrivateKey(scalar []byte) (*PrivateKey, error) {
	if len(scalar) != privateKeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidScalar, privateKeySize, len(scalar))
	}

	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(scalar); overflow {
		return nil, fmt.Errorf("%w: scalar is not below the curve order", ErrInvalidScalar)
	}
	if s.IsZero() {
		return nil, fmt.Errorf("%w: scalar is zero", ErrInvalidScalar)
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&s)}, nil
}

// DecodePrivateKey parses a legacy WIF private key.
func DecodePrivateKey(wif string) (*PrivateKey, error) {
	payload, ok := decodeCheck(wif, doubleSHA256)
	if !ok {
		return nil, fmt.Errorf("%w: bad WIF encoding or checksum", ErrMalformedKey)
	}
	if len(payload) != privateKeySize+1 || payload[0] != wifVersion {
		return nil, fmt.Errorf("%w: unexpected WIF payload", ErrMalformedKey)
	}
	return NewPrivateKey(payload[1:])
}

// ParsePrivateKey accepts either the legacy WIF form or the "PVT_K1_" form.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	if !strings.HasPrefix(s, privateKeyK1Prefix) {
		return DecodePrivateKey(s)
	}

	payload, ok := decodeCheck(strings.TrimPrefix(s, privateKeyK1Prefix), ripemd160K1)
	if !ok {
		return nil, fmt.Errorf("%w: bad %s encoding or checksum", ErrMalformedKey, privateKeyK1Prefix)
	}
	if len(payload) != privateKeySize {
		return nil, fmt.Errorf("%w: unexpected %s payload", ErrMalformedKey, privateKeyK1Prefix)
	}
	return NewPrivateKey(payload)
}

// EncodePrivateKey returns the legacy WIF form of the key.
func EncodePrivateKey(priv *PrivateKey) string {
	return priv.WIF()
}

// WIF returns the legacy WIF encoding.
func (p *PrivateKey) WIF() string {
	payload := make([]byte, 0, privateKeySize+1)
	payload = append(payload, wifVersion)
	payload = append(payload, p.key.Serialize()...)
	return encodeCheck(payload, doubleSHA256)
}

// K1String returns the "PVT_K1_" encoding.
func (p *PrivateKey) K1String() string {
	return privateKeyK1Prefix + encodeCheck(p.key.Serialize(), ripemd160K1)
}

// PublicKey derives the public key d*G.
func (p *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: p.key.PubKey()}
}

// Bytes returns the big-endian scalar. The caller owns the returned slice.
func (p *PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// Zero overwrites the key material. The key is unusable afterwards.
func (p *PrivateKey) Zero() {
	p.key.Zero()
}

// String implements fmt.Stringer without exposing key material.
func (p *PrivateKey) String() string {
	return "PrivateKey(redacted)"
}

// Format implements fmt.Formatter so that every verb, %#v and %x included,
// prints the redacted form.
func (p *PrivateKey) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(p.String()))
}

// DerivePublicKey returns d*G for a big-endian 32 byte scalar d. It fails
// with ErrInvalidScalar when d is zero or not below the curve order.
func DerivePublicKey(scalar []byte) (*PublicKey, error) {
	priv, err := NewPrivateKey(scalar)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	return priv.PublicKey(), nil
}

// NewPublicKey parses a 33 byte SEC1 compressed point.
func NewPublicKey(compressed []byte) (*PublicKey, error) {
	if len(compressed) != publicKeySize {
		return nil, fmt.Errorf("%w: expected %d compressed bytes, got %d", ErrInvalidPoint, publicKeySize, len(compressed))
	}
	key, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	return &PublicKey{key: key}, nil
}

// DecodePublicKey parses a legacy public key carrying the given prefix.
func DecodePublicKey(s, prefix string) (*PublicKey, error) {
	if prefix == "" || !strings.HasPrefix(s, prefix) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrMalformedKey, prefix)
	}

	payload, ok := decodeCheck(strings.TrimPrefix(s, prefix), ripemd160Plain)
	if !ok {
		return nil, fmt.Errorf("%w: bad public key encoding or checksum", ErrMalformedKey)
	}
	return NewPublicKey(payload)
}

// ParsePublicKey accepts the "PUB_K1_" form or the legacy form with the
// default "EOS" prefix.
func ParsePublicKey(s string) (*PublicKey, error) {
	return ParsePublicKeyWithPrefix(s, DefaultKeyPrefix)
}

// ParsePublicKeyWithPrefix accepts the "PUB_K1_" form or the legacy form with
// a network specific prefix.
func ParsePublicKeyWithPrefix(s, prefix string) (*PublicKey, error) {
	if !strings.HasPrefix(s, publicKeyK1Prefix) {
		return DecodePublicKey(s, prefix)
	}

	payload, ok := decodeCheck(strings.TrimPrefix(s, publicKeyK1Prefix), ripemd160K1)
	if !ok {
		return nil, fmt.Errorf("%w: bad %s encoding or checksum", ErrMalformedKey, publicKeyK1Prefix)
	}
	return NewPublicKey(payload)
}

// EncodePublicKey returns the legacy form with the default "EOS" prefix.
func EncodePublicKey(pub *PublicKey) string {
	return pub.String()
}

// String returns the legacy encoding with the default "EOS" prefix.
func (p *PublicKey) String() string {
	return p.StringWithPrefix(DefaultKeyPrefix)
}

// StringWithPrefix returns the legacy encoding with a custom network prefix.
func (p *PublicKey) StringWithPrefix(prefix string) string {
	return prefix + encodeCheck(p.Bytes(), ripemd160Plain)
}

// K1String returns the "PUB_K1_" encoding.
func (p *PublicKey) K1String() string {
	return publicKeyK1Prefix + encodeCheck(p.Bytes(), ripemd160K1)
}

// Bytes returns the 33 byte SEC1 compressed form.
func (p *PublicKey) Bytes() []byte {
	return p.key.SerializeCompressed()
}

// Point returns the affine coordinates as 32 byte big-endian integers.
func (p *PublicKey) Point() (x, y [32]byte) {
	p.key.X().FillBytes(x[:])
	p.key.Y().FillBytes(y[:])
	return x, y
}

// Equals reports whether both keys are the same curve point.
func (p *PublicKey) Equals(other *PublicKey) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.key.IsEqual(other.key)
}

// MarshalText implements encoding.TextMarshaler using the legacy encoding.
func (p *PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Both the legacy "EOS"
// form and the "PUB_K1_" form are accepted.
func (p *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	p.key = parsed.key
	return nil
}
