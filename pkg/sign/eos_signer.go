package sign

import (
	"fmt"

	"github.com/cambiatus/eosauth/pkg/ecc"
)

// Ensure our types implement the interfaces at compile time.
var _ Signer = (*EOSSigner)(nil)
var _ PublicKeyRecoverer = (*EOSRecoverer)(nil)
var _ PublicKey = EOSPublicKey{}

// EOSPublicKey implements the PublicKey interface for EOSIO K1 keys.
type EOSPublicKey struct{ *ecc.PublicKey }

// NewEOSPublicKey wraps an ecc public key.
func NewEOSPublicKey(pub *ecc.PublicKey) EOSPublicKey {
	return EOSPublicKey{pub}
}

// NewEOSPublicKeyFromString parses a legacy "EOS..." or "PUB_K1_..." key.
func NewEOSPublicKeyFromString(s string) (EOSPublicKey, error) {
	pub, err := ecc.ParsePublicKey(s)
	if err != nil {
		return EOSPublicKey{}, fmt.Errorf("failed to parse public key: %w", err)
	}
	return EOSPublicKey{pub}, nil
}

// Equals returns true if this key equals the other key.
func (p EOSPublicKey) Equals(other PublicKey) bool {
	if otherKey, ok := other.(EOSPublicKey); ok {
		return p.PublicKey.Equals(otherKey.PublicKey)
	}
	// Fallback to string comparison for keys wrapped by other implementations
	return other != nil && p.String() == other.String()
}

// EOSSigner is the EOSIO implementation of the Signer interface.
type EOSSigner struct {
	privateKey *ecc.PrivateKey
	publicKey  EOSPublicKey
	options    ecc.SignOptions
}

// EOSSignerOption configures an EOSSigner.
type EOSSignerOption func(*EOSSigner)

// WithRandomizedNonces mixes fresh entropy into every signature.
func WithRandomizedNonces() EOSSignerOption {
	return func(s *EOSSigner) {
		s.options.Randomized = true
	}
}

// NewEOSSigner creates a new signer from a WIF or PVT_K1_ private key.
func NewEOSSigner(privateKey string, opts ...EOSSignerOption) (Signer, error) {
	key, err := ecc.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("could not parse EOS private key: %w", err)
	}
	return NewEOSSignerFromKey(key, opts...), nil
}

// NewEOSSignerFromKey creates a new signer that takes ownership of key.
func NewEOSSignerFromKey(key *ecc.PrivateKey, opts ...EOSSignerOption) *EOSSigner {
	s := &EOSSigner{
		privateKey: key,
		publicKey:  EOSPublicKey{key.PublicKey()},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EOSSigner) PublicKey() PublicKey { return s.publicKey }

// Sign signs sha256(message). The message must already be in its canonical
// byte form, see Canonicalize.
func (s *EOSSigner) Sign(message []byte) (Signature, error) {
	sig, err := ecc.SignWithOptions(message, s.privateKey, s.options)
	if err != nil {
		return nil, err
	}
	return Signature(sig.Bytes()), nil
}

// EOSRecoverer implements the PublicKeyRecoverer interface for EOSIO K1 signatures.
type EOSRecoverer struct{}

// RecoverPublicKey implements the PublicKeyRecoverer interface.
func (r *EOSRecoverer) RecoverPublicKey(message []byte, signature Signature) (PublicKey, error) {
	return RecoverPublicKeyFromHash(ecc.Digest(message), signature)
}

// RecoverPublicKeyFromHash recovers a public key from a signature using a pre-computed sha256 hash.
func RecoverPublicKeyFromHash(hash []byte, signature Signature) (PublicKey, error) {
	sig, err := signature.compact()
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}
	pub, err := ecc.RecoverHash(sig, hash)
	if err != nil {
		return nil, fmt.Errorf("signature recovery failed: %w", err)
	}
	return EOSPublicKey{pub}, nil
}
