package ecc

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	digestSize = sha256.Size

	// maxSignIterations bounds the nonce search. Each candidate is canonical
	// with probability close to one half.
	maxSignIterations = 256
)

// SignOptions tunes nonce generation.
type SignOptions struct {
	// Randomized mixes 32 bytes from Entropy into every RFC6979 nonce, so the
	// same message signed twice yields different signatures.
	Randomized bool
	// Entropy defaults to crypto/rand.Reader.
	Entropy io.Reader
}

// EphemeralSignature is the result of SignWithRandomKey.
type EphemeralSignature struct {
	Signature  *Signature
	PrivateKey *PrivateKey
	PublicKey  *PublicKey
}

// Digest returns sha256(message), the value that is actually signed.
func Digest(message []byte) []byte {
	sum := sha256.Sum256(message)
	return sum[:]
}

// Sign signs sha256(message) deterministically.
func Sign(message []byte, priv *PrivateKey) (*Signature, error) {
	return SignHash(Digest(message), priv)
}

// SignWithOptions signs sha256(message) with the given nonce options.
func SignWithOptions(message []byte, priv *PrivateKey, opts SignOptions) (*Signature, error) {
	return SignHashWithOptions(Digest(message), priv, opts)
}

// SignHash signs a precomputed 32 byte digest deterministically.
func SignHash(digest []byte, priv *PrivateKey) (*Signature, error) {
	return SignHashWithOptions(digest, priv, SignOptions{})
}

// SignHashWithOptions signs a precomputed 32 byte digest. The result is
// always low-S and EOSIO canonical.
func SignHashWithOptions(digest []byte, priv *PrivateKey, opts SignOptions) (*Signature, error) {
	if len(digest) != digestSize {
		return nil, fmt.Errorf("%w: digest must be %d bytes, got %d", ErrSigningFailure, digestSize, len(digest))
	}
	if priv == nil || priv.key == nil || priv.key.Key.IsZero() {
		return nil, fmt.Errorf("%w: private key is not usable", ErrSigningFailure)
	}

	var extra []byte
	if opts.Randomized {
		entropy := opts.Entropy
		if entropy == nil {
			entropy = rand.Reader
		}
		extra = make([]byte, 32)
		if _, err := io.ReadFull(entropy, extra); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEntropyFailure, err)
		}
	}

	privKeyBytes := priv.key.Key.Bytes()
	defer clear(privKeyBytes[:])

	for iteration := uint32(0); iteration < maxSignIterations; iteration++ {
		k := secp256k1.NonceRFC6979(privKeyBytes[:], digest, extra, nil, iteration)
		sig, ok := signWithNonce(&priv.key.Key, digest, k)
		k.Zero()
		if ok && sig.IsCanonical() {
			return sig, nil
		}
	}
	return nil, fmt.Errorf("%w: no canonical signature after %d nonces", ErrSigningFailure, maxSignIterations)
}

// signWithNonce computes (r, s) = (x(kG) mod n, k^-1(e + dr) mod n) with
// s forced into the lower half of the order. It reports false when r or s
// is zero and the caller must move to the next nonce.
func signWithNonce(d *secp256k1.ModNScalar, digest []byte, k *secp256k1.ModNScalar) (*Signature, bool) {
	var kG secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &kG)
	kG.ToAffine()

	xBytes := kG.X.Bytes()
	var r secp256k1.ModNScalar
	overflow := r.SetBytes(xBytes)
	if r.IsZero() {
		return nil, false
	}

	recoveryID := byte(overflow << 1)
	if kG.Y.IsOdd() {
		recoveryID |= 1
	}

	var e secp256k1.ModNScalar
	e.SetByteSlice(digest)

	kInv := new(secp256k1.ModNScalar).InverseValNonConst(k)
	s := new(secp256k1.ModNScalar).Mul2(d, &r).Add(&e).Mul(kInv)
	if s.IsZero() {
		return nil, false
	}
	if s.IsOverHalfOrder() {
		// -s belongs to the nonce -k whose point has the opposite y parity.
		s.Negate()
		recoveryID ^= 1
	}

	sig := &Signature{RecoveryID: recoveryID}
	r.PutBytes(&sig.R)
	s.PutBytes(&sig.S)
	return sig, true
}

// SignWithRandomKey generates a fresh key pair and signs message with it.
// The caller owns the returned private key.
func SignWithRandomKey(message []byte) (*EphemeralSignature, error) {
	pair, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	sig, err := Sign(message, pair.PrivateKey)
	if err != nil {
		return nil, err
	}
	return &EphemeralSignature{
		Signature:  sig,
		PrivateKey: pair.PrivateKey,
		PublicKey:  pair.PublicKey,
	}, nil
}
