package ecc

import (
	"crypto/rand"
	"fmt"
	"io"
)

// maxKeygenAttempts bounds how many rejected scalars are tolerated before the
// entropy source is considered broken. A healthy source rejects a draw with
// probability about 2^-128.
const maxKeygenAttempts = 64

// GenerateKeyPair draws a private key uniformly from [1, n-1] using the
// operating system CSPRNG.
func GenerateKeyPair() (*KeyPair, error) {
	return GenerateKeyPairFromReader(rand.Reader)
}

// GenerateKeyPairFromReader draws a private key from r. Draws that are zero
// or not below the curve order are discarded and redrawn. Read errors and a
// source that keeps producing invalid scalars fail with ErrEntropyFailure.
func GenerateKeyPairFromReader(r io.Reader) (*KeyPair, error) {
	var buf [privateKeySize]byte
	defer clear(buf[:])

	for _i := 0; _i < maxKeygenAttempts; _i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEntropyFailure, err)
		}

		priv, err := NewPrivateKey(buf[:])
		if err != nil {
			continue
		}
		return &KeyPair{PrivateKey: priv, PublicKey: priv.PublicKey()}, nil
	}
	return nil, fmt.Errorf("%w: no valid scalar after %d draws", ErrEntropyFailure, maxKeygenAttempts)
}
