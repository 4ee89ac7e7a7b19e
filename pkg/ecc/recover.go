package ecc

import (
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	recoveryOddBit      = 0x01
	recoveryOverflowBit = 0x02
)

// orderAsField is the group order n as a field element. Adding it to r
// restores the nonce x coordinate when the overflow bit is set.
var orderAsField = func() *secp256k1.FieldVal {
	var n [32]byte
	secp256k1.Params().N.FillBytes(n[:])

	f := new(secp256k1.FieldVal)
	f.SetBytes(&n)
	return f
}()

// Recover returns the public key that produced sig over sha256(message).
//
// A message that differs from the signed one does not produce an error; it
// produces a different, valid looking key. Compare the result with a trusted
// key before relying on it.
func Recover(sig *Signature, message []byte) (*PublicKey, error) {
	return RecoverHash(sig, Digest(message))
}

// RecoverHash returns the public key that produced sig over a precomputed
// 32 byte digest.
//
//  1. r, s must be in [1, n-1]
//  2. x = r, or r + n when the overflow bit is set (must stay below p)
//  3. R = (x, y) with y chosen by the parity bit
//  4. Q = r^-1 (sR - eG)
func RecoverHash(sig *Signature, digest []byte) (*PublicKey, error) {
	if sig == nil {
		return nil, fmt.Errorf("%w: nil signature", ErrRecoveryFailure)
	}
	if sig.RecoveryID > maxRecoveryID {
		return nil, fmt.Errorf("%w: recovery indicator %d out of range", ErrRecoveryFailure, sig.RecoveryID)
	}
	if len(digest) != digestSize {
		return nil, fmt.Errorf("%w: digest must be %d bytes, got %d", ErrRecoveryFailure, digestSize, len(digest))
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetBytes(&sig.R); overflow != 0 || r.IsZero() {
		return nil, fmt.Errorf("%w: r is not in [1, n-1]", ErrRecoveryFailure)
	}
	if overflow := s.SetBytes(&sig.S); overflow != 0 || s.IsZero() {
		return nil, fmt.Errorf("%w: s is not in [1, n-1]", ErrRecoveryFailure)
	}

	var x secp256k1.FieldVal
	x.SetBytes(&sig.R)
	if sig.RecoveryID&recoveryOverflowBit != 0 {
		if x.IsGtOrEqPrimeMinusOrder() {
			return nil, fmt.Errorf("%w: r + n exceeds the field prime", ErrRecoveryFailure)
		}
		x.Add(orderAsField)
	}
	x.Normalize()

	var y secp256k1.FieldVal
	if !secp256k1.DecompressY(&x, sig.RecoveryID&recoveryOddBit != 0, &y) {
		return nil, fmt.Errorf("%w: r is not the x coordinate of a curve point", ErrRecoveryFailure)
	}
	y.Normalize()

	var nonce secp256k1.JacobianPoint
	nonce.X.Set(&x)
	nonce.Y.Set(&y)
	nonce.Z.SetInt(1)

	var e secp256k1.ModNScalar
	e.SetByteSlice(digest)

	w := new(secp256k1.ModNScalar).InverseValNonConst(&r)
	u1 := new(secp256k1.ModNScalar).Mul2(&e, w).Negate()
	u2 := new(secp256k1.ModNScalar).Mul2(&s, w)

	var u1G, u2R, q secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(u1, &u1G)
	secp256k1.ScalarMultNonConst(u2, &nonce, &u2R)
	secp256k1.AddNonConst(&u1G, &u2R, &q)

	if (q.X.IsZero() && q.Y.IsZero()) || q.Z.IsZero() {
		return nil, fmt.Errorf("%w: recovered point at infinity", ErrRecoveryFailure)
	}
	q.ToAffine()

	pub := secp256k1.NewPublicKey(&q.X, &q.Y)
	if !pub.IsOnCurve() {
		return nil, fmt.Errorf("%w: recovered point is not on the curve", ErrRecoveryFailure)
	}
	return &PublicKey{key: pub}, nil
}

// Verify reports whether sig is a valid signature of sha256(message) by pub.
// Unlike Recover it does detect a message mismatch.
func Verify(sig *Signature, message []byte, pub *PublicKey) bool {
	return VerifyHash(sig, Digest(message), pub)
}

// VerifyHash reports whether sig is a valid signature of digest by pub.
func VerifyHash(sig *Signature, digest []byte, pub *PublicKey) bool {
	if sig == nil || pub == nil || len(digest) != digestSize {
		return false
	}

	var r, s secp256k1.ModNScalar
	if r.SetBytes(&sig.R) != 0 || s.SetBytes(&sig.S) != 0 {
		return false
	}
	return ecdsa.NewSignature(&r, &s).Verify(digest, pub.key)
}

// Points is the numeric view of a recovered key and its signature, with
// every coordinate as a base 10 string.
type Points struct {
	PublicKey struct {
		X string `json:"x"`
		Y string `json:"y"`
	} `json:"publicKey"`
	Signature struct {
		R string `json:"r"`
		S string `json:"s"`
	} `json:"signature"`
}

// PublicKeyPoints recovers the signer of message and returns the raw
// coordinates of the key and the signature components, for verifiers that
// work on curve points instead of encoded strings.
func PublicKeyPoints(sig *Signature, message []byte) (*Points, error) {
	pub, err := Recover(sig, message)
	if err != nil {
		return nil, err
	}

	x, y := pub.Point()
	points := &Points{}
	points.PublicKey.X = decimalString(x[:])
	points.PublicKey.Y = decimalString(y[:])
	points.Signature.R = decimalString(sig.R[:])
	points.Signature.S = decimalString(sig.S[:])
	return points, nil
}

func decimalString(b []byte) string {
	return new(big.Int).SetBytes(b).String()
}
