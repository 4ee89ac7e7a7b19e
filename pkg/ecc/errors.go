package ecc

import "errors"

// Every error returned by this package wraps exactly one of these, so callers
// can classify failures with errors.Is.
var (
	ErrMalformedKey       = errors.New("malformed key")
	ErrInvalidPoint       = errors.New("invalid curve point")
	ErrInvalidScalar      = errors.New("invalid private scalar")
	ErrEntropyFailure     = errors.New("entropy source failure")
	ErrSigningFailure     = errors.New("signing failure")
	ErrRecoveryFailure    = errors.New("public key recovery failure")
	ErrMalformedSignature = errors.New("malformed signature")
)
