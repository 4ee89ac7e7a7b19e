// Package auth implements login by signature.
//
// The server issues a Challenge for an account. The account holder signs the
// challenge Payload with any key of that account and sends the signature
// back. Manager.Verify recovers the signing key, asks the account directory
// which keys the account has, and on a match returns a session token signed
// with HS256.
//
// Challenges are single use and expire after Config.ChallengeTTL. A
// background goroutine sweeps expired challenges until Close is called.
package auth
