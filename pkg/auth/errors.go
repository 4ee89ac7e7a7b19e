package auth

import "errors"

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeExpired  = errors.New("challenge expired")
	ErrChallengeUsed     = errors.New("challenge already used")
	ErrTooManyChallenges = errors.New("too many pending challenges")
	ErrInvalidAccount    = errors.New("invalid account name")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrKeyNotAuthorized  = errors.New("key does not control account")
	ErrInvalidToken      = errors.New("invalid session token")
	ErrManagerClosed     = errors.New("auth manager closed")
)
