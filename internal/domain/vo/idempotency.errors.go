package vo

import "errors"

var (
	ErrInvalidKey    = errors.New("invalid idempotency key")
	ErrInvalidAppID  = errors.New("invalid app id")
	ErrInvalidStatus = errors.New("invalid record status")
	ErrInvalidTTL    = errors.New("invalid ttl")
)
