package ratelimit

import "errors"

var (
	ErrInvalidLimit  = errors.New("rate limit requests must be positive")
	ErrInvalidWindow = errors.New("rate limit window must be positive")
)
