package repository

import "errors"

// Sentinel kinds for table errors.
var (
	ErrNotFound   = errors.New("player not found")
	ErrInvalidKey = errors.New("player key needs realm and name")
)
