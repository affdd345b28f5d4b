package snapshot

import "errors"

var (
	ErrWriteSnapshot = errors.New("write snapshot")
	ErrOpenSideLog   = errors.New("open side log")
)
