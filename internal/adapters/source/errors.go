package source

import "errors"

// ErrUnreadableInput is returned in strict mode when an input file cannot be read.
var ErrUnreadableInput = errors.New("input file unreadable")
