package app

import "errors"

// ErrCatastrophic marks failures that end the run with a non-zero exit: the
// side log cannot be opened, the snapshot cannot be written, or a configured
// input is unreadable in strict mode.
var ErrCatastrophic = errors.New("catastrophic pipeline failure")
