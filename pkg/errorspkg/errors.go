// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// ErrInternal indicates an error that must not be exposed to clients as is.
var ErrInternal = errors.New("internal")
