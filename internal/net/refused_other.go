//go:build !windows

package net

import (
	"errors"
	"syscall"
)

// isRefused reports whether a dial failed because nothing listens on the
// address.
func isRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}
