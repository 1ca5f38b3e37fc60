// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the master password does not match the stored hash.
	ErrUnauthorized = errors.New("invalid master password")

	// ErrTransportAuth indicates an envelope could not be decrypted under any
	// accepted challenge (stale challenge, corruption, or tampering).
	ErrTransportAuth = errors.New("transport auth failed")

	// ErrAtRestAuth indicates a sealed blob does not open under the derived key.
	ErrAtRestAuth = errors.New("at-rest auth failed")
)
