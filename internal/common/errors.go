// Package common defines shared constants and sentinel errors used across
// the client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrNotFound is returned by local stores for a missing key.
	ErrNotFound = errors.New("not found")

	// ErrMalformedToken marks a stored credential that failed the
	// structural check. It is recovered locally and never shown to users.
	ErrMalformedToken = errors.New("malformed token")
)
