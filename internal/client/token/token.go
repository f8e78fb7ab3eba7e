// Package token holds the structural checks applied to bearer credentials
// on the client. Nothing here verifies signatures or expiry; that is the
// identity service's job.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validator decides whether a raw credential may be attached to a request.
type Validator interface {
	IsWellFormed(raw string) bool
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(raw string) bool

// IsWellFormed satisfies the Validator interface.
func (f ValidatorFunc) IsWellFormed(raw string) bool {
	if f == nil {
		return false
	}
	return f(raw)
}

// Structural is the default Validator: three non-empty dot-separated segments.
var Structural Validator = ValidatorFunc(IsWellFormed)

// IsWellFormed reports whether raw splits on "." into exactly three
// non-empty segments (header.payload.signature shape).
func IsWellFormed(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// ErrUndecodable is returned by Describe when the payload is not JWT claims.
var ErrUndecodable = errors.New("token payload is not decodable")

// Description is an unverified peek at a token's registered claims.
// It is meant for display only and must never drive authorization.
type Description struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token claims an expiry before now.
// A token without an exp claim is never reported as expired.
func (d Description) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt)
}

// Describe decodes the claims of a well-formed JWT without verifying it.
func Describe(raw string) (Description, error) {
	if !IsWellFormed(raw) {
		return Description{}, ErrUndecodable
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return Description{}, errors.Join(ErrUndecodable, err)
	}

	d := Description{Subject: claims.Subject, Issuer: claims.Issuer}
	if claims.IssuedAt != nil {
		d.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		d.ExpiresAt = claims.ExpiresAt.Time
	}
	return d, nil
}
