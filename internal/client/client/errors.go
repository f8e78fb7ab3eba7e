package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	ErrUnavailable        = errors.New("server unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation error")
	ErrTimeout            = errors.New("timeout")
)

// ServiceError is a business failure reported by the identity service (or
// caught locally before the call). It unwraps to one of the sentinels
// above so callers can branch with errors.Is and still show Message.
type ServiceError struct {
	Kind    error
	Message string
	// Fields holds per-field messages for ErrValidation.
	Fields map[string]string
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if len(e.Fields) == 0 {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", msg, strings.Join(parts, "; "))
}

func (e *ServiceError) Unwrap() error { return e.Kind }

// IsAuthFailure reports a server-confirmed rejection of the credential.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// ValidationFailure converts ozzo validation errors into a ServiceError.
// Other errors are returned unchanged.
func ValidationFailure(err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	return &ServiceError{Kind: ErrValidation, Message: "invalid input", Fields: fields}
}
