// Package common contains constants shared by the transports, the local
// stores and the session core.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// AuthorizationMetadataKey is the gRPC metadata key for the same value.
	// gRPC metadata keys are lower-case.
	AuthorizationMetadataKey = "authorization"

	// BearerPrefix precedes the raw token in the authorization value.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName carries the per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// RequestIDMetadataKey is the gRPC metadata key for the correlation id.
	RequestIDMetadataKey = "x-request-id"

	// AccessTokenKey is the single durable key holding the raw token.
	AccessTokenKey = "access_token"
)
