// Package client talks to the remote identity service on behalf of the
// session core.
//
// # Overview
//
// The package provides:
//  1. The transport-agnostic contract (see the Client interface): Login,
//     Register, Me, Logout and Health.
//  2. Two implementations: HTTPClient (JSON over HTTP, the service's
//     native contract) and GRPCClient (protobuf Struct payloads over gRPC).
//  3. The cross-cutting stages every call passes through, registered once
//     where the transport is built:
//     - RequestIDStage stamps a correlation id.
//     - Authorizer attaches "Authorization: Bearer <token>" when the stored
//     credential is well-formed, and discards it from the store when not.
//     - Guard watches every result and, on a 401-equivalent, clears the
//     stored credential and the current identity before the error is
//     returned to the caller.
//
// # Error Handling
//
// Failures are exposed as sentinel errors matched with errors.Is:
// ErrUnauthorized, ErrForbidden, ErrInvalidCredentials, ErrConflict,
// ErrValidation, ErrTimeout, ErrUnavailable. Business failures carry the
// service's message in a *ServiceError.
//
// # Concurrency & Contexts
//
// Clients and stages are safe for concurrent use. Every call takes a
// context.Context and honors its cancellation and deadline.
package client
