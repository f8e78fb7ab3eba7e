package client

import (
	"context"

	"github.com/dmitrijs2005/playerhub/internal/client/models"
)

// Client is the contract the session core expects from the remote
// identity service. Implementations map transport failures onto the
// sentinel errors in errors.go.
type Client interface {
	Close() error
	// Login exchanges email/password for a token and the identity.
	Login(ctx context.Context, creds models.LoginCredentials) (AuthResult, error)
	// Register creates an account and signs it in.
	Register(ctx context.Context, details models.RegistrationDetails) (AuthResult, error)
	// Me resolves the identity behind the attached credential.
	Me(ctx context.Context) (models.Identity, error)
	// Logout asks the service to invalidate the attached credential.
	Logout(ctx context.Context) error
	// Health is a liveness probe, never on the critical session path.
	Health(ctx context.Context) (bool, error)
}

// AuthResult is returned by successful Login and Register calls.
type AuthResult struct {
	Token    string
	Identity models.Identity
}

type ctxKey string

const anonymousKey ctxKey = "anonymous"

// WithoutCredential marks ctx so the request authorizer attaches nothing
// and the response guard ignores authorization failures. Login and
// register run this way: a 401 there means bad input, not a stale session.
func WithoutCredential(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey, true)
}

// IsAnonymous reports whether ctx was marked with WithoutCredential.
func IsAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey).(bool)
	return v
}
