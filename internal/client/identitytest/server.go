// Package identitytest provides an in-process identity service that speaks
// both the HTTP and the gRPC form of the identity contract. It exists for
// tests and local runs of the CLI; it is not a production identity provider.
package identitytest

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

// Endpoint names used by SetHook, Calls and LastAuthorization.
const (
	EndpointLogin    = "login"
	EndpointRegister = "register"
	EndpointMe       = "me"
	EndpointLogout   = "logout"
	EndpointHealth   = "health"
)

const issuer = "identitytest"

// Hook runs at the start of an endpoint, after the call is counted.
// Returning an error fails the call with it; blocking delays the call.
type Hook func(ctx context.Context) error

type account struct {
	identity models.Identity
	email    string
	hash     []byte
}

// Server is the fake identity service. The zero value is not usable; call New.
type Server struct {
	mu sync.Mutex

	secret []byte
	ttl    time.Duration
	now    func() time.Time

	accounts   map[string]*account
	byEmail    map[string]string
	byUsername map[string]string
	revoked    map[string]struct{}

	calls    map[string]int
	lastAuth map[string]string
	lastReq  map[string]string
	hooks    map[string]Hook
	healthy  bool
}

type Option func(*Server)

// WithClock overrides time.Now for token issuance and verification.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithTokenTTL sets the lifetime of issued tokens (default one hour).
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

func New(opts ...Option) *Server {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	s := &Server{
		secret:     secret,
		ttl:        time.Hour,
		now:        time.Now,
		accounts:   make(map[string]*account),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		revoked:    make(map[string]struct{}),
		calls:      make(map[string]int),
		lastAuth:   make(map[string]string),
		lastReq:    make(map[string]string),
		hooks:      make(map[string]Hook),
		healthy:    true,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetHook installs h for endpoint. A nil h removes the hook.
func (s *Server) SetHook(endpoint string, h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.hooks, endpoint)
		return
	}
	s.hooks[endpoint] = h
}

// SetHealthy controls the health endpoint's answer.
func (s *Server) SetHealthy(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthy = ok
}

// Calls returns how many times endpoint was hit.
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// LastAuthorization returns the raw authorization value of the last call
// to endpoint ("" if none was sent).
func (s *Server) LastAuthorization(endpoint string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[endpoint]
}

// LastRequestID returns the correlation id of the last call to endpoint.
func (s *Server) LastRequestID(endpoint string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq[endpoint]
}

// CreateAccount registers an account directly, bypassing hooks and counters.
func (s *Server) CreateAccount(details models.RegistrationDetails) (string, models.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.createLocked(details)
	if err != nil {
		return "", models.Identity{}, err
	}
	tok, err := s.issueLocked(acc.identity.ID)
	return tok, acc.identity.Clone(), err
}

// Follow adds followeeID to followerID's following set and the reverse.
func (s *Server) Follow(followerID, followeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[followerID]
	b, ok2 := s.accounts[followeeID]
	if !ok || !ok2 {
		return errors.New("unknown account")
	}
	a.identity.Following = append(a.identity.Following, followeeID)
	b.identity.Followers = append(b.identity.Followers, followerID)
	return nil
}

// Revoke invalidates tok server-side, as logout does.
func (s *Server) Revoke(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if claims, err := s.parseLocked(tok); err == nil {
		s.revoked[claims.ID] = struct{}{}
	}
}

// enter counts the call, records request metadata and runs the hook
// outside the lock.
func (s *Server) enter(ctx context.Context, endpoint, authorization, requestID string) error {
	s.mu.Lock()
	s.calls[endpoint]++
	s.lastAuth[endpoint] = authorization
	s.lastReq[endpoint] = requestID
	h := s.hooks[endpoint]
	s.mu.Unlock()

	if h != nil {
		return h(ctx)
	}
	return nil
}

func (s *Server) login(ctx context.Context, meta callMeta, creds models.LoginCredentials) (authPayload, error) {
	if err := s.enter(ctx, EndpointLogin, meta.authorization, meta.requestID); err != nil {
		return authPayload{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(creds.Email))]
	if !ok {
		return authPayload{}, Unauthorized("invalid email or password")
	}
	acc := s.accounts[id]
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(creds.Password)) != nil {
		return authPayload{}, Unauthorized("invalid email or password")
	}
	tok, err := s.issueLocked(id)
	if err != nil {
		return authPayload{}, err
	}
	return authPayload{Token: tok, Identity: acc.identity.Clone()}, nil
}

func (s *Server) register(ctx context.Context, meta callMeta, details models.RegistrationDetails) (authPayload, error) {
	if err := s.enter(ctx, EndpointRegister, meta.authorization, meta.requestID); err != nil {
		return authPayload{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.createLocked(details)
	if err != nil {
		return authPayload{}, err
	}
	tok, err := s.issueLocked(acc.identity.ID)
	if err != nil {
		return authPayload{}, err
	}
	return authPayload{Token: tok, Identity: acc.identity.Clone()}, nil
}

func (s *Server) me(ctx context.Context, meta callMeta) (models.Identity, error) {
	if err := s.enter(ctx, EndpointMe, meta.authorization, meta.requestID); err != nil {
		return models.Identity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, _, err := s.authenticateLocked(meta.authorization)
	if err != nil {
		return models.Identity{}, err
	}
	return acc.identity.Clone(), nil
}

func (s *Server) logout(ctx context.Context, meta callMeta) error {
	if err := s.enter(ctx, EndpointLogout, meta.authorization, meta.requestID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, claims, err := s.authenticateLocked(meta.authorization)
	if err != nil {
		return err
	}
	s.revoked[claims.ID] = struct{}{}
	return nil
}

func (s *Server) health(ctx context.Context, meta callMeta) (bool, error) {
	if err := s.enter(ctx, EndpointHealth, meta.authorization, meta.requestID); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy, nil
}

func (s *Server) createLocked(details models.RegistrationDetails) (*account, error) {
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, Invalid(err)
	}
	if _, taken := s.byEmail[details.Email]; taken {
		return nil, Conflict("email already registered")
	}
	if _, taken := s.byUsername[strings.ToLower(details.Username)]; taken {
		return nil, Conflict("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(details.Password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, err
	}

	acc := &account{
		email: details.Email,
		hash:  hash,
		identity: models.Identity{
			ID:        id.String(),
			Username:  details.Username,
			Kind:      details.AccountKind,
			Profile:   &models.Profile{DisplayName: details.DisplayName, Bio: details.Bio},
			Followers: []string{},
			Following: []string{},
			CreatedAt: now.Truncate(time.Second),
		},
	}
	s.accounts[acc.identity.ID] = acc
	s.byEmail[acc.email] = acc.identity.ID
	s.byUsername[strings.ToLower(details.Username)] = acc.identity.ID
	return acc, nil
}

func (s *Server) issueLocked(userID string) (string, error) {
	now := s.now()
	jti, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        jti.String(),
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}).SignedString(s.secret)
}

func (s *Server) parseLocked(tok string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Server) authenticateLocked(authorization string) (*account, *jwt.RegisteredClaims, error) {
	tok, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || tok == "" {
		return nil, nil, Unauthorized("missing bearer token")
	}
	claims, err := s.parseLocked(tok)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, Unauthorized("token expired")
		}
		return nil, nil, Unauthorized("invalid token")
	}
	if _, gone := s.revoked[claims.ID]; gone {
		return nil, nil, Unauthorized("token revoked")
	}
	acc, ok := s.accounts[claims.Subject]
	if !ok {
		return nil, nil, Unauthorized("account deleted")
	}
	return acc, claims, nil
}

type authPayload struct {
	Token    string          `json:"token"`
	Identity models.Identity `json:"identity"`
}

type callMeta struct {
	authorization string
	requestID     string
}
