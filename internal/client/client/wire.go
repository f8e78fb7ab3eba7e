package client

import "github.com/dmitrijs2005/playerhub/internal/client/models"

// JSON shapes of the identity service contract, shared by both transports.

type authResponse struct {
	Token    string          `json:"token"`
	Identity models.Identity `json:"identity"`
}

type meResponse struct {
	Identity models.Identity `json:"identity"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

const (
	endpointLogin    = "/login"
	endpointRegister = "/register"
	endpointMe       = "/me"
	endpointLogout   = "/logout"
	endpointHealth   = "/health"
)
