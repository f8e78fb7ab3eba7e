package session

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/playerhub/internal/client/client"
	"github.com/prometheus/client_golang/prometheus"
)

// Invalidation reasons.
const (
	ReasonServerRejected    = "server_rejected"
	ReasonBootstrapRejected = "bootstrap_rejected"
	ReasonLogout            = "logout"
)

// Metrics counts session lifecycle events. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	bootstrap     *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	logins        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playerhub",
			Subsystem: "session",
			Name:      "bootstrap_total",
			Help:      "Session bootstrap attempts by outcome.",
		}, []string{"outcome"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playerhub",
			Subsystem: "session",
			Name:      "invalidations_total",
			Help:      "Local session invalidations by reason.",
		}, []string{"reason"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playerhub",
			Subsystem: "session",
			Name:      "logins_total",
			Help:      "Login and registration attempts by operation and result.",
		}, []string{"op", "result"}),
	}
	reg.MustRegister(m.bootstrap, m.invalidations, m.logins)
	return m
}

// InvalidationHook feeds guard invalidations into the counters.
func (m *Metrics) InvalidationHook() client.InvalidationHook {
	return func(context.Context, string) {
		m.invalidated(ReasonServerRejected)
	}
}

func (m *Metrics) bootstrapped(o Outcome) {
	if m == nil {
		return
	}
	m.bootstrap.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) invalidated(reason string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(reason).Inc()
}

func (m *Metrics) authenticated(op string, err error) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, client.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, client.ErrValidation):
		return "validation"
	case errors.Is(err, client.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
