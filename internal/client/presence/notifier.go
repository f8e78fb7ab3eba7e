// Package presence tells the realtime service that this client is going
// offline. Session logout uses it as its cleanup step.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/dmitrijs2005/playerhub/internal/common"
	"github.com/dmitrijs2005/playerhub/internal/logging"
	"github.com/google/uuid"
)

const (
	Subprotocol = "playerhub.presence.v1"
	Version     = 1

	TypeOffline = "presence.offline"
)

// Envelope is the frame shape of the presence protocol.
type Envelope struct {
	V       int             `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	TS      time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload"`
}

// CredentialFunc returns the bearer token to present, or "" if there is none.
type CredentialFunc func(ctx context.Context) string

type Notifier struct {
	url        string
	credential CredentialFunc
	timeout    time.Duration
	now        func() time.Time
	log        logging.Logger
}

type Option func(*Notifier)

// WithTimeout bounds the whole exchange (default 3s).
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) { n.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(n *Notifier) { n.log = logging.OrNop(l) }
}

// New returns a Notifier for the websocket endpoint at url.
func New(url string, credential CredentialFunc, opts ...Option) *Notifier {
	n := &Notifier{
		url:        url,
		credential: credential,
		timeout:    3 * time.Second,
		now:        time.Now,
		log:        logging.Nop(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Cleanup announces that the signed-in user is going offline. Without a
// credential there is nobody to announce and no connection is made.
func (n *Notifier) Cleanup(ctx context.Context) error {
	tok := ""
	if n.credential != nil {
		tok = n.credential(ctx)
	}
	if tok == "" {
		n.log.Debug(ctx, "no credential, skipping presence update")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	h := http.Header{}
	h.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)

	conn, _, err := websocket.Dial(ctx, n.url, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
		HTTPHeader:   h,
	})
	if err != nil {
		return fmt.Errorf("dial presence: %w", err)
	}
	defer conn.CloseNow()

	env := Envelope{
		V:       Version,
		Type:    TypeOffline,
		ID:      uuid.NewString(),
		TS:      n.now().UTC(),
		Payload: json.RawMessage(`{}`),
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
		return fmt.Errorf("send presence update: %w", err)
	}

	n.log.Debug(ctx, "presence offline sent", "id", env.ID)
	return conn.Close(websocket.StatusNormalClosure, "signed out")
}
