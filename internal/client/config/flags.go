package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/playerhub/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-s", "-v", "-r", "-i", "-p", "-m"}

// parseFlags overlays cfg with command-line flags. args is filtered with
// flagx.FilterArgs first so flags owned by other loaders are ignored.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags, "-x")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "identity service endpoint (URL for http, host:port for grpc)")
	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "transport: http or grpc")
	fs.StringVar(&cfg.StatePath, "s", cfg.StatePath, "path of the local session database")
	verifyTimeout := fs.Int("v", int(cfg.VerifyTimeout.Seconds()), "session verification deadline (in seconds)")
	requestTimeout := fs.Int("r", int(cfg.RequestTimeout.Seconds()), "per-request timeout (in seconds)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.PresenceURL, "p", cfg.PresenceURL, "presence websocket URL (empty disables)")
	fs.BoolVar(&cfg.ClearTokenOnVerifyTimeout, "x", cfg.ClearTokenOnVerifyTimeout, "discard the stored token when verification times out")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "address to serve /metrics on (empty disables)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.VerifyTimeout = time.Duration(*verifyTimeout) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
