package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/playerhub/internal/flagx"
	"github.com/dmitrijs2005/playerhub/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration,
// so "15s" and integer nanoseconds are both accepted.
type JsonConfig struct {
	ServerEndpointAddr        string         `json:"server_endpoint_addr"`
	Transport                 string         `json:"transport"`
	StatePath                 string         `json:"state_path"`
	VerifyTimeout             timex.Duration `json:"verify_timeout"`
	RequestTimeout            timex.Duration `json:"request_timeout"`
	OnlineCheckInterval       timex.Duration `json:"online_check_interval"`
	PresenceURL               string         `json:"presence_url"`
	ClearTokenOnVerifyTimeout bool           `json:"clear_token_on_verify_timeout"`
	MetricsAddr               string         `json:"metrics_addr"`
}

// parseJson overlays cfg with the file named by -c/-config, if given.
// Keys missing from the file keep their current value. Read or decode
// errors panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	jc := JsonConfig{
		ServerEndpointAddr:        cfg.ServerEndpointAddr,
		Transport:                 cfg.Transport,
		StatePath:                 cfg.StatePath,
		VerifyTimeout:             timex.Duration{Duration: cfg.VerifyTimeout},
		RequestTimeout:            timex.Duration{Duration: cfg.RequestTimeout},
		OnlineCheckInterval:       timex.Duration{Duration: cfg.OnlineCheckInterval},
		PresenceURL:               cfg.PresenceURL,
		ClearTokenOnVerifyTimeout: cfg.ClearTokenOnVerifyTimeout,
		MetricsAddr:               cfg.MetricsAddr,
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.Transport = jc.Transport
	cfg.StatePath = jc.StatePath
	cfg.VerifyTimeout = jc.VerifyTimeout.Duration
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	cfg.PresenceURL = jc.PresenceURL
	cfg.ClearTokenOnVerifyTimeout = jc.ClearTokenOnVerifyTimeout
	cfg.MetricsAddr = jc.MetricsAddr
}
