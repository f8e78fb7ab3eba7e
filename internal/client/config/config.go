package config

import (
	"fmt"
	"os"
	"time"
)

// Transport names accepted by Config.Transport.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds runtime settings for the playerhub CLI.
//
// Durations are time.Duration values; flags take them in whole seconds.
type Config struct {
	ServerEndpointAddr string
	Transport          string
	StatePath          string

	VerifyTimeout       time.Duration
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration

	PresenceURL               string
	ClearTokenOnVerifyTimeout bool
	MetricsAddr               string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.Transport = TransportHTTP
	c.StatePath = "session.db"
	c.VerifyTimeout = 15 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.PresenceURL = ""
	c.ClearTokenOnVerifyTimeout = false
	c.MetricsAddr = ""
}

// Validate rejects combinations the client cannot run with.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportHTTP, TransportGRPC:
	default:
		return fmt.Errorf("unknown transport %q (want %q or %q)", c.Transport, TransportHTTP, TransportGRPC)
	}
	if c.ServerEndpointAddr == "" {
		return fmt.Errorf("server endpoint address is empty")
	}
	if c.VerifyTimeout <= 0 {
		return fmt.Errorf("verify timeout must be positive, got %s", c.VerifyTimeout)
	}
	return nil
}

// LoadConfig constructs a Config from os.Args: defaults first, then the
// JSON file (if any), then flags. Later sources take precedence. Invalid
// input panics.
func LoadConfig() *Config {
	return loadConfig(os.Args[1:])
}

func loadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
