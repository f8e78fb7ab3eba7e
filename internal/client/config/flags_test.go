package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "127.0.0.1:9090", "-t", "grpc", "-s", "/tmp/s.db", "-v", "5", "-r", "2",
				"-i", "10", "-p", "ws://h/p", "-x", "-m", ":9100"},
			expected: &Config{
				ServerEndpointAddr:        "127.0.0.1:9090",
				Transport:                 "grpc",
				StatePath:                 "/tmp/s.db",
				VerifyTimeout:             5 * time.Second,
				RequestTimeout:            2 * time.Second,
				OnlineCheckInterval:       10 * time.Second,
				PresenceURL:               "ws://h/p",
				ClearTokenOnVerifyTimeout: true,
				MetricsAddr:               ":9100",
			},
		},
		{
			name: "bool flag does not swallow the next flag",
			args: []string{"-x", "-a", "host:1"},
			expected: &Config{
				ServerEndpointAddr:        "host:1",
				ClearTokenOnVerifyTimeout: true,
			},
		},
		{
			name:     "foreign flags ignored",
			args:     []string{"-c", "cfg.json", "-unknown", "v", "-i", "7"},
			expected: &Config{OnlineCheckInterval: 7 * time.Second},
		},
		{name: "incorrect check interval", args: []string{"-a", "127.0.0.1:9090", "-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
