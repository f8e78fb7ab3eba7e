package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerEndpointAddr)
	assert.Equal(t, TransportHTTP, c.Transport)
	assert.Equal(t, "session.db", c.StatePath)
	assert.Equal(t, 15*time.Second, c.VerifyTimeout)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.False(t, c.ClearTokenOnVerifyTimeout)
	assert.Empty(t, c.PresenceURL)
	assert.Empty(t, c.MetricsAddr)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_NoArgsGivesDefaults(t *testing.T) {
	cfg := loadConfig(nil)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *cfg)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"server_endpoint_addr": "json:1",
		"transport":            "grpc",
		"verify_timeout":       "20s",
	})

	cfg := loadConfig([]string{"-c", path, "-a", "flag:2", "-x"})

	assert.Equal(t, "flag:2", cfg.ServerEndpointAddr)
	assert.Equal(t, TransportGRPC, cfg.Transport)
	assert.Equal(t, 20*time.Second, cfg.VerifyTimeout)
	assert.True(t, cfg.ClearTokenOnVerifyTimeout)
}

func TestValidate(t *testing.T) {
	var c Config
	c.LoadDefaults()

	c.Transport = "carrier-pigeon"
	require.ErrorContains(t, c.Validate(), "unknown transport")

	c.LoadDefaults()
	c.VerifyTimeout = 0
	require.Error(t, c.Validate())

	c.LoadDefaults()
	c.ServerEndpointAddr = ""
	require.Error(t, c.Validate())
}

func TestLoadConfig_InvalidPanics(t *testing.T) {
	require.Panics(t, func() { loadConfig([]string{"-t", "smtp"}) })
}
