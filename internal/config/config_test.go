package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-simpler.org/env"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := load(env.Map{})
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTPListen)
	assert.Equal(t, ":4242", c.ChannelListen)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 1000, c.QueueLimit)
	assert.Equal(t, 30*time.Second, c.PruneInterval)
	assert.Equal(t, []string{"*"}, c.CORSOrigins)
	assert.NotEmpty(t, c.RuntimeID)
	assert.NotEmpty(t, c.JWTSecret)
	assert.False(t, c.NoAuth)
}

func TestLoad_FromEnvironment(t *testing.T) {
	c, err := load(env.Map{
		"JOYNR_RUNTIME_ID":     "runtime-7",
		"JOYNR_HTTP_LISTEN":    "127.0.0.1:9000",
		"JOYNR_LOG_LEVEL":      "debug",
		"JOYNR_NO_AUTH":        "true",
		"JOYNR_PRUNE_INTERVAL": "5s",
		"JOYNR_CORS_ORIGINS":   "http://a.example,http://b.example",
	})
	require.NoError(t, err)

	assert.Equal(t, "runtime-7", c.RuntimeID)
	assert.Equal(t, "127.0.0.1:9000", c.HTTPListen)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.NoAuth)
	assert.Equal(t, 5*time.Second, c.PruneInterval)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, c.CORSOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars env.Map
	}{
		{"bad level", env.Map{"JOYNR_LOG_LEVEL": "loud"}},
		{"negative queue", env.Map{"JOYNR_QUEUE_LIMIT": "-1"}},
		{"zero rate", env.Map{"JOYNR_RATE_LIMIT": "0"}},
		{"not a duration", env.Map{"JOYNR_PRUNE_INTERVAL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(tt.vars)
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("JOYNR_RUNTIME_ID=from-dotenv\n"), 0o600))
	t.Setenv("JOYNR_RUNTIME_ID", "")
	require.NoError(t, os.Unsetenv("JOYNR_RUNTIME_ID"))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", c.RuntimeID)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestUsage(t *testing.T) {
	var buf bytes.Buffer
	Usage(&buf)
	assert.Contains(t, buf.String(), "JOYNR_HTTP_LISTEN")
}
