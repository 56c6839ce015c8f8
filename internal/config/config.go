// Package config loads the runtime configuration from the environment.
//
// Values are read from environment variables, optionally seeded from .env files.
// Variables already set in the environment win over .env entries.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/zicheng-pan/joynr/internal/logging"
)

var (
	// ErrEmptyRuntimeID is returned when no runtime id could be determined
	ErrEmptyRuntimeID = errors.New("runtime ID cannot be empty")
	// ErrEmptyHTTPListen is returned when the HTTP listen address is empty
	ErrEmptyHTTPListen = errors.New("HTTP listen address cannot be empty")
	// ErrEmptyChannelListen is returned when the channel listen address is empty
	ErrEmptyChannelListen = errors.New("channel listen address cannot be empty")
)

// Config is the configuration of a joynr runtime
type Config struct {
	RuntimeID        string        `env:"JOYNR_RUNTIME_ID" usage:"unique id of this runtime, defaults to joynr-<hostname>"`
	HTTPListen       string        `env:"JOYNR_HTTP_LISTEN" default:":8080" usage:"HTTP API and window hub listen address"`
	ChannelListen    string        `env:"JOYNR_CHANNEL_LISTEN" default:":4242" usage:"gRPC channel listen address"`
	LogLevel         string        `env:"JOYNR_LOG_LEVEL" default:"info" usage:"debug, info, warn or error"`
	LogFormat        string        `env:"JOYNR_LOG_FORMAT" default:"text" usage:"text or json"`
	JWTSecret        string        `env:"JOYNR_JWT_SECRET" usage:"secret for signing API tokens"`
	NoAuth           bool          `env:"JOYNR_NO_AUTH" default:"false" usage:"disable API authentication for development"`
	ProvisioningFile string        `env:"JOYNR_PROVISIONING_FILE" usage:"YAML file with static routes"`
	QueueLimit       int           `env:"JOYNR_QUEUE_LIMIT" default:"1000" usage:"messages queued per unknown participant"`
	PruneInterval    time.Duration `env:"JOYNR_PRUNE_INTERVAL" default:"30s" usage:"how often expired messages and subscriptions are dropped"`
	TransmitTimeout  time.Duration `env:"JOYNR_TRANSMIT_TIMEOUT" default:"5s" usage:"timeout for a single channel transmit"`
	RateLimit        float64       `env:"JOYNR_RATE_LIMIT" default:"100" usage:"API requests per second per client"`
	RateBurst        int           `env:"JOYNR_RATE_BURST" default:"200" usage:"API request burst per client"`
	CORSOrigins      []string      `env:"JOYNR_CORS_ORIGINS" default:"*" usage:"comma separated allowed origins"`
}

// Load reads .env files (default ".env") and then the environment.
// Missing .env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return load(nil)
}

func load(source env.Source) (*Config, error) {
	c := &Config{}
	if err := env.Load(c, &env.Options{Source: source, SliceSep: ","}); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// SetDefaults fills values that cannot be expressed as static defaults
func (c *Config) SetDefaults() {
	if c.RuntimeID == "" {
		c.RuntimeID = defaultRuntimeID()
	}
	if c.JWTSecret == "" {
		c.JWTSecret = "joynr-dev-secret-change-in-production"
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.RuntimeID == "" {
		return ErrEmptyRuntimeID
	}
	if c.HTTPListen == "" {
		return ErrEmptyHTTPListen
	}
	if c.ChannelListen == "" {
		return ErrEmptyChannelListen
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.QueueLimit < 0 {
		return fmt.Errorf("queue limit cannot be negative: %d", c.QueueLimit)
	}
	if c.PruneInterval < 0 {
		return fmt.Errorf("prune interval cannot be negative: %s", c.PruneInterval)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be positive: %v/%d", c.RateLimit, c.RateBurst)
	}
	return nil
}

// Usage prints the supported environment variables
func Usage(w io.Writer) {
	env.Usage(&Config{}, w, &env.Options{SliceSep: ","})
}

func defaultRuntimeID() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "joynr-runtime-1"
	}
	return fmt.Sprintf("joynr-%s", hostname)
}
