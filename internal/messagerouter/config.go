package messagerouter

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zicheng-pan/joynr/internal/messagequeue"
)

// ErrInvalidPruneInterval is returned when the prune interval is negative
var ErrInvalidPruneInterval = errors.New("prune interval cannot be negative")

// DefaultPruneInterval is how often expired queued messages are discarded
const DefaultPruneInterval = 30 * time.Second

// Config holds configuration for a Router
type Config struct {
	// PruneInterval is how often Start discards expired queued messages
	PruneInterval time.Duration

	// Queue configures the queue for messages without a route
	Queue messagequeue.Config

	// Logger receives routing decisions at debug level; optional
	Logger *slog.Logger
}

// SetDefaults sets default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.PruneInterval == 0 {
		c.PruneInterval = DefaultPruneInterval
	}
	c.Queue.SetDefaults()
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.PruneInterval < 0 {
		return ErrInvalidPruneInterval
	}
	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("invalid queue config: %w", err)
	}
	return nil
}
