package channel

import (
	"errors"
	"time"
)

var (
	// ErrEmptyChannelID is returned when the channel id is empty
	ErrEmptyChannelID = errors.New("channel ID cannot be empty")
	// ErrInvalidListenAddress is returned when the listen address is empty
	ErrInvalidListenAddress = errors.New("listen address cannot be empty")
)

// Config holds configuration for the channel transport server
type Config struct {
	// ChannelID identifies this runtime; messages for another channel are rejected
	ChannelID string

	// ListenAddress is where the server accepts connections, "host:port"
	ListenAddress string

	// MaxMessageSize bounds encoded messages in bytes
	MaxMessageSize int

	// TransmitTimeout bounds a single Transmit call on the client side
	TransmitTimeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ChannelID == "" {
		return ErrEmptyChannelID
	}
	if c.ListenAddress == "" {
		return ErrInvalidListenAddress
	}
	return nil
}

// SetDefaults sets sensible default values for unset configuration fields
func (c *Config) SetDefaults() {
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 1024 * 1024 // 1MB
	}
	if c.TransmitTimeout <= 0 {
		c.TransmitTimeout = 5 * time.Second
	}
}
