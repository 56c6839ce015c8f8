package channel

import (
	"errors"
	"testing"
	"time"
)

// TestConfig_Validation tests our config validation logic
func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{
			name: "valid config",
			config: &Config{
				ChannelID:     "runtime-1",
				ListenAddress: "localhost:4242",
			},
		},
		{
			name: "empty channel ID",
			config: &Config{
				ListenAddress: "localhost:4242",
			},
			wantErr: ErrEmptyChannelID,
		},
		{
			name: "empty listen address",
			config: &Config{
				ChannelID: "runtime-1",
			},
			wantErr: ErrInvalidListenAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Config.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_SetDefaults tests that config provides sensible defaults
func TestConfig_SetDefaults(t *testing.T) {
	config := &Config{
		ChannelID:     "runtime-1",
		ListenAddress: "localhost:4242",
	}
	config.SetDefaults()

	if config.MaxMessageSize != 1024*1024 {
		t.Errorf("Expected 1MB MaxMessageSize, got %d", config.MaxMessageSize)
	}
	if config.TransmitTimeout != 5*time.Second {
		t.Errorf("Expected 5s TransmitTimeout, got %v", config.TransmitTimeout)
	}

	config = &Config{MaxMessageSize: 42, TransmitTimeout: time.Second}
	config.SetDefaults()
	if config.MaxMessageSize != 42 || config.TransmitTimeout != time.Second {
		t.Error("SetDefaults should keep explicit values")
	}
}
