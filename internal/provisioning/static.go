// Package provisioning loads statically provisioned routes from YAML.
//
// Example file:
//
//	routes:
//	  - participantId: weather-provider
//	    address:
//	      kind: browser
//	      windowId: dashboard
//	  - participantId: traffic-provider
//	    address:
//	      kind: channel
//	      endpoint: cc.example.com:4242
//	      channelId: runtime-2
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// ErrEmptyParticipantID is returned for a route without participant id
var ErrEmptyParticipantID = errors.New("provisioned route needs a participant id")

// Route is a single provisioned routing entry
type Route struct {
	ParticipantID string                `yaml:"participantId"`
	Address       messaging.AddressSpec `yaml:"address"`
}

// File is the provisioning file layout
type File struct {
	Routes []Route `yaml:"routes"`
}

// NextHopAdder receives provisioned routes, normally the message router
type NextHopAdder interface {
	AddNextHop(ctx context.Context, participantID string, address messaging.Address) error
}

// Load reads and validates a provisioning file
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open provisioning file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and validates provisioning YAML
func Decode(r io.Reader) (*File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode provisioning file: %w", err)
	}

	for i, route := range file.Routes {
		if route.ParticipantID == "" {
			return nil, fmt.Errorf("route %d: %w", i, ErrEmptyParticipantID)
		}
		if _, err := route.Address.Address(); err != nil {
			return nil, fmt.Errorf("route %d (%s): %w", i, route.ParticipantID, err)
		}
	}
	return &file, nil
}

// Apply adds every route to adder and returns how many were added
func (f *File) Apply(ctx context.Context, adder NextHopAdder) (int, error) {
	for i, route := range f.Routes {
		address, err := route.Address.Address()
		if err != nil {
			return i, fmt.Errorf("route %s: %w", route.ParticipantID, err)
		}
		if err := adder.AddNextHop(ctx, route.ParticipantID, address); err != nil {
			return i, fmt.Errorf("failed to provision %s: %w", route.ParticipantID, err)
		}
	}
	return len(f.Routes), nil
}
