package messaging

import (
	"errors"
	"fmt"
)

// ErrInvalidAddress is returned when an address spec cannot be turned into an address
var ErrInvalidAddress = errors.New("invalid address")

// AddressKind names the transport an address belongs to
type AddressKind string

const (
	KindBrowser   AddressKind = "browser"
	KindChannel   AddressKind = "channel"
	KindInProcess AddressKind = "inprocess"
)

// Address describes where a participant can be reached.
// String must be unique per destination; routers use it to cache stubs.
type Address interface {
	Kind() AddressKind
	String() string
}

// BrowserAddress reaches a participant living in a browser window.
// A nil WindowID leaves the destination window unspecified.
type BrowserAddress struct {
	WindowID *string
}

// NewBrowserAddress returns an address for the given window
func NewBrowserAddress(windowID string) BrowserAddress {
	return BrowserAddress{WindowID: &windowID}
}

func (a BrowserAddress) Kind() AddressKind { return KindBrowser }

func (a BrowserAddress) String() string {
	if a.WindowID == nil {
		return "browser:<unspecified>"
	}
	return "browser:" + *a.WindowID
}

// ChannelAddress reaches a participant behind a remote runtime over the channel transport.
type ChannelAddress struct {
	// Endpoint is the host:port of the remote runtime
	Endpoint string
	// ChannelID identifies the receiving runtime at that endpoint
	ChannelID string
}

func (a ChannelAddress) Kind() AddressKind { return KindChannel }

func (a ChannelAddress) String() string {
	return fmt.Sprintf("channel:%s/%s", a.Endpoint, a.ChannelID)
}

// InProcessAddress reaches a participant registered in this runtime.
type InProcessAddress struct {
	ParticipantID string
}

func (a InProcessAddress) Kind() AddressKind { return KindInProcess }

func (a InProcessAddress) String() string { return "inprocess:" + a.ParticipantID }

// AddressSpec is the serializable form of an Address used in configuration files and API bodies.
type AddressSpec struct {
	Kind          AddressKind `json:"kind" yaml:"kind"`
	WindowID      *string     `json:"windowId,omitempty" yaml:"windowId,omitempty"`
	Endpoint      string      `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	ChannelID     string      `json:"channelId,omitempty" yaml:"channelId,omitempty"`
	ParticipantID string      `json:"participantId,omitempty" yaml:"participantId,omitempty"`
}

// Address converts the spec into an Address.
func (s AddressSpec) Address() (Address, error) {
	switch s.Kind {
	case KindBrowser:
		return BrowserAddress{WindowID: s.WindowID}, nil
	case KindChannel:
		if s.Endpoint == "" {
			return nil, fmt.Errorf("%w: channel address needs an endpoint", ErrInvalidAddress)
		}
		if s.ChannelID == "" {
			return nil, fmt.Errorf("%w: channel address needs a channel id", ErrInvalidAddress)
		}
		return ChannelAddress{Endpoint: s.Endpoint, ChannelID: s.ChannelID}, nil
	case KindInProcess:
		if s.ParticipantID == "" {
			return nil, fmt.Errorf("%w: in-process address needs a participant id", ErrInvalidAddress)
		}
		return InProcessAddress{ParticipantID: s.ParticipantID}, nil
	case "":
		return nil, fmt.Errorf("%w: kind is required", ErrInvalidAddress)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidAddress, s.Kind)
	}
}

// SpecOf returns the serializable form of an address
func SpecOf(address Address) AddressSpec {
	switch a := address.(type) {
	case BrowserAddress:
		return AddressSpec{Kind: KindBrowser, WindowID: a.WindowID}
	case ChannelAddress:
		return AddressSpec{Kind: KindChannel, Endpoint: a.Endpoint, ChannelID: a.ChannelID}
	case InProcessAddress:
		return AddressSpec{Kind: KindInProcess, ParticipantID: a.ParticipantID}
	default:
		return AddressSpec{Kind: address.Kind()}
	}
}
