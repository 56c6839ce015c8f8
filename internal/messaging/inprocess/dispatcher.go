// Package inprocess delivers messages to participants registered in the same runtime.
package inprocess

import (
	"context"
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

var (
	// ErrUnknownParticipant is returned when no local participant is registered for the recipient
	ErrUnknownParticipant = errors.New("unknown local participant")
	// ErrEmptyParticipantID is returned when registering without a participant id
	ErrEmptyParticipantID = errors.New("participant id cannot be empty")
)

// Dispatcher hands messages to local participants by recipient id.
// It is safe for concurrent use.
type Dispatcher struct {
	participants *xsync.MapOf[string, messaging.Receiver]
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{participants: xsync.NewMapOf[string, messaging.Receiver]()}
}

// Register makes receiver the local handler for participantID, replacing any earlier one
func (d *Dispatcher) Register(participantID string, receiver messaging.Receiver) error {
	if participantID == "" {
		return ErrEmptyParticipantID
	}
	if receiver == nil {
		return fmt.Errorf("receiver for %s cannot be nil", participantID)
	}
	d.participants.Store(participantID, receiver)
	return nil
}

// Unregister removes the local handler for participantID
func (d *Dispatcher) Unregister(participantID string) {
	d.participants.Delete(participantID)
}

// Kind returns messaging.KindInProcess
func (d *Dispatcher) Kind() messaging.AddressKind {
	return messaging.KindInProcess
}

// Create returns a stub delivering to the participant named by the address.
// The participant does not need to be registered yet; it is resolved on every Transmit.
func (d *Dispatcher) Create(address messaging.Address) (messaging.MessagingStub, error) {
	inProcessAddress, ok := address.(messaging.InProcessAddress)
	if !ok {
		return nil, fmt.Errorf("%w: in-process factory cannot handle %s", messaging.ErrUnsupportedAddress, address)
	}
	if inProcessAddress.ParticipantID == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyParticipantID, address)
	}
	return &stub{dispatcher: d, participantID: inProcessAddress.ParticipantID}, nil
}

// stub delivers to one local participant
type stub struct {
	dispatcher    *Dispatcher
	participantID string
}

// Transmit hands msg to the participant's receiver
func (s *stub) Transmit(ctx context.Context, msg *messaging.Message) error {
	receiver, ok := s.dispatcher.participants.Load(s.participantID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, s.participantID)
	}
	return receiver.Receive(ctx, msg)
}
