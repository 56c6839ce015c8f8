package inprocess

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

func TestDispatcher_DeliversToRegisteredParticipant(t *testing.T) {
	d := NewDispatcher()

	var got *messaging.Message
	require.NoError(t, d.Register("provider-1", messaging.ReceiverFunc(func(_ context.Context, msg *messaging.Message) error {
		got = msg
		return nil
	})))

	stub, err := d.Create(messaging.InProcessAddress{ParticipantID: "provider-1"})
	require.NoError(t, err)

	msg := messaging.NewMessage(messaging.TypeRequest, "consumer", "provider-1", nil)
	require.NoError(t, stub.Transmit(context.Background(), msg))
	assert.Same(t, msg, got)
}

func TestDispatcher_UnknownParticipant(t *testing.T) {
	d := NewDispatcher()

	stub, err := d.Create(messaging.InProcessAddress{ParticipantID: "provider-1"})
	require.NoError(t, err)

	err = stub.Transmit(context.Background(), messaging.NewMessage(messaging.TypeRequest, "c", "provider-1", nil))
	assert.ErrorIs(t, err, ErrUnknownParticipant)

	require.NoError(t, d.Register("provider-1", messaging.ReceiverFunc(func(context.Context, *messaging.Message) error { return nil })))
	assert.NoError(t, stub.Transmit(context.Background(), messaging.NewMessage(messaging.TypeRequest, "c", "provider-1", nil)))

	d.Unregister("provider-1")
	err = stub.Transmit(context.Background(), messaging.NewMessage(messaging.TypeRequest, "c", "provider-1", nil))
	assert.ErrorIs(t, err, ErrUnknownParticipant)
}

func TestDispatcher_ReceiverErrorIsReturned(t *testing.T) {
	d := NewDispatcher()
	handlerErr := errors.New("provider failed")
	require.NoError(t, d.Register("provider-1", messaging.ReceiverFunc(func(context.Context, *messaging.Message) error {
		return handlerErr
	})))

	stub, err := d.Create(messaging.InProcessAddress{ParticipantID: "provider-1"})
	require.NoError(t, err)
	assert.Same(t, handlerErr, stub.Transmit(context.Background(), messaging.NewMessage(messaging.TypeOneWay, "c", "provider-1", nil)))
}

func TestDispatcher_Validation(t *testing.T) {
	d := NewDispatcher()

	assert.ErrorIs(t, d.Register("", messaging.ReceiverFunc(func(context.Context, *messaging.Message) error { return nil })), ErrEmptyParticipantID)
	assert.Error(t, d.Register("p", nil))

	_, err := d.Create(messaging.InProcessAddress{})
	assert.ErrorIs(t, err, ErrEmptyParticipantID)

	_, err = d.Create(messaging.NewBrowserAddress("w"))
	assert.ErrorIs(t, err, messaging.ErrUnsupportedAddress)
	assert.Equal(t, messaging.KindInProcess, d.Kind())
}
