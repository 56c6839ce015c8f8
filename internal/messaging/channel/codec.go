package channel

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create channel CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create channel CBOR decoder mode: %v", err))
	}
}

// frame is the wire form of a message sent over a channel
type frame struct {
	ChannelID  string            `cbor:"1,keyasint"`
	ID         string            `cbor:"2,keyasint"`
	Type       string            `cbor:"3,keyasint"`
	Sender     string            `cbor:"4,keyasint"`
	Recipient  string            `cbor:"5,keyasint"`
	ExpiryDate int64             `cbor:"6,keyasint,omitempty"` // Unix nanoseconds, 0 = never
	Headers    map[string]string `cbor:"7,keyasint,omitempty"`
	Payload    []byte            `cbor:"8,keyasint,omitempty"`
}

func encodeFrame(channelID string, msg *messaging.Message) ([]byte, error) {
	f := frame{
		ChannelID: channelID,
		ID:        msg.ID,
		Type:      string(msg.Type),
		Sender:    msg.Sender,
		Recipient: msg.Recipient,
		Headers:   msg.Headers,
		Payload:   msg.Payload,
	}
	if !msg.ExpiryDate.IsZero() {
		f.ExpiryDate = msg.ExpiryDate.UnixNano()
	}
	return encMode.Marshal(f)
}

func decodeFrame(data []byte) (string, *messaging.Message, error) {
	var f frame
	if err := decMode.Unmarshal(data, &f); err != nil {
		return "", nil, err
	}

	msg := &messaging.Message{
		ID:        f.ID,
		Type:      messaging.MessageType(f.Type),
		Sender:    f.Sender,
		Recipient: f.Recipient,
		Headers:   f.Headers,
		Payload:   f.Payload,
	}
	if msg.Headers == nil {
		msg.Headers = make(map[string]string)
	}
	if f.ExpiryDate != 0 {
		msg.ExpiryDate = time.Unix(0, f.ExpiryDate)
	}
	return f.ChannelID, msg, nil
}
