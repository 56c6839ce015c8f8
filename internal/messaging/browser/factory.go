package browser

import (
	"fmt"

	"github.com/zicheng-pan/joynr/pkg/messaging"
)

// StubFactory creates browser stubs sharing one WebMessagingStub.
type StubFactory struct {
	webMessagingStub WebMessagingStub
}

// NewStubFactory creates a factory for messaging.BrowserAddress destinations
func NewStubFactory(webMessagingStub WebMessagingStub) *StubFactory {
	return &StubFactory{webMessagingStub: webMessagingStub}
}

// Kind returns messaging.KindBrowser
func (f *StubFactory) Kind() messaging.AddressKind {
	return messaging.KindBrowser
}

// Create returns a stub for a messaging.BrowserAddress
func (f *StubFactory) Create(address messaging.Address) (messaging.MessagingStub, error) {
	browserAddress, ok := address.(messaging.BrowserAddress)
	if !ok {
		return nil, fmt.Errorf("%w: browser factory cannot handle %s", messaging.ErrUnsupportedAddress, address)
	}
	return NewMessagingStub(Settings{
		WebMessagingStub: f.webMessagingStub,
		WindowID:         browserAddress.WindowID,
	}), nil
}
