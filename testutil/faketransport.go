// Package testutil provides a fake transport.Sender for exercising the
// session core without a real WebSocket connection, in the spirit of the
// call-tracking mocks the messenger package used to test against nexus.
package testutil

import (
	"sync"

	"github.com/recordevolution/wampcore/wamp"
)

// FakeTransport records every frame sent through it and lets a test
// synthesize inbound frames by calling Deliver, which feeds a
// transport.Listener exactly like a real connection would. Set Listener
// before the session starts sending.
type FakeTransport struct {
	mu sync.Mutex

	Listener interface {
		OnText(string)
	}

	Sent      []string
	ClosedAt  int // -1 until Close is called; otherwise len(Sent) at close time
	CloseCode int
	CloseMsg  string

	// SendErr, when non-nil, is returned by every subsequent Send.
	SendErr error
}

// NewFakeTransport returns a FakeTransport with no listener attached yet.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{ClosedAt: -1}
}

func (f *FakeTransport) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, text)
	return nil
}

func (f *FakeTransport) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ClosedAt >= 0 {
		return nil
	}
	f.ClosedAt = len(f.Sent)
	f.CloseCode = code
	f.CloseMsg = reason
	return nil
}

// LastSent returns the most recently sent frame, or "" if nothing was
// sent yet.
func (f *FakeTransport) LastSent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return ""
	}
	return f.Sent[len(f.Sent)-1]
}

// SentCount reports how many frames have been sent so far.
func (f *FakeTransport) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

// Deliver encodes msg and feeds it to the attached listener's OnText,
// exactly as a real transport would for an inbound frame.
func (f *FakeTransport) Deliver(msg wamp.Message) {
	text, err := wamp.Encode(msg)
	if err != nil {
		panic(err)
	}
	f.Listener.OnText(text)
}

// DeliverRaw feeds arbitrary text to the listener, for tests that need to
// exercise malformed or unknown-type frames.
func (f *FakeTransport) DeliverRaw(text string) {
	f.Listener.OnText(text)
}
