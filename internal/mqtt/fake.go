package mqtt

import (
	"time"

	"github.com/sweeney/duck-deterrent/internal/logic"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	// Transitions contains all state transitions that were published.
	Transitions []logic.Transition

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the transition.
func (f *FakePublisher) Publish(at time.Time, tr logic.Transition) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(at, tr)
	if err != nil {
		return err
	}
	f.Transitions = append(f.Transitions, tr)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded events.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}

// Trail lists the published transitions as "STATE:reason", in order.
func (f *FakePublisher) Trail() []string {
	trail := make([]string, 0, len(f.Transitions))
	for _, tr := range f.Transitions {
		trail = append(trail, tr.To.String()+":"+tr.Reason)
	}
	return trail
}
