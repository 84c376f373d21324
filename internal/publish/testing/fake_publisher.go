// Package testing provides a fake Publisher.
package testing

import (
	"context"
	"sync"
)

// Message is one recorded publish.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakePublisher records publishes in memory.
type FakePublisher struct {
	ConnectErr error
	PublishErr error
	// FailAfter makes Publish return PublishErr once this many messages
	// have been recorded. Zero fails immediately when PublishErr is set.
	FailAfter int

	mu           sync.Mutex
	connected    bool
	disconnected bool
	messages     []Message
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

func (f *FakePublisher) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *FakePublisher) Publish(_ context.Context, topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishErr != nil && len(f.messages) >= f.FailAfter {
		return f.PublishErr
	}
	f.messages = append(f.messages, Message{
		Topic:    topic,
		QoS:      qos,
		Retained: retained,
		Payload:  append([]byte(nil), payload...),
	})
	return nil
}

func (f *FakePublisher) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	f.disconnected = true
}

// Messages returns a copy of everything published.
func (f *FakePublisher) Messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.messages...)
}

func (f *FakePublisher) Disconnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnected
}
