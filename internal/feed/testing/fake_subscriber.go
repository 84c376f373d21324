// Package testing provides test doubles for the feed package.
package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/rileyhilliard/fv/internal/feed"
)

// FakeSubscriber is an in-memory feed.Subscriber. Messages are delivered
// synchronously by Publish, on the caller's goroutine.
type FakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]feed.MessageHandler
	lost     func(error)

	// Failure injection
	ConnectErr     error
	SubscribeErr   error
	UnsubscribeErr error

	// Tracking for assertions
	Calls     []string // "connect", "subscribe <topic>", "unsubscribe <topic>", "disconnect"
	Connected bool
}

// NewFakeSubscriber creates a fake subscriber that accepts every call.
func NewFakeSubscriber() *FakeSubscriber {
	return &FakeSubscriber{handlers: make(map[string]feed.MessageHandler)}
}

func (f *FakeSubscriber) Connect(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "connect")
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.Connected = true
	return nil
}

func (f *FakeSubscriber) Subscribe(topic string, qos byte, handler feed.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "subscribe "+topic)
	if !f.Connected {
		return fmt.Errorf("subscribe %q: not connected", topic)
	}
	if f.SubscribeErr != nil {
		return f.SubscribeErr
	}
	f.handlers[topic] = handler
	return nil
}

func (f *FakeSubscriber) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "unsubscribe "+topic)
	delete(f.handlers, topic)
	return f.UnsubscribeErr
}

func (f *FakeSubscriber) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, "disconnect")
	f.Connected = false
}

func (f *FakeSubscriber) OnConnectionLost(fn func(error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lost = fn
}

// DropConnection simulates a connection that won't come back: handlers are
// cleared and the registered loss callback runs on the caller's goroutine.
func (f *FakeSubscriber) DropConnection(err error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, "lost")
	f.Connected = false
	f.handlers = make(map[string]feed.MessageHandler)
	fn := f.lost
	f.mu.Unlock()

	if fn != nil {
		fn(err)
	}
}

// Publish delivers payload to the handler subscribed to topic. It reports
// whether anything was subscribed.
func (f *FakeSubscriber) Publish(topic string, payload []byte) bool {
	f.mu.Lock()
	h, ok := f.handlers[topic]
	f.mu.Unlock()

	if !ok {
		return false
	}
	h(topic, payload)
	return true
}

// PublishString is Publish for text payloads.
func (f *FakeSubscriber) PublishString(topic, payload string) bool {
	return f.Publish(topic, []byte(payload))
}

// Subscribed reports whether topic currently has a handler.
func (f *FakeSubscriber) Subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

// CallLog returns a copy of the recorded calls.
func (f *FakeSubscriber) CallLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	copy(out, f.Calls)
	return out
}
