// Package feed subscribes to one MQTT topic, decodes every message, and
// appends the good ones to a sample.Buffer.
//
// The listener is the buffer's only writer. It never reads buffer state to
// decide what to do with a message.
package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rileyhilliard/fv/internal/decode"
	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/logger"
	"github.com/rileyhilliard/fv/internal/sample"
)

// Observer is notified about every message the listener handles.
// Calls happen on the transport's delivery goroutine and must not block.
type Observer interface {
	MessageReceived(topic string, size int)
	SampleAppended(s sample.Sample)
	DecodeFailed(err *decode.Error)
}

// Stats counts handled messages. Received == Appended + Dropped once every
// in-flight message has been handled.
type Stats struct {
	Received uint64
	Appended uint64
	Dropped  uint64
}

// Option configures a Listener.
type Option func(*Listener)

// WithLogger sets the listener's logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Listener) {
		if log != nil {
			l.log = log
		}
	}
}

// WithObserver adds an observer.
func WithObserver(o Observer) Option {
	return func(l *Listener) {
		if o != nil {
			l.observers = append(l.observers, o)
		}
	}
}

// WithDecodeErrorHandler registers a callback for dropped messages.
func WithDecodeErrorHandler(fn func(*decode.Error)) Option {
	return func(l *Listener) {
		l.onDecodeError = fn
	}
}

// WithConnectionLostHandler registers a callback for a connection that is
// gone for good. The error carries errors.ErrConnect.
func WithConnectionLostHandler(fn func(error)) Option {
	return func(l *Listener) {
		l.onConnectionLost = fn
	}
}

// Listener wires a Subscriber to a decoder and a Buffer.
type Listener struct {
	sub    Subscriber
	topic  string
	decode decode.Func
	buf    *sample.Buffer

	log              logger.Logger
	observers        []Observer
	onDecodeError    func(*decode.Error)
	onConnectionLost func(error)

	mu      sync.Mutex
	started bool
	stopped bool

	received atomic.Uint64
	appended atomic.Uint64
	dropped  atomic.Uint64
	lastErr  atomic.Pointer[decode.Error]
}

// NewListener creates a listener. It does nothing until Start.
func NewListener(sub Subscriber, topic string, dec decode.Func, buf *sample.Buffer, opts ...Option) *Listener {
	l := &Listener{
		sub:    sub,
		topic:  topic,
		decode: dec,
		buf:    buf,
		log:    logger.Noop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start connects and subscribes. A connection failure is returned as an
// errors.ErrConnect error and nothing is subscribed. Calling Start again
// after a successful start is a no-op.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return errors.New(errors.ErrConnect,
			"Listener already stopped",
			"Create a new listener to subscribe again.")
	}
	if l.started {
		return nil
	}

	l.sub.OnConnectionLost(l.connectionLost)
	if err := l.sub.Connect(ctx); err != nil {
		return errors.WrapWithCode(err, errors.ErrConnect,
			"Couldn't connect to the MQTT broker",
			"Check that the broker is running and reachable, or point fv at it with --host and --port.")
	}

	if err := l.sub.Subscribe(l.topic, AtMostOnce, l.handle); err != nil {
		l.sub.Disconnect()
		return errors.WrapWithCode(err, errors.ErrConnect,
			fmt.Sprintf("Couldn't subscribe to %q", l.topic),
			"Check the topic name and that this client is allowed to read it.")
	}

	l.started = true
	l.log.Info("subscribed to %s", l.topic)
	return nil
}

// Stop unsubscribes and then disconnects. It is safe to call more than once
// and before Start.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}
	l.stopped = true
	if !l.started {
		return
	}

	if err := l.sub.Unsubscribe(l.topic); err != nil {
		l.log.Warn("unsubscribe from %s: %v", l.topic, err)
	}
	l.sub.Disconnect()
	l.log.Info("disconnected")
}

// Topic returns the subscribed topic.
func (l *Listener) Topic() string {
	return l.topic
}

// Stats returns a snapshot of the message counters.
func (l *Listener) Stats() Stats {
	return Stats{
		Received: l.received.Load(),
		Appended: l.appended.Load(),
		Dropped:  l.dropped.Load(),
	}
}

// LastError returns the most recent decode failure, or nil.
func (l *Listener) LastError() *decode.Error {
	return l.lastErr.Load()
}

func (l *Listener) connectionLost(err error) {
	l.log.Error("lost the connection while subscribed to %s: %v", l.topic, err)
	if l.onConnectionLost == nil {
		return
	}
	l.onConnectionLost(errors.WrapWithCode(err, errors.ErrConnect,
		"Lost the connection to the MQTT broker",
		"Drop --no-reconnect to let fv reconnect on its own."))
}

// handle is the per-message pipeline: decode, then append or drop.
func (l *Listener) handle(topic string, payload []byte) {
	l.received.Add(1)
	for _, o := range l.observers {
		o.MessageReceived(topic, len(payload))
	}

	r, err := l.decode(payload)
	if err != nil {
		l.drop(topic, payload, err)
		return
	}

	s := l.buf.Append(r)
	l.appended.Add(1)
	l.log.Debug("seq=%d values=%v", s.Seq, s.Values)
	for _, o := range l.observers {
		o.SampleAppended(s)
	}
}

func (l *Listener) drop(topic string, payload []byte, err error) {
	de, ok := decode.AsError(err)
	if !ok {
		de = &decode.Error{Kind: decode.ErrMalformed, Reason: err.Error(), Payload: append([]byte(nil), payload...), Cause: err}
	}

	l.dropped.Add(1)
	l.lastErr.Store(de)
	l.log.Warn("dropped message on %s: %v (payload: %s)", topic, de, de.PayloadString())

	for _, o := range l.observers {
		o.DecodeFailed(de)
	}
	if l.onDecodeError != nil {
		l.onDecodeError(de)
	}
}
