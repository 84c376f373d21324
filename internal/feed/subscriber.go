package feed

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rileyhilliard/fv/internal/logger"
)

// MessageHandler receives one raw message.
type MessageHandler func(topic string, payload []byte)

// Subscriber is the transport under a Listener.
type Subscriber interface {
	Connect(ctx context.Context) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Unsubscribe(topic string) error
	Disconnect()

	// OnConnectionLost registers fn for a dropped connection that the
	// transport will not re-establish on its own.
	OnConnectionLost(fn func(error))
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// PahoSubscriber implements Subscriber with the Eclipse Paho MQTT client.
// Subscriptions are replayed after an automatic reconnect.
type PahoSubscriber struct {
	opts   Options
	url    string
	client mqtt.Client
	log    logger.Logger

	mu        sync.Mutex
	subs      map[string]subscription
	connected bool
	lost      func(error)
}

// NewPahoSubscriber builds a client from opts. Nothing touches the network
// until Connect.
func NewPahoSubscriber(opts Options, log logger.Logger) (*PahoSubscriber, error) {
	if log == nil {
		log = logger.Noop()
	}
	opts = opts.withDefaults()

	s := &PahoSubscriber{
		opts: opts,
		url:  opts.BrokerURL(),
		log:  log,
		subs: make(map[string]subscription),
	}

	co, err := NewClientOptions(opts)
	if err != nil {
		return nil, err
	}
	co.SetOnConnectHandler(s.onConnect)
	co.SetConnectionLostHandler(s.connectionLost)
	co.SetReconnectingHandler(func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		s.log.Info("reconnecting to %s", s.url)
	})

	s.client = mqtt.NewClient(co)
	return s, nil
}

// NewClientOptions translates opts into paho client options: broker, client
// id and the reconnect policy. Connection callbacks are left to the caller.
func NewClientOptions(opts Options) (*mqtt.ClientOptions, error) {
	opts = opts.withDefaults()

	broker := opts.BrokerURL()
	u, err := url.Parse(broker)
	if err != nil {
		return nil, fmt.Errorf("broker address %q: %w", broker, err)
	}
	if !supportedSchemes[u.Scheme] {
		return nil, fmt.Errorf("broker address %q: unsupported scheme %q", broker, u.Scheme)
	}

	co := mqtt.NewClientOptions().AddBroker(broker)
	co.SetClientID(opts.ClientIDOrDefault())
	co.SetConnectTimeout(opts.ConnectTimeout)
	// A failed first connect is reported to the caller instead of retried.
	co.SetConnectRetry(false)
	co.SetAutoReconnect(opts.Reconnect)
	co.SetMaxReconnectInterval(opts.MaxReconnectInterval)
	return co, nil
}

// supportedSchemes are the transports paho can dial.
var supportedSchemes = map[string]bool{
	"tcp": true, "mqtt": true, "ssl": true, "tls": true, "mqtts": true, "ws": true, "wss": true,
}

// WaitToken waits for tok until it completes, ctx ends or timeout passes.
func WaitToken(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timed out after %s", timeout)
	}
	return tok.Error()
}

// URL returns the broker address this subscriber connects to.
func (s *PahoSubscriber) URL() string {
	return s.url
}

func (s *PahoSubscriber) Connect(ctx context.Context) error {
	if err := WaitToken(ctx, s.client.Connect(), s.opts.ConnectTimeout+time.Second); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("connect to %s: %w", s.url, err)
	}
	return nil
}

func (s *PahoSubscriber) Subscribe(topic string, qos byte, handler MessageHandler) error {
	s.mu.Lock()
	s.subs[topic] = subscription{qos: qos, handler: handler}
	s.mu.Unlock()

	return s.subscribe(topic, qos, handler)
}

func (s *PahoSubscriber) subscribe(topic string, qos byte, handler MessageHandler) error {
	tok := s.client.Subscribe(topic, qos, func(_ mqtt.Client, m mqtt.Message) {
		handler(m.Topic(), m.Payload())
	})
	if !tok.WaitTimeout(s.opts.ConnectTimeout) {
		return fmt.Errorf("subscribe to %q: timed out", topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("subscribe to %q: %w", topic, err)
	}
	return nil
}

func (s *PahoSubscriber) Unsubscribe(topic string) error {
	s.mu.Lock()
	delete(s.subs, topic)
	s.mu.Unlock()

	if !s.client.IsConnectionOpen() {
		return nil
	}
	tok := s.client.Unsubscribe(topic)
	if !tok.WaitTimeout(s.opts.ConnectTimeout) {
		return fmt.Errorf("unsubscribe from %q: timed out", topic)
	}
	return tok.Error()
}

func (s *PahoSubscriber) Disconnect() {
	s.client.Disconnect(250)
}

func (s *PahoSubscriber) OnConnectionLost(fn func(error)) {
	s.mu.Lock()
	s.lost = fn
	s.mu.Unlock()
}

// connectionLost runs on paho's goroutine. With auto-reconnect on, paho
// recovers by itself and onConnect replays the subscriptions.
func (s *PahoSubscriber) connectionLost(_ mqtt.Client, err error) {
	if s.opts.Reconnect {
		s.log.Warn("connection to %s lost, reconnecting: %v", s.url, err)
		return
	}
	s.log.Warn("connection to %s lost: %v", s.url, err)

	s.mu.Lock()
	fn := s.lost
	s.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// onConnect runs on paho's goroutine after every successful connect. The
// first connect is left alone: Subscribe does that subscription itself and
// may already be in flight.
func (s *PahoSubscriber) onConnect(_ mqtt.Client) {
	s.mu.Lock()
	if !s.connected {
		s.connected = true
		s.mu.Unlock()
		return
	}
	subs := make(map[string]subscription, len(s.subs))
	for t, sub := range s.subs {
		subs[t] = sub
	}
	s.mu.Unlock()

	for topic, sub := range subs {
		if err := s.subscribe(topic, sub.qos, sub.handler); err != nil {
			s.log.Error("resubscribe after reconnect: %v", err)
			continue
		}
		s.log.Info("resubscribed to %s", topic)
	}
}

// pahoLogger adapts a Logger to paho's package-level log hooks.
type pahoLogger struct {
	emit func(format string, args ...interface{})
}

func (p pahoLogger) Println(v ...interface{}) {
	p.emit("%s", fmt.Sprint(v...))
}

func (p pahoLogger) Printf(format string, v ...interface{}) {
	p.emit(format, v...)
}

var bridgeMu sync.Mutex

// BridgeLogs routes paho's internal logging into log. Paho keeps these hooks
// in package globals, so the last call wins.
func BridgeLogs(log logger.Logger) {
	bridgeMu.Lock()
	defer bridgeMu.Unlock()

	mqtt.ERROR = pahoLogger{emit: log.Error}
	mqtt.CRITICAL = pahoLogger{emit: log.Error}
	mqtt.WARN = pahoLogger{emit: log.Warn}
	if logger.DebugEnabled() {
		mqtt.DEBUG = pahoLogger{emit: log.Debug}
	} else {
		mqtt.DEBUG = mqtt.NOOPLogger{}
	}
}
