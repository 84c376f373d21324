package publish

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rileyhilliard/fv/internal/errors"
	"github.com/rileyhilliard/fv/internal/feed"
	"github.com/rileyhilliard/fv/internal/logger"
)

// Publisher sends payloads to a broker.
type Publisher interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
	Disconnect()
}

// PahoPublisher implements Publisher with the Eclipse Paho MQTT client,
// sharing connection settings with the feed subscriber.
type PahoPublisher struct {
	url     string
	timeout time.Duration
	client  mqtt.Client
}

func NewPahoPublisher(opts feed.Options, log logger.Logger) (*PahoPublisher, error) {
	if log == nil {
		log = logger.Noop()
	}
	co, err := feed.NewClientOptions(opts)
	if err != nil {
		return nil, err
	}
	url := opts.BrokerURL()
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("connection to %s lost: %v", url, err)
	})
	return &PahoPublisher{
		url:     url,
		timeout: co.ConnectTimeout,
		client:  mqtt.NewClient(co),
	}, nil
}

func (p *PahoPublisher) Connect(ctx context.Context) error {
	if err := feed.WaitToken(ctx, p.client.Connect(), p.timeout+time.Second); err != nil {
		return fmt.Errorf("connect to %s: %w", p.url, err)
	}
	return nil
}

func (p *PahoPublisher) Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	return feed.WaitToken(ctx, p.client.Publish(topic, qos, retained, payload), p.timeout)
}

func (p *PahoPublisher) Disconnect() {
	p.client.Disconnect(250)
}

// RunOptions controls a publishing run.
type RunOptions struct {
	Topic    string
	Retained bool
	Interval time.Duration
	// Count stops the run after this many messages; 0 runs until ctx ends.
	Count  int
	Logger logger.Logger
	// OnPublish is called after each successful publish.
	OnPublish func(n int, payload []byte)
}

// DefaultInterval is the publishing rate of the demo feeds.
const DefaultInterval = time.Second

// Run connects pub and publishes one generated payload per interval,
// starting immediately. It returns the number of messages sent. A
// cancelled ctx ends the run without error.
func Run(ctx context.Context, pub Publisher, gen Generator, opts RunOptions) (int, error) {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}

	if err := pub.Connect(ctx); err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConnect,
			"Couldn't connect to the MQTT broker",
			"Check --host and --port, and that the broker is running")
	}
	defer pub.Disconnect()

	sent := 0
	publishOne := func(now time.Time) error {
		payload, err := gen.Next(now)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrPublish, "Couldn't generate a payload", "")
		}
		if err := pub.Publish(ctx, opts.Topic, feed.AtMostOnce, opts.Retained, payload); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.WrapWithCode(err, errors.ErrPublish,
				fmt.Sprintf("Couldn't publish to %s", opts.Topic), "")
		}
		sent++
		log.Debug("published #%d to %s: %s", sent, opts.Topic, payload)
		if opts.OnPublish != nil {
			opts.OnPublish(sent, payload)
		}
		return nil
	}

	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	now := time.Now()
	for {
		if ctx.Err() != nil {
			return sent, nil
		}
		if err := publishOne(now); err != nil {
			return sent, err
		}
		if opts.Count > 0 && sent >= opts.Count {
			return sent, nil
		}
		select {
		case <-ctx.Done():
			return sent, nil
		case now = <-ticker.C:
		}
	}
}
