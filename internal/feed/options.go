package feed

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default connection settings.
const (
	DefaultBroker               = "localhost"
	DefaultPort                 = 1883
	DefaultConnectTimeout       = 10 * time.Second
	DefaultMaxReconnectInterval = 30 * time.Second
)

// AtMostOnce is the QoS used for every subscription and publish.
const AtMostOnce byte = 0

// Options configures the connection to the broker.
type Options struct {
	Broker   string
	Port     int
	Topic    string
	ClientID string

	ConnectTimeout       time.Duration
	Reconnect            bool
	MaxReconnectInterval time.Duration
}

// DefaultOptions returns options for a local broker with reconnects enabled.
func DefaultOptions() Options {
	return Options{
		Broker:               DefaultBroker,
		Port:                 DefaultPort,
		ConnectTimeout:       DefaultConnectTimeout,
		Reconnect:            true,
		MaxReconnectInterval: DefaultMaxReconnectInterval,
	}
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.MaxReconnectInterval <= 0 {
		o.MaxReconnectInterval = DefaultMaxReconnectInterval
	}
	return o
}

// BrokerURL returns the broker address in the form paho expects. A Broker
// value that already carries a scheme (ws://, ssl://) is used as-is;
// otherwise the connection is plain tcp.
func (o Options) BrokerURL() string {
	if strings.Contains(o.Broker, "://") {
		return o.Broker
	}
	host := o.Broker
	if host == "" {
		host = DefaultBroker
	}
	port := o.Port
	if port == 0 {
		port = DefaultPort
	}
	return "tcp://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// ClientIDOrDefault returns ClientID, or a random "fv-" prefixed id so that
// two viewers on one broker don't kick each other off.
func (o Options) ClientIDOrDefault() string {
	if o.ClientID != "" {
		return o.ClientID
	}
	return "fv-" + uuid.NewString()[:8]
}
