package mqtt

import (
	"fmt"
	"time"

	"github.com/golang-io/mqtt/packet"
	"github.com/golang-io/requests"
)

// Options configures a Session. Its zero-value-filled defaults come from
// newOptions; callers customize with functional Option values the way the
// teacher's client constructor does.
type Options struct {
	URL      string
	ClientID string
	Version  byte

	KeepAlive  time.Duration
	CleanStart bool

	Username string
	Password []byte

	WillTopic   string
	WillPayload []byte
	WillQoS     uint8
	WillRetain  bool

	Subscriptions []packet.Subscription

	ConnectTimeout time.Duration
	PingTimeout    time.Duration
}

type Option func(*Options)

func newOptions(opts ...Option) Options {
	options := Options{
		URL:            "mqtt://127.0.0.1:1883",
		ClientID:       "mqtt-" + requests.GenId(),
		Version:        packet.VERSION311,
		KeepAlive:      60 * time.Second,
		CleanStart:     true,
		ConnectTimeout: 10 * time.Second,
		PingTimeout:    15 * time.Second,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

// URL sets the broker address, e.g. "mqtt://host:1883", "mqtts://host:8883"
// or "ws://host:8083/mqtt".
func URL(url string) Option {
	return func(o *Options) { o.URL = url }
}

// ClientID overrides the random default client identifier.
func ClientID(id string) Option {
	return func(o *Options) { o.ClientID = id }
}

// KeepAlive sets the keep-alive interval; zero disables the ping timer
// entirely (C8).
func KeepAlive(d time.Duration) Option {
	return func(o *Options) { o.KeepAlive = d }
}

// CleanStart controls the v3.1.1 CleanSession / v5 Clean Start bit.
func CleanStart(clean bool) Option {
	return func(o *Options) { o.CleanStart = clean }
}

// Credentials sets the CONNECT username/password fields.
func Credentials(username string, password []byte) Option {
	return func(o *Options) {
		o.Username = username
		o.Password = password
	}
}

// Will sets the CONNECT last-will-and-testament fields.
func Will(topic string, payload []byte, qos uint8, retain bool) Option {
	return func(o *Options) {
		o.WillTopic = topic
		o.WillPayload = payload
		o.WillQoS = qos
		o.WillRetain = retain
	}
}

// Subscription accumulates topic filters subscribed to immediately after
// CONNACK.
func Subscription(subscription ...packet.Subscription) Option {
	return func(o *Options) { o.Subscriptions = append(o.Subscriptions, subscription...) }
}

// Version selects the protocol version, by wire byte or version string.
func Version[T ~string | ~byte](version T) Option {
	return func(o *Options) {
		switch v := any(version).(type) {
		case byte:
			o.Version = v
		case string:
			switch v {
			case "5.0.0", "5":
				o.Version = packet.VERSION500
			case "3.1.1":
				o.Version = packet.VERSION311
			default:
				panic(fmt.Errorf("mqtt: version %q not supported", v))
			}
		}
	}
}

// ConnectTimeout bounds how long Connect waits for a CONNACK.
func ConnectTimeout(d time.Duration) Option {
	return func(o *Options) { o.ConnectTimeout = d }
}
