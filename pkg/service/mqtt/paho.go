// Copyright 2026 Ott-cop
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ott-cop
//

package mqtt

import (
	"context"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
)

const (
	// StatusOnline is published (retained) on the status topic after connecting.
	StatusOnline = "online"
	// StatusOffline is the last-will payload of the status topic.
	StatusOffline = "offline"

	defaultQueueSize            = 256
	defaultConnectRetryInterval = 2 * time.Second
	defaultConnectTimeout       = 10 * time.Second
	defaultKeepAlive            = 30 * time.Second
	subscribeTimeout            = 5 * time.Second
	publishTimeout              = 5 * time.Second
	disconnectQuiesce           = 250 // milliseconds
)

// Config of the MQTT transport.
type Config struct {
	// BrokerURL, e.g. tcp://broker:1883
	BrokerURL string
	ClientID  string
	// UserName defaults to ClientID when a password is set.
	UserName string
	Password string
	// QoS used for subscriptions and publications.
	QoS byte
	// StatusTopic receives "online" / "offline" (retained).
	// Leave empty to disable.
	StatusTopic string
	// ConnectRetryInterval is the delay between connect attempts.
	// It also caps the reconnect delay, so retries never back off further.
	ConnectRetryInterval time.Duration
	// QueueSize is the capacity of the inbound event queue.
	QueueSize int
}

type pahoTransport struct {
	config Config
	log    zerolog.Logger
	client paho.Client
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewTransport creates a transport and starts connecting to the broker.
// Connecting continues in the background until it succeeds; calls made
// before that fail with a TransportError.
func NewTransport(config Config, log zerolog.Logger) (Transport, error) {
	if config.BrokerURL == "" {
		return nil, errors.Wrap(model.ValidationError, "broker URL is empty")
	}
	if config.QoS > 2 {
		return nil, errors.Wrapf(model.ValidationError, "invalid QoS %d", config.QoS)
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}
	if config.ConnectRetryInterval <= 0 {
		config.ConnectRetryInterval = defaultConnectRetryInterval
	}
	t := &pahoTransport{
		config: config,
		log:    log.With().Str("component", "mqtt").Logger(),
		events: make(chan Event, config.QueueSize),
		done:   make(chan struct{}),
	}
	t.client = paho.NewClient(t.buildClientOptions())

	token := t.client.Connect()
	go func() {
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				t.log.Error().Err(err).Msg("Failed to connect to MQTT broker")
			}
		case <-t.done:
		}
	}()
	return t, nil
}

func (t *pahoTransport) buildClientOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(t.config.BrokerURL)
	opts.SetClientID(t.config.ClientID)
	userName := t.config.UserName
	if userName == "" && t.config.Password != "" {
		userName = t.config.ClientID
	}
	if userName != "" {
		opts.SetUsername(userName)
		opts.SetPassword(t.config.Password)
	}
	opts.SetProtocolVersion(4)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(t.config.ConnectRetryInterval)
	opts.SetMaxReconnectInterval(t.config.ConnectRetryInterval)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	if topic := t.config.StatusTopic; topic != "" {
		opts.SetWill(topic, StatusOffline, t.config.QoS, true)
	}
	opts.SetOnConnectHandler(t.onConnect)
	opts.SetConnectionLostHandler(t.onConnectionLost)
	return opts
}

func (t *pahoTransport) onConnect(client paho.Client) {
	t.log.Info().Str("broker", t.config.BrokerURL).Msg("Connected to MQTT broker")
	if topic := t.config.StatusTopic; topic != "" {
		token := client.Publish(topic, t.config.QoS, true, StatusOnline)
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			t.log.Warn().Err(token.Error()).Msg("Failed to publish online status")
		}
	}
	t.notify(Event{Kind: EventConnected})
}

func (t *pahoTransport) onConnectionLost(client paho.Client, err error) {
	t.log.Warn().Err(err).Msg("Lost connection to MQTT broker")
	t.notify(Event{Kind: EventDisconnected, Err: err})
}

func (t *pahoTransport) onMessage(client paho.Client, msg paho.Message) {
	t.push(Event{
		Kind:    EventReceived,
		Topic:   msg.Topic(),
		Payload: append([]byte(nil), msg.Payload()...),
	})
}

// push an event onto the queue.
// Blocks while the queue is full. Commands are never dropped, but a consumer
// that falls QueueSize events behind stalls paho's inbound goroutine, and
// with it keepalive handling, until it catches up.
func (t *pahoTransport) push(ev Event) {
	select {
	case t.events <- ev:
		eventsQueuedTotal.WithLabelValues(ev.Kind.String()).Inc()
	case <-t.done:
	}
}

// notify queues a connection event without blocking.
// Connection events are informational; when the queue is full they are
// dropped so that connection handlers never wait on the consumer.
func (t *pahoTransport) notify(ev Event) {
	select {
	case t.events <- ev:
		eventsQueuedTotal.WithLabelValues(ev.Kind.String()).Inc()
	case <-t.done:
	default:
		eventsDroppedTotal.WithLabelValues(ev.Kind.String()).Inc()
		t.log.Warn().Str("kind", ev.Kind.String()).Msg("Event queue full, dropping connection event")
	}
}

// Subscribe to the given exact topic.
// paho keeps one handler per topic, so a repeated subscription replaces
// the previous one.
func (t *pahoTransport) Subscribe(ctx context.Context, topic string) error {
	token := t.client.Subscribe(topic, t.config.QoS, t.onMessage)
	if err := waitToken(ctx, token, subscribeTimeout); err != nil {
		return errors.Wrapf(model.TransportError, "subscribe to '%s': %s", topic, err)
	}
	return nil
}

// Publish a payload on the given topic.
// Fails immediately while the broker connection is down.
func (t *pahoTransport) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	if !t.client.IsConnectionOpen() {
		return errors.Wrapf(model.TransportError, "publish to '%s': not connected", topic)
	}
	token := t.client.Publish(topic, t.config.QoS, retain, payload)
	if err := waitToken(ctx, token, publishTimeout); err != nil {
		return errors.Wrapf(model.TransportError, "publish to '%s': %s", topic, err)
	}
	return nil
}

// NextEvent blocks until the next inbound event is available.
func (t *pahoTransport) NextEvent(ctx context.Context) (Event, error) {
	select {
	case ev := <-t.events:
		return ev, nil
	case <-t.done:
		return Event{}, errors.Wrap(model.TransportError, "transport closed")
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close publishes the offline status and disconnects.
func (t *pahoTransport) Close() error {
	t.once.Do(func() {
		if topic := t.config.StatusTopic; topic != "" && t.client.IsConnectionOpen() {
			token := t.client.Publish(topic, t.config.QoS, true, StatusOffline)
			token.WaitTimeout(publishTimeout)
		}
		close(t.done)
		t.client.Disconnect(disconnectQuiesce)
	})
	return nil
}

func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return errors.Errorf("timeout after %s", timeout)
	}
}
