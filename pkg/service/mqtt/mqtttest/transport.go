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

// Package mqtttest provides an in-memory Transport for tests.
package mqtttest

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
	"github.com/Ott-cop/Oner-IoT/pkg/service/mqtt"
)

// Message is a publication recorded by the Transport.
type Message struct {
	Topic   string
	Payload []byte
	Retain  bool
}

type item struct {
	ev  mqtt.Event
	err error
}

// Transport is an in-memory mqtt.Transport.
type Transport struct {
	mutex          sync.Mutex
	queue          chan item
	subscribed     map[string]bool
	subscribeCalls map[string]int
	subscribeErr   func(topic string) error
	published      []Message
	closed         bool
}

var _ mqtt.Transport = &Transport{}

// NewTransport creates a transport with an inbound queue of given size.
func NewTransport(queueSize int) *Transport {
	return &Transport{
		queue:          make(chan item, queueSize),
		subscribed:     make(map[string]bool),
		subscribeCalls: make(map[string]int),
	}
}

// SetSubscribeError makes Subscribe fail whenever fn returns an error.
// Pass nil to let all subscriptions succeed.
func (t *Transport) SetSubscribeError(fn func(topic string) error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.subscribeErr = fn
}

// Subscribe records a subscription to the given topic.
func (t *Transport) Subscribe(ctx context.Context, topic string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.closed {
		return errors.Wrap(model.TransportError, "transport closed")
	}
	t.subscribeCalls[topic]++
	if t.subscribeErr != nil {
		if err := t.subscribeErr(topic); err != nil {
			return errors.Wrapf(model.TransportError, "subscribe to '%s': %s", topic, err)
		}
	}
	t.subscribed[topic] = true
	return nil
}

// Publish records a publication.
func (t *Transport) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.closed {
		return errors.Wrap(model.TransportError, "transport closed")
	}
	t.published = append(t.published, Message{
		Topic:   topic,
		Payload: append([]byte(nil), payload...),
		Retain:  retain,
	})
	return nil
}

// NextEvent returns the next queued event or error.
func (t *Transport) NextEvent(ctx context.Context) (mqtt.Event, error) {
	select {
	case it := <-t.queue:
		return it.ev, it.err
	case <-ctx.Done():
		return mqtt.Event{}, ctx.Err()
	}
}

// Close the transport.
func (t *Transport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.closed = true
	return nil
}

// Deliver queues a message like a broker would: only when the topic
// is subscribed, and once no matter how often it was subscribed.
// Returns true if the message was queued.
func (t *Transport) Deliver(topic string, payload []byte) bool {
	t.mutex.Lock()
	subscribed := t.subscribed[topic]
	t.mutex.Unlock()
	if !subscribed {
		return false
	}
	t.Inject(topic, payload)
	return true
}

// Inject queues a message regardless of subscriptions.
func (t *Transport) Inject(topic string, payload []byte) {
	t.queue <- item{ev: mqtt.Event{Kind: mqtt.EventReceived, Topic: topic, Payload: payload}}
}

// InjectEvent queues the given event.
func (t *Transport) InjectEvent(ev mqtt.Event) {
	t.queue <- item{ev: ev}
}

// InjectError makes a single NextEvent call return the given error.
func (t *Transport) InjectError(err error) {
	t.queue <- item{err: err}
}

// SubscribeCalls returns the number of subscribe attempts for given topic.
func (t *Transport) SubscribeCalls(topic string) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.subscribeCalls[topic]
}

// IsSubscribed returns true if a subscription to the topic succeeded.
func (t *Transport) IsSubscribed(topic string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.subscribed[topic]
}

// Published returns all recorded publications.
func (t *Transport) Published() []Message {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return append([]Message(nil), t.published...)
}

// PublishedOn returns the recorded publications on the given topic.
func (t *Transport) PublishedOn(topic string) []Message {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	var result []Message
	for _, m := range t.published {
		if m.Topic == topic {
			result = append(result, m)
		}
	}
	return result
}
