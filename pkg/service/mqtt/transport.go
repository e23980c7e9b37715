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
)

// EventKind identifies the type of an Event.
type EventKind int

const (
	// EventReceived is a message received on a subscribed topic.
	EventReceived EventKind = iota
	// EventConnected is raised when the connection to the broker is (re)established.
	EventConnected
	// EventDisconnected is raised when the connection to the broker is lost.
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventReceived:
		return "received"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Event is a single item of the inbound event stream.
type Event struct {
	Kind    EventKind
	Topic   string
	Payload []byte
	// Err is the cause of a disconnect.
	Err error
}

// Transport is a session with an MQTT broker.
type Transport interface {
	// Subscribe to the given exact topic.
	// Subscribing again to the same topic does not cause duplicate delivery.
	Subscribe(ctx context.Context, topic string) error
	// Publish a payload on the given topic.
	Publish(ctx context.Context, topic string, payload []byte, retain bool) error
	// NextEvent blocks until the next inbound event is available.
	// Messages are returned in the order the broker delivered them.
	NextEvent(ctx context.Context) (Event, error)
	// Close the session.
	Close() error
}
