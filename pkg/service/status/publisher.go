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

package status

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
	"github.com/Ott-cop/Oner-IoT/pkg/service/mqtt"
)

const (
	// DefaultStateSuffix is appended to a command topic to get its state topic.
	DefaultStateSuffix = "/state"
)

// Config of the publisher.
type Config struct {
	// StateSuffix is appended to the command topic of a channel.
	StateSuffix string
}

// Publisher reports the persisted state of channels as retained
// messages on their state topics.
// A nil Publisher does nothing.
type Publisher struct {
	log       zerolog.Logger
	transport mqtt.Transport
	suffix    string
}

// NewPublisher creates a publisher.
func NewPublisher(conf Config, transport mqtt.Transport, log zerolog.Logger) *Publisher {
	suffix := conf.StateSuffix
	if suffix == "" {
		suffix = DefaultStateSuffix
	}
	return &Publisher{
		log:       log.With().Str("component", "status").Logger(),
		transport: transport,
		suffix:    suffix,
	}
}

// StateTopic returns the topic the state of given channel is published on.
func (p *Publisher) StateTopic(c model.Channel) string {
	return c.Topic + p.suffix
}

// ReportState publishes the given device record of a channel.
// Failures are logged only.
func (p *Publisher) ReportState(ctx context.Context, c model.Channel, dev model.Device) {
	if p == nil {
		return
	}
	payload, err := json.Marshal(dev)
	if err != nil {
		p.log.Warn().Err(err).Str("channel", c.Name).Msg("Failed to encode state")
		return
	}
	topic := p.StateTopic(c)
	if err := p.transport.Publish(ctx, topic, payload, true); err != nil {
		publishErrorsTotal.WithLabelValues(c.Name).Inc()
		p.log.Debug().Err(err).Str("topic", topic).Msg("Failed to publish state")
		return
	}
	publishedTotal.WithLabelValues(c.Name).Inc()
}

// ReportLayout publishes the state of all channels.
func (p *Publisher) ReportLayout(ctx context.Context, channels model.Channels, layout model.Layout) {
	if p == nil {
		return
	}
	for _, c := range channels {
		if dev, found := layout[c.Name]; found {
			p.ReportState(ctx, c, dev)
		}
	}
}
