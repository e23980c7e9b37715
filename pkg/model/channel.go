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

package model

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Channel is a single entry of the channel table.
// It binds a layout name to a physical output pin and a command topic.
type Channel struct {
	// Name is the key of the channel in the layout.
	Name string
	// ID is stored in the device record of this channel.
	ID int
	// Pin is the GPIO number of the output.
	Pin int
	// Topic is the MQTT topic commands for this channel arrive on.
	Topic string
	// ActiveLow inverts the electrical level of the output.
	ActiveLow bool
}

// Channels is the static channel table.
type Channels []Channel

// DefaultChannels returns the channel table used when none is configured.
func DefaultChannels() Channels {
	return Channels{
		{Name: "pin_2", ID: 2, Pin: 2, Topic: "pin_2"},
		{Name: "pin_23", ID: 23, Pin: 23, Topic: "pin_23"},
	}
}

// Validate checks a single channel.
func (c Channel) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.Wrap(ValidationError, "channel name is empty")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.Wrapf(ValidationError, "channel '%s' has an empty topic", c.Name)
	}
	if strings.ContainsAny(c.Topic, "+#") {
		return errors.Wrapf(ValidationError, "channel '%s' topic '%s' contains a wildcard", c.Name, c.Topic)
	}
	if c.Pin < 0 {
		return errors.Wrapf(ValidationError, "channel '%s' has invalid pin %d", c.Name, c.Pin)
	}
	return nil
}

// Validate checks all channels and makes sure that names, topics
// and pins are unique.
func (cs Channels) Validate() error {
	if len(cs) == 0 {
		return errors.Wrap(ValidationError, "no channels configured")
	}
	for _, c := range cs {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if dups := lo.FindDuplicatesBy(cs, func(c Channel) string { return c.Name }); len(dups) > 0 {
		return errors.Wrapf(ValidationError, "duplicate channel name '%s'", dups[0].Name)
	}
	if dups := lo.FindDuplicatesBy(cs, func(c Channel) string { return c.Topic }); len(dups) > 0 {
		return errors.Wrapf(ValidationError, "duplicate channel topic '%s'", dups[0].Topic)
	}
	if dups := lo.FindDuplicatesBy(cs, func(c Channel) int { return c.Pin }); len(dups) > 0 {
		return errors.Wrapf(ValidationError, "duplicate channel pin %d", dups[0].Pin)
	}
	return nil
}

// Names returns the names of all channels, in table order.
func (cs Channels) Names() []string {
	return lo.Map(cs, func(c Channel, _ int) string { return c.Name })
}

// Topics returns the command topics of all channels, in table order.
func (cs Channels) Topics() []string {
	return lo.Map(cs, func(c Channel, _ int) string { return c.Topic })
}

// ByName returns the channel with given name.
func (cs Channels) ByName(name string) (Channel, bool) {
	return lo.Find(cs, func(c Channel) bool { return c.Name == name })
}

// ByTopic returns the channel commanded by the given topic.
func (cs Channels) ByTopic(topic string) (Channel, bool) {
	return lo.Find(cs, func(c Channel) bool { return c.Topic == topic })
}
