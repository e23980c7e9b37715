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
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Command is a raw command, as routed to the runner of a channel.
type Command struct {
	// Channel is the name of the channel the command is for.
	Channel string
	// Payload is the message payload, as received from the broker.
	Payload []byte
	// ReceivedAt is the time the router picked up the message.
	ReceivedAt time.Time
}

// CommandRequest is the decoded payload of a command.
// Only State is used, ID and Name are accepted for compatibility
// with clients that send the full device record.
type CommandRequest struct {
	ID    *int    `json:"id,omitempty"`
	Name  *string `json:"name,omitempty"`
	State *bool   `json:"state" validate:"required"`
}

// DesiredState returns the requested output value.
func (r CommandRequest) DesiredState() bool {
	return r.State != nil && *r.State
}

var commandValidator = validator.New()

// DecodeCommand parses a command payload.
// Returns a DecodeError when the payload is not valid JSON or has
// no boolean state.
func DecodeCommand(payload []byte) (CommandRequest, error) {
	var req CommandRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return CommandRequest{}, errors.Wrapf(DecodeError, "invalid JSON: %s", err)
	}
	if err := commandValidator.Struct(req); err != nil {
		return CommandRequest{}, errors.Wrapf(DecodeError, "invalid command: %s", err)
	}
	return req, nil
}
