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
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
	"github.com/Ott-cop/Oner-IoT/pkg/service/mqtt/mqtttest"
)

func TestPublisher_ReportState(t *testing.T) {
	tr := mqtttest.NewTransport(1)
	p := NewPublisher(Config{}, tr, zerolog.Nop())
	c := model.DefaultChannels()[0]

	p.ReportState(context.Background(), c, model.Device{ID: 2, Name: "pin_2", State: true})

	msgs := tr.PublishedOn("pin_2/state")
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Retain)
	var dev model.Device
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &dev))
	assert.Equal(t, model.Device{ID: 2, Name: "pin_2", State: true}, dev)
}

func TestPublisher_ReportLayout(t *testing.T) {
	tr := mqtttest.NewTransport(1)
	p := NewPublisher(Config{StateSuffix: "/status"}, tr, zerolog.Nop())
	channels := model.DefaultChannels()
	p.ReportLayout(context.Background(), channels, model.NewDefaultLayout(channels))

	assert.Len(t, tr.PublishedOn("pin_2/status"), 1)
	assert.Len(t, tr.PublishedOn("pin_23/status"), 1)
	assert.Empty(t, tr.PublishedOn("pin_2"))
}

func TestPublisher_Nil(t *testing.T) {
	var p *Publisher
	p.ReportState(context.Background(), model.DefaultChannels()[0], model.Device{})
	p.ReportLayout(context.Background(), model.DefaultChannels(), nil)
}

func TestPublisher_FailureIsIgnored(t *testing.T) {
	tr := mqtttest.NewTransport(1)
	require.NoError(t, tr.Close())
	p := NewPublisher(Config{}, tr, zerolog.Nop())
	p.ReportState(context.Background(), model.DefaultChannels()[0], model.Device{})
	assert.Empty(t, tr.Published())
}
