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

package history

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/rs/zerolog"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
)

const (
	measurement = "channel_state"
)

// Recorder records applied channel states.
type Recorder interface {
	// Record the state of a channel. Never blocks on I/O.
	Record(c model.Channel, dev model.Device)
	// Close flushes pending records.
	Close()
}

// Config of the InfluxDB recorder.
type Config struct {
	// URL of the InfluxDB server. Empty disables history.
	URL    string
	Token  string
	Org    string
	Bucket string
}

// NewRecorder creates a recorder writing to InfluxDB, or a recorder
// that does nothing when no URL is configured.
func NewRecorder(conf Config, log zerolog.Logger) Recorder {
	if conf.URL == "" {
		return NopRecorder()
	}
	client := influxdb2.NewClient(conf.URL, conf.Token)
	writeAPI := client.WriteAPI(conf.Org, conf.Bucket)
	r := &influxRecorder{
		log:      log.With().Str("component", "history").Logger(),
		client:   client,
		writeAPI: writeAPI,
	}
	go r.logErrors()
	return r
}

type influxRecorder struct {
	log      zerolog.Logger
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

func (r *influxRecorder) logErrors() {
	for err := range r.writeAPI.Errors() {
		r.log.Warn().Err(err).Msg("Failed to write state history")
	}
}

// Record the state of a channel.
func (r *influxRecorder) Record(c model.Channel, dev model.Device) {
	p := influxdb2.NewPoint(measurement,
		map[string]string{
			"channel": c.Name,
			"topic":   c.Topic,
		},
		map[string]interface{}{
			"state": dev.State,
			"pin":   c.Pin,
		},
		time.Now())
	r.writeAPI.WritePoint(p)
}

// Close flushes pending records.
func (r *influxRecorder) Close() {
	r.writeAPI.Flush()
	r.client.Close()
}

type nopRecorder struct{}

// NopRecorder returns a recorder that does nothing.
func NopRecorder() Recorder {
	return nopRecorder{}
}

func (nopRecorder) Record(model.Channel, model.Device) {}
func (nopRecorder) Close()                             {}
