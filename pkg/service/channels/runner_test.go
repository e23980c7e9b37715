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

package channels

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ott-cop/Oner-IoT/pkg/model"
	"github.com/Ott-cop/Oner-IoT/pkg/service/bridge"
	"github.com/Ott-cop/Oner-IoT/pkg/service/storage"
)

type failingBackend struct {
	storage.Backend
	mutex     sync.Mutex
	failWrite bool
}

func (b *failingBackend) setFailWrite(fail bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.failWrite = fail
}

func (b *failingBackend) Write(ctx context.Context, namespace, key string, value []byte) error {
	b.mutex.Lock()
	fail := b.failWrite
	b.mutex.Unlock()
	if fail {
		return errors.New("flash is full")
	}
	return b.Backend.Write(ctx, namespace, key, value)
}

type recordingReporter struct {
	mutex   sync.Mutex
	reports []model.Device
}

func (r *recordingReporter) ReportState(ctx context.Context, c model.Channel, dev model.Device) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, dev)
}

func (r *recordingReporter) Record(c model.Channel, dev model.Device) {
	r.ReportState(context.Background(), c, dev)
}

func (r *recordingReporter) count() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.reports)
}

type fixture struct {
	channel  model.Channel
	backend  *failingBackend
	store    *storage.LayoutStore
	bridge   *bridge.VirtualBridge
	pin      *bridge.Pin
	reporter *recordingReporter
	runner   *Runner
	active   int
}

func newFixture(t *testing.T, initialize bool) *fixture {
	ctx := context.Background()
	channels := model.DefaultChannels()
	f := &fixture{
		channel:  channels[0],
		backend:  &failingBackend{Backend: storage.NewMemoryBackend()},
		bridge:   bridge.NewVirtualBridge(),
		reporter: &recordingReporter{},
	}
	f.store = storage.NewLayoutStore(storage.Config{Channels: channels}, f.backend, zerolog.Nop())
	if initialize {
		_, err := f.store.InitializeDefault(ctx)
		require.NoError(t, err)
	}
	pin, err := bridge.OpenPin(f.bridge, f.channel.Pin, false, false)
	require.NoError(t, err)
	f.pin = pin
	f.runner = NewRunner(Config{Channel: f.channel}, Dependencies{
		Log:      zerolog.Nop(),
		Store:    f.store,
		Pin:      pin,
		Status:   f.reporter,
		OnActive: func() { f.active++ },
	})
	return f
}

func (f *fixture) persisted(t *testing.T) model.Device {
	l, found, err := f.store.Read(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	return l[f.channel.Name]
}

func cmd(payload string) model.Command {
	return model.Command{Channel: "pin_2", Payload: []byte(payload), ReceivedAt: time.Now()}
}

func TestRunner_Apply(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.runner.Apply(ctx, cmd(`{"state":true}`)))
	assert.Equal(t, model.Device{ID: 2, Name: "pin_2", State: true}, f.persisted(t))
	assert.True(t, f.pin.Get())
	assert.Equal(t, 1, f.reporter.count())
	assert.Equal(t, 1, f.active)

	require.NoError(t, f.runner.Apply(ctx, cmd(`{"id":5,"name":"x","state":false}`)))
	assert.Equal(t, model.Device{ID: 2, Name: "pin_2", State: false}, f.persisted(t))
	assert.False(t, f.pin.Get())
}

func TestRunner_ApplyIsIdempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	require.NoError(t, f.runner.Apply(ctx, cmd(`{"state":true}`)))
	first, _, err := f.store.Read(ctx)
	require.NoError(t, err)
	require.NoError(t, f.runner.Apply(ctx, cmd(`{"state":true}`)))
	second, _, err := f.store.Read(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, f.pin.Get())
}

func TestRunner_MalformedCommand(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	require.NoError(t, f.runner.Apply(ctx, cmd(`{"state":true}`)))
	writes := f.bridge.PinWrites(f.channel.Pin)

	for _, p := range []string{`garbage`, `{}`, `{"state":"off"}`, ``} {
		err := f.runner.Apply(ctx, cmd(p))
		assert.True(t, model.IsDecode(err), p)
	}
	assert.True(t, f.persisted(t).State)
	assert.True(t, f.pin.Get())
	assert.Equal(t, writes, f.bridge.PinWrites(f.channel.Pin))
	assert.Equal(t, 1, f.reporter.count())
}

func TestRunner_StorageFailureLeavesPinUntouched(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	writes := f.bridge.PinWrites(f.channel.Pin)

	f.backend.setFailWrite(true)
	err := f.runner.Apply(ctx, cmd(`{"state":true}`))
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))
	assert.False(t, f.pin.Get())
	assert.Equal(t, writes, f.bridge.PinWrites(f.channel.Pin))
	assert.Equal(t, 0, f.reporter.count())

	f.backend.setFailWrite(false)
	assert.False(t, f.persisted(t).State)
	require.NoError(t, f.runner.Apply(ctx, cmd(`{"state":true}`)))
	assert.True(t, f.pin.Get())
}

func TestRunner_ActuationFailureKeepsPersistedState(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.bridge.SetPinError(f.channel.Pin, errors.New("gpio busy"))
	err := f.runner.Apply(ctx, cmd(`{"state":true}`))
	require.Error(t, err)
	assert.True(t, model.IsActuation(err))
	assert.True(t, f.persisted(t).State)
	assert.False(t, f.pin.Get())
	assert.Equal(t, 0, f.reporter.count())
}

func TestRunner_LayoutMissingIsFatal(t *testing.T) {
	f := newFixture(t, false)
	f.runner.Queue() <- cmd(`{"state":true}`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := f.runner.Run(ctx)
	require.Error(t, err)
	assert.True(t, model.IsLayoutMissing(err))
	assert.False(t, f.pin.Get())
}

func TestRunner_RunAppliesInOrder(t *testing.T) {
	f := newFixture(t, true)
	history := &recordingReporter{}
	f.runner.History = history

	payloads := []string{`{"state":true}`, `{"state":false}`, `bad`, `{"state":true}`, `{"state":false}`, `{"state":true}`}
	for _, p := range payloads {
		f.runner.Queue() <- cmd(p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.runner.Run(ctx) }()
	require.Eventually(t, func() bool { return history.count() == 5 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	expected := []bool{true, false, true, false, true}
	for i, dev := range history.reports {
		assert.Equal(t, expected[i], dev.State, "report %d", i)
	}
	assert.True(t, f.persisted(t).State)
	assert.True(t, f.pin.Get())
}

func TestRunner_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.runner.Run(ctx))
}
