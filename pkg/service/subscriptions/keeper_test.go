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

package subscriptions

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ott-cop/Oner-IoT/pkg/service/mqtt/mqtttest"
)

var topics = []string{"pin_2", "pin_23"}

func newKeeper(tr *mqtttest.Transport, onSubscribed func(context.Context)) *Keeper {
	return NewKeeper(Config{
		Topics:              topics,
		RetryInterval:       2 * time.Second,
		ResubscribeInterval: 5 * time.Second,
	}, tr, onSubscribed, zerolog.Nop())
}

func TestKeeper_StepTransitions(t *testing.T) {
	ctx := context.Background()
	tr := mqtttest.NewTransport(1)
	calls := 0
	k := newKeeper(tr, func(context.Context) { calls++ })

	failing := true
	tr.SetSubscribeError(func(topic string) error {
		if failing {
			return errors.New("broker unavailable")
		}
		return nil
	})

	next, delay := k.step(ctx, StateSubscribing)
	assert.Equal(t, StateSubscribing, next)
	assert.Equal(t, 2*time.Second, delay)
	assert.Equal(t, 0, calls)

	failing = false
	next, delay = k.step(ctx, StateSubscribing)
	assert.Equal(t, StateSteady, next)
	assert.Equal(t, 5*time.Second, delay)
	assert.Equal(t, 1, calls)

	next, delay = k.step(ctx, StateSteady)
	assert.Equal(t, StateSteady, next)
	assert.Equal(t, 5*time.Second, delay)
	assert.Equal(t, 1, calls, "callback only on first success")

	failing = true
	next, delay = k.step(ctx, StateSteady)
	assert.Equal(t, StateSteady, next, "never returns to subscribing")
	assert.Equal(t, 2*time.Second, delay)
}

func TestKeeper_SubscribesEveryTopic(t *testing.T) {
	tr := mqtttest.NewTransport(1)
	k := newKeeper(tr, nil)
	next, _ := k.step(context.Background(), StateSubscribing)
	assert.Equal(t, StateSteady, next)
	for _, topic := range topics {
		assert.True(t, tr.IsSubscribed(topic))
		assert.Equal(t, 1, tr.SubscribeCalls(topic))
	}
}

func TestKeeper_RunRetriesUntilSubscribed(t *testing.T) {
	tr := mqtttest.NewTransport(1)
	var attempts int32
	tr.SetSubscribeError(func(topic string) error {
		if topic == "pin_2" && atomic.AddInt32(&attempts, 1) <= 2 {
			return errors.New("not connected")
		}
		return nil
	})
	var subscribed int32
	k := NewKeeper(Config{
		Topics:              topics,
		RetryInterval:       10 * time.Millisecond,
		ResubscribeInterval: 20 * time.Millisecond,
	}, tr, func(context.Context) { atomic.AddInt32(&subscribed, 1) }, zerolog.Nop())
	assert.Equal(t, StateSubscribing, k.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	require.Eventually(t, func() bool { return k.State() == StateSteady }, 5*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return tr.SubscribeCalls("pin_23") >= 3 }, 5*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), atomic.LoadInt32(&subscribed))
	assert.GreaterOrEqual(t, tr.SubscribeCalls("pin_2"), 3)
	assert.Equal(t, StateSteady, k.State())
}

func TestKeeper_DuplicateSubscriptionDeliversOnce(t *testing.T) {
	tr := mqtttest.NewTransport(4)
	k := newKeeper(tr, nil)
	ctx := context.Background()
	k.step(ctx, StateSubscribing)
	k.step(ctx, StateSteady)
	k.step(ctx, StateSteady)
	require.Equal(t, 3, tr.SubscribeCalls("pin_2"))

	require.True(t, tr.Deliver("pin_2", []byte(`{"state":true}`)))
	ev, err := tr.NextEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pin_2", ev.Topic)

	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = tr.NextEvent(shortCtx)
	assert.Error(t, err, "message must be delivered once")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "subscribing", StateSubscribing.String())
	assert.Equal(t, "steady", StateSteady.String())
}
