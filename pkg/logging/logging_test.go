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

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mutex    sync.Mutex
	topics   []string
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte, retain bool) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.payloads)
}

func TestMQTTWriter_PublishesWhenEnabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewMQTTWriter(ctx)
	p := &recordingPublisher{}
	w.SetDestination("oner/log", p)

	buf := []byte("first line")
	_, err := w.Write(buf)
	require.NoError(t, err)
	copy(buf, []byte("XXXXX"))
	w.Enable(true)

	require.Eventually(t, func() bool { return p.count() == 1 }, 5*time.Second, 10*time.Millisecond)
	p.mutex.Lock()
	defer p.mutex.Unlock()
	assert.Equal(t, "oner/log", p.topics[0])
	var msg logMsg
	require.NoError(t, json.Unmarshal(p.payloads[0], &msg))
	assert.Equal(t, "first line", msg.Message)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestMultiWriter_WritesToAll(t *testing.T) {
	var a, b bytes.Buffer
	w := NewMultiWriter(&a, failingWriter{}, &b)
	n, err := w.Write([]byte("hello"))
	assert.Error(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, "hello", b.String())
}

func TestNewLogger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _, err := NewLogger(ctx, Config{Level: "loud"})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "oner.log")
	log, w, err := NewLogger(ctx, Config{Level: "debug", File: file})
	require.NoError(t, err)
	assert.NotNil(t, w)
	log.Info().Msg("hello")
	assert.FileExists(t, file)
}
