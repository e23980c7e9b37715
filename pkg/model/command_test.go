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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand_Valid(t *testing.T) {
	tests := []struct {
		payload string
		state   bool
	}{
		{`{"state":true}`, true},
		{`{"state":false}`, false},
		{`{"id":2,"name":"pin_2","state":true}`, true},
		{`{"id":99,"name":"ignored","state":false}`, false},
		{`{"state":true,"extra":"field"}`, true},
	}
	for _, tt := range tests {
		req, err := DecodeCommand([]byte(tt.payload))
		require.NoError(t, err, tt.payload)
		assert.Equal(t, tt.state, req.DesiredState(), tt.payload)
	}
}

func TestDecodeCommand_Invalid(t *testing.T) {
	payloads := []string{
		``,
		`garbage`,
		`null`,
		`{}`,
		`{"id":2,"name":"pin_2"}`,
		`{"state":"on"}`,
		`{"state":1}`,
		`{"id":"two","state":true}`,
		`[true]`,
	}
	for _, p := range payloads {
		_, err := DecodeCommand([]byte(p))
		require.Error(t, err, p)
		assert.True(t, IsDecode(err), p)
	}
}
