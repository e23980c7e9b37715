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

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestChannels_Validate(t *testing.T) {
	assert.NoError(t, DefaultChannels().Validate())

	tests := map[string]Channels{
		"empty":           {},
		"no name":         {{Topic: "a", Pin: 1}},
		"no topic":        {{Name: "a", Pin: 1}},
		"wildcard":        {{Name: "a", Topic: "a/#", Pin: 1}},
		"negative pin":    {{Name: "a", Topic: "a", Pin: -1}},
		"duplicate name":  {{Name: "a", Topic: "a", Pin: 1}, {Name: "a", Topic: "b", Pin: 2}},
		"duplicate topic": {{Name: "a", Topic: "t", Pin: 1}, {Name: "b", Topic: "t", Pin: 2}},
		"duplicate pin":   {{Name: "a", Topic: "a", Pin: 1}, {Name: "b", Topic: "b", Pin: 1}},
	}
	for name, cs := range tests {
		err := cs.Validate()
		assert.True(t, IsValidation(err), name)
	}
}

func TestChannels_Lookup(t *testing.T) {
	cs := DefaultChannels()
	assert.Equal(t, []string{"pin_2", "pin_23"}, cs.Names())
	assert.Equal(t, []string{"pin_2", "pin_23"}, cs.Topics())

	c, found := cs.ByTopic("pin_23")
	assert.True(t, found)
	assert.Equal(t, 23, c.Pin)

	_, found = cs.ByTopic("pin_5")
	assert.False(t, found)

	c, found = cs.ByName("pin_2")
	assert.True(t, found)
	assert.Equal(t, "pin_2", c.Topic)
}

func TestIsErrorFunc(t *testing.T) {
	assert.False(t, IsStorage(nil))
	assert.True(t, IsStorage(StorageError))
	assert.True(t, IsStorage(errors.Wrap(StorageError, "read")))
	assert.True(t, IsStorage(errors.WithStack(errors.Wrap(StorageError, "read"))))
	assert.False(t, IsStorage(errors.Wrap(TransportError, "read")))
}
