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
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Layout is the persisted map of all devices, keyed by channel name.
type Layout map[string]Device

// NewDefaultLayout returns a layout with an entry for every channel,
// all switched off.
func NewDefaultLayout(channels Channels) Layout {
	l := make(Layout, len(channels))
	for _, c := range channels {
		l[c.Name] = Device{ID: c.ID, Name: c.Name}
	}
	return l
}

// EncodeLayout serializes the layout into its persisted form.
// Keys are sorted, so equal layouts encode to equal bytes.
func EncodeLayout(l Layout) ([]byte, error) {
	if l == nil {
		l = Layout{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, maskAny(err)
	}
	return data, nil
}

// DecodeLayout parses a persisted layout.
func DecodeLayout(data []byte) (Layout, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty layout record")
	}
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, maskAny(err)
	}
	if l == nil {
		l = Layout{}
	}
	return l, nil
}

// Normalize returns a copy of the layout that contains exactly one
// entry per channel. Missing entries are added switched off, entries
// of unknown channels are removed and ids/names are taken from the
// channel table. Existing states are kept.
// The returned boolean is true when the result differs from l.
func (l Layout) Normalize(channels Channels) (Layout, bool) {
	result := make(Layout, len(channels))
	changed := false
	for _, c := range channels {
		dev, found := l[c.Name]
		if !found || dev.ID != c.ID || dev.Name != c.Name {
			changed = true
		}
		dev.ID = c.ID
		dev.Name = c.Name
		result[c.Name] = dev
	}
	for name := range l {
		if _, found := result[name]; !found {
			changed = true
		}
	}
	return result, changed
}

// Clone returns a copy of the layout.
func (l Layout) Clone() Layout {
	if l == nil {
		return nil
	}
	result := make(Layout, len(l))
	for k, v := range l {
		result[k] = v
	}
	return result
}

// Equal returns true if both layouts contain the same devices.
func (l Layout) Equal(other Layout) bool {
	if len(l) != len(other) {
		return false
	}
	for k, v := range l {
		if ov, found := other[k]; !found || ov != v {
			return false
		}
	}
	return true
}
