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

// Device is the persisted record of a single output channel.
type Device struct {
	// ID of the channel, taken from the channel table.
	ID int `json:"id"`
	// Name of the channel, equal to its key in the layout.
	Name string `json:"name"`
	// State is the last commanded output value.
	State bool `json:"state"`
}
