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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMustRegisterCounterVec(t *testing.T) {
	c := MustRegisterCounterVec("test", "things_total", "Number of things", "kind")
	c.WithLabelValues("a").Inc()
	c.WithLabelValues("a").Inc()
	c.WithLabelValues("b").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.WithLabelValues("b")))
}

func TestMustRegisterGauge(t *testing.T) {
	g := MustRegisterGauge("test", "level", "Current level")
	g.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(g))
}

func TestMustRegister_DuplicatePanics(t *testing.T) {
	MustRegisterCounter("test", "dup_total", "Duplicate")
	assert.Panics(t, func() {
		MustRegisterCounter("test", "dup_total", "Duplicate")
	})
}
