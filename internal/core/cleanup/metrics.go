// Copyright 2026 The Lowc Authors
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

package cleanup

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics holds the counters of all runs that do not set Options.Metrics.
// It can be written in the Prometheus text format with WritePrometheus.
var Metrics = metrics.NewSet()

const (
	runsTotal   = `lowc_cleanup_runs_total`
	roundsTotal = `lowc_cleanup_rounds_total`
	failedTotal = `lowc_cleanup_failures_total`
)

func editsTotal(kind string) string {
	return fmt.Sprintf(`lowc_cleanup_edits_total{kind=%q}`, kind)
}

func diagnosticsTotal(kind DiagKind) string {
	return fmt.Sprintf(`lowc_cleanup_diagnostics_total{kind=%q}`, kind)
}

func (d *driver) count(name string, n int) {
	d.metrics.GetOrCreateCounter(name).Add(n)
}
