/*
 * Copyright 2018 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metric

import (
	"expvar"
	"net/http"
	"runtime"
	"time"

	mw "github.com/zserge/metric"
)

// ServeDebugWeb registers rolling goroutine/heap gauges under
// /debug/metrics on mux, refreshed every 5 seconds. It complements the
// prometheus scrape endpoint with a human-browsable live view, the way an
// operator watches one replica during a migration without standing up a
// full Prometheus scrape config.
func ServeDebugWeb(mux *http.ServeMux) {
	expvar.Publish("go:numgoroutine", mw.NewGauge("1m1s", "5m5s", "1h1m"))
	expvar.Publish("go:allocmb", mw.NewGauge("1m1s", "5m5s", "1h1m"))

	go func() {
		for range time.Tick(5 * time.Second) {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			expvar.Get("go:numgoroutine").(mw.Metric).Add(float64(runtime.NumGoroutine()))
			expvar.Get("go:allocmb").(mw.Metric).Add(float64(m.Alloc) / (1 << 20))
		}
	}()

	mux.Handle("/debug/metrics", mw.Handler(mw.Exposed))
}
