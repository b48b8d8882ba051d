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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CovenantSQL/vectortime/utils/log"
)

// NewRegistry registers c on a fresh prometheus.Registry and returns it,
// ready to be Gather-ed or served over HTTP.
func NewRegistry(c *Collector) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c); err != nil {
		log.WithError(err).Error("metric: couldn't register collector")
		return registry
	}
	return registry
}

// ServeHTTP starts an HTTP server on addr exposing registry at /metrics and
// a rolling runtime view at /debug/metrics. It blocks; cmd/vtd runs it in
// its own goroutine.
func ServeHTTP(addr string, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	ServeDebugWeb(mux)
	return http.ListenAndServe(addr, mux)
}
