// Copyright 2025 EURECOM
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
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package monitoring

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Counter and gauge names accepted by the sink.
const (
	SgsapAlertReject   = "sgsap_alert_reject"
	SgsapAlertAck      = "sgsap_alert_ack"
	SgsapDecodeFailure = "sgsap_decode_failure"
	EsmDecodeFailure   = "esm_decode_failure"
	EsmStatusSent      = "esm_status_sent"
	SgsTimerExpiry     = "sgs_timer_expiry"
	DispatchFailure    = "itti_dispatch_failure"

	SgsContexts = "sgs_contexts"
	UeContexts  = "ue_contexts"
)

// Sink is the observability collaborator handed to the tasks. Calls never
// fail the caller.
type Sink interface {
	Increment(name string, tags ...string)
	Set(name string, value float64)
}

type Metrics struct {
	registry    *prometheus.Registry
	constLabels prometheus.Labels
	counters    map[string]*prometheus.CounterVec
	gauges      map[string]prometheus.Gauge
	log         zerolog.Logger
}

func NewMetrics(instanceId string, logger zerolog.Logger) *Metrics {
	m := &Metrics{
		registry:    prometheus.NewRegistry(),
		constLabels: prometheus.Labels{"mmeInstance": instanceId},
		counters:    make(map[string]*prometheus.CounterVec),
		gauges:      make(map[string]prometheus.Gauge),
		log:         logger.With().Str("component", "metrics").Logger(),
	}

	m.addCounter(SgsapAlertReject, "SGsAP ALERT-REJECT messages sent by cause", "cause")
	m.addCounter(SgsapAlertAck, "SGsAP ALERT-ACK messages sent")
	m.addCounter(SgsapDecodeFailure, "Inbound SGsAP PDUs dropped on decode failure")
	m.addCounter(EsmDecodeFailure, "Uplink ESM messages dropped on decode failure")
	m.addCounter(EsmStatusSent, "ESM STATUS messages sent by cause", "cause")
	m.addCounter(SgsTimerExpiry, "SGs timer expiries by timer", "timer")
	m.addCounter(DispatchFailure, "Messages that could not be enqueued by destination task", "task")

	for name, help := range map[string]string{
		SgsContexts: "Number of live SGS contexts",
		UeContexts:  "Number of UE contexts in the directory",
	} {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help, ConstLabels: m.constLabels})
		m.registry.MustRegister(g)
		m.gauges[name] = g
	}
	for _, c := range m.counters {
		m.registry.MustRegister(c)
	}
	return m
}

func (m *Metrics) addCounter(name, help string, labels ...string) {
	m.counters[name] = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        name + "_total",
			Help:        help,
			ConstLabels: m.constLabels,
		},
		labels,
	)
}

// Increment adds one to the counter name. tags are label name/value pairs.
func (m *Metrics) Increment(name string, tags ...string) {
	c, ok := m.counters[name]
	if !ok {
		m.log.Warn().Str("counter", name).Msg("unknown counter")
		return
	}
	labels := prometheus.Labels{}
	for i := 0; i+1 < len(tags); i += 2 {
		labels[tags[i]] = tags[i+1]
	}
	counter, err := c.GetMetricWith(labels)
	if err != nil {
		m.log.Warn().Err(err).Str("counter", name).Msg("bad counter labels")
		return
	}
	counter.Inc()
}

func (m *Metrics) Set(name string, value float64) {
	g, ok := m.gauges[name]
	if !ok {
		m.log.Warn().Str("gauge", name).Msg("unknown gauge")
		return
	}
	g.Set(value)
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StartMetricsServer serves /metrics on port until the returned server is closed.
func (m *Metrics) StartMetricsServer(port uint16) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	m.log.Info().Uint16("port", port).Msg("starting prometheus metrics server")
	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			m.log.Fatal().Err(err).Msg("could not start metrics server")
		}
	}()
	return server
}

// Nop discards every observation.
type Nop struct{}

func (Nop) Increment(string, ...string) {}
func (Nop) Set(string, float64)         {}
