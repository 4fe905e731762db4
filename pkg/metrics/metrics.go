// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package metrics exposes exit-intent controller events as Prometheus
// metrics.
package metrics

import (
	"github.com/AccelByte/extend-exit-intent/pkg/exitintent"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "exit_intent"

// Recorder is an exitintent.Observer backed by Prometheus counters.
type Recorder struct {
	triggers    *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

var _ exitintent.Observer = (*Recorder)(nil)

// NewRecorder creates the counters and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		triggers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_total",
				Help:      "Total number of times the exit-intent offer was shown, by trigger source",
			},
			[]string{"source"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total number of session store failures, by operation",
			},
			[]string{"op"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "state_transitions_total",
				Help:      "Total number of controller state transitions",
			},
			[]string{"from", "to"},
		),
	}

	for _, c := range []prometheus.Collector{r.triggers, r.storeErrors, r.transitions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// OnTrigger implements exitintent.Observer.
func (r *Recorder) OnTrigger(source string) {
	r.triggers.WithLabelValues(source).Inc()
}

// OnStoreError implements exitintent.Observer.
func (r *Recorder) OnStoreError(op string, _ error) {
	r.storeErrors.WithLabelValues(op).Inc()
}

// OnStateChange implements exitintent.Observer.
func (r *Recorder) OnStateChange(from, to exitintent.State) {
	r.transitions.WithLabelValues(from.String(), to.String()).Inc()
}
