// Copyright (C) 2025 Devloop Labs (oss@devloop.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	iterationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "devloop",
		Name:      "iterations_total",
		Help:      "Total repair-loop iterations executed.",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devloop",
		Name:      "runs_total",
		Help:      "Completed runs by outcome.",
	}, []string{"outcome"})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "devloop",
		Name:      "test_actions_total",
		Help:      "Executed test actions by result.",
	}, []string{"result"})

	iterationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "devloop",
		Name:      "iteration_duration_seconds",
		Help:      "Wall-clock duration of one repair-loop iteration.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)
