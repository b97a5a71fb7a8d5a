// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	DeletionCounter = "curator_index_deletions_total"
	ListedGauge     = "curator_indices_listed"
)

// Labels
const (
	OutcomeLabel = "outcome"
)

// Label Values
const (
	SuccessOutcome = "success"
	FailureOutcome = "failure"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: DeletionCounter,
				Help: "Counter for the number of aged index deletions (and their success/failure outcomes).",
			},
			OutcomeLabel,
		),
		touchstone.Gauge(
			prometheus.GaugeOpts{
				Name: ListedGauge,
				Help: "Number of indices found on the domain during the last curation.",
			},
		),
	)
}

type Measures struct {
	fx.In
	Deletions *prometheus.CounterVec `name:"curator_index_deletions_total"`
	Listed    prometheus.Gauge       `name:"curator_indices_listed"`
}
