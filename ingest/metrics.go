// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	EventCounter = "ingest_deployment_events_total"
)

// Labels
const (
	OutcomeLabel = "outcome"
)

// Label Values
const (
	SuccessOutcome  = "success"
	FailureOutcome  = "failure"
	RejectedOutcome = "rejected"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: EventCounter,
				Help: "Counter for the number of deployment events received (and their indexing outcomes).",
			},
			OutcomeLabel,
		),
	)
}

type Measures struct {
	fx.In
	Events *prometheus.CounterVec `name:"ingest_deployment_events_total"`
}
