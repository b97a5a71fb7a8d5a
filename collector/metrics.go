// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	SamplesCounter  = "collector_samples_total"
	SkippedCounter  = "collector_skipped_total"
	BulkPostCounter = "collector_bulk_posts_total"
)

// Labels
const (
	NamespaceLabel = "namespace"
	OutcomeLabel   = "outcome"
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
				Name: SamplesCounter,
				Help: "Counter for the number of metric samples collected per namespace.",
			},
			NamespaceLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: SkippedCounter,
				Help: "Counter for the number of (resource, metric) pairs without datapoints.",
			},
			NamespaceLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: BulkPostCounter,
				Help: "Counter for the number of bulk posts (and their success/failure outcomes).",
			},
			OutcomeLabel,
		),
	)
}

type Measures struct {
	fx.In
	Samples   *prometheus.CounterVec `name:"collector_samples_total"`
	Skipped   *prometheus.CounterVec `name:"collector_skipped_total"`
	BulkPosts *prometheus.CounterVec `name:"collector_bulk_posts_total"`
}
