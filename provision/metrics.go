// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	PollCounter      = "provision_polls_total"
	RetryCounter     = "provision_retries_total"
	FunctionCounter  = "provision_functions_total"
	DeletionCounter  = "provision_deletions_total"
	DashboardCounter = "provision_dashboard_requests_total"
)

// Labels
const (
	StepLabel     = "step"
	StateLabel    = "state"
	OutcomeLabel  = "outcome"
	ResourceLabel = "resource"
)

// Label Values
const (
	SuccessOutcome = "success"
	FailureOutcome = "failure"
	AbsentOutcome  = "absent"

	CreatedOutcome = "created"
	UpdatedOutcome = "updated"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: PollCounter,
				Help: "Counter for the number of resource polls, by step and observed state.",
			},
			StepLabel, StateLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: RetryCounter,
				Help: "Counter for the number of failed attempts that were retried.",
			},
			StepLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: FunctionCounter,
				Help: "Counter for the number of functions provisioned (created or updated).",
			},
			OutcomeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: DeletionCounter,
				Help: "Counter for the number of resource deletions, by resource and outcome.",
			},
			ResourceLabel, OutcomeLabel,
		),
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: DashboardCounter,
				Help: "Counter for the number of dashboard configuration requests (and their success/failure outcomes).",
			},
			OutcomeLabel,
		),
	)
}

type Measures struct {
	fx.In
	Polls      *prometheus.CounterVec `name:"provision_polls_total"`
	Retries    *prometheus.CounterVec `name:"provision_retries_total"`
	Functions  *prometheus.CounterVec `name:"provision_functions_total"`
	Deletions  *prometheus.CounterVec `name:"provision_deletions_total"`
	Dashboards *prometheus.CounterVec `name:"provision_dashboard_requests_total"`
}
