// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/xmidt-org/elk/app"
	"github.com/xmidt-org/elk/provision"
	"go.uber.org/fx"
)

// provideMetrics builds the application metrics and makes them available to the container
func provideMetrics() fx.Option {
	return fx.Options(
		app.ProvideMetrics(),
		provision.ProvideMetrics(),
	)
}
