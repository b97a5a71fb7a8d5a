// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/spf13/viper"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Namespace prefixes every metric name.
const Namespace = "elk"

// PushConfig describes where the metrics of a run are pushed. Runs are
// short lived so nothing is scraped.
type PushConfig struct {
	// Pushgateway is the base URL of a Prometheus pushgateway.
	// (Optional). Nothing is pushed when empty.
	Pushgateway string `mapstructure:"pushgateway"`

	// Job groups the pushed metrics.
	// (Optional). Defaults to the application name.
	Job string `mapstructure:"job"`
}

// ProvideMetrics bootstraps the registry and the metric factory the
// packages declare their measures with.
func ProvideMetrics() fx.Option {
	return fx.Options(
		fx.Supply(touchstone.Config{DefaultNamespace: Namespace}),
		touchstone.Provide(),
	)
}

// ProvidePush returns a constructor reading the push configuration of the
// named application from the prometheus key.
func ProvidePush(name string) func(*viper.Viper) (PushConfig, error) {
	return func(v *viper.Viper) (PushConfig, error) {
		var c PushConfig
		if err := v.UnmarshalKey("prometheus", &c); err != nil {
			return c, err
		}
		if c.Job == "" {
			c.Job = name
		}
		return c, nil
	}
}

// Push sends everything gathered to the pushgateway, replacing the
// job's previous metrics.
func Push(ctx context.Context, c PushConfig, g prometheus.Gatherer) error {
	if c.Pushgateway == "" {
		return nil
	}
	return push.New(c.Pushgateway, c.Job).Gatherer(g).PushContext(ctx)
}
