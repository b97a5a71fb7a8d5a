// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"

	"emperror.dev/emperror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/sallust"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// HandlerFunc is the shape of a function entry point.
type HandlerFunc[In, Out any] func(context.Context, In) (Out, error)

// Invocation is what every function invocation shares.
type Invocation struct {
	fx.In
	Logger   *zap.Logger
	Push     PushConfig
	Gatherer prometheus.Gatherer
}

// Wrap decorates fn so that the invocation carries the logger, a panic is
// turned into an error and the metrics are pushed once it returns.
func Wrap[In, Out any](inv Invocation, fn HandlerFunc[In, Out]) HandlerFunc[In, Out] {
	return func(ctx context.Context, in In) (out Out, err error) {
		logger := inv.Logger
		if logger == nil {
			logger = sallust.Default()
		}
		defer func() {
			if r := recover(); r != nil {
				err = emperror.Recover(r)
				logger.Error("invocation panicked", zap.Error(err))
			}
			if inv.Gatherer == nil {
				return
			}
			if perr := Push(ctx, inv.Push, inv.Gatherer); perr != nil {
				logger.Warn("failed pushing metrics", zap.Error(perr))
			}
		}()
		return fn(sallust.With(ctx, logger), in)
	}
}
