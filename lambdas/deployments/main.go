// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command deployments is the function behind the ingestion API. It indexes
// each posted deployment event.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/pflag"
	"github.com/xmidt-org/elk/app"
	"github.com/xmidt-org/elk/ingest"
	"github.com/xmidt-org/elk/signer"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const applicationName = "deployments"

func provideHandler(search *signer.Client, measures ingest.Measures, logger *zap.Logger) (*ingest.Handler, error) {
	return ingest.New(search, &measures, logger, nil)
}

func main() {
	v, logger, err := app.Setup(applicationName, pflag.NewFlagSet(applicationName, pflag.ContinueOnError), os.Args[1:])
	switch {
	case errors.Is(err, app.ErrVersionRequested):
		app.PrintVersionInfo(os.Stdout, applicationName)
		return
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var (
		handler *ingest.Handler
		inv     app.Invocation
	)
	fxApp := fx.New(
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: logger} }),
		fx.Supply(logger, v),
		app.ProvideMetrics(),
		ingest.ProvideMetrics(),
		fx.Provide(
			app.ProvideAWS,
			app.ProvideSearch,
			app.ProvidePush(applicationName),
			provideHandler,
		),
		fx.Populate(&handler),
		fx.Invoke(func(in app.Invocation) { inv = in }),
	)
	if err := fxApp.Err(); err != nil {
		logger.Error("failed building the function", zap.Error(err))
		os.Exit(2)
	}

	lambda.Start(app.Wrap(inv, handler.Handle))
}
