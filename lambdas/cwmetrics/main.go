// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command cwmetrics is the scheduled function that indexes the latest
// CloudWatch statistics of the account's databases, volumes and instances.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/spf13/pflag"
	"github.com/xmidt-org/elk/app"
	"github.com/xmidt-org/elk/collector"
	"github.com/xmidt-org/elk/signer"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const applicationName = "cwmetrics"

func provideHandler(cfg aws.Config, search *signer.Client, measures collector.Measures, logger *zap.Logger) (*collector.Handler, error) {
	c, err := collector.New(collector.Config{
		Metrics:   cloudwatch.NewFromConfig(cfg),
		Databases: rds.NewFromConfig(cfg),
		Compute:   ec2.NewFromConfig(cfg),
		Logger:    logger,
	}, &measures)
	if err != nil {
		return nil, err
	}
	return &collector.Handler{
		Collector: c,
		Sender:    search,
		Measures:  &measures,
		Logger:    logger,
	}, nil
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
		handler *collector.Handler
		inv     app.Invocation
	)
	fxApp := fx.New(
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: logger} }),
		fx.Supply(logger, v),
		app.ProvideMetrics(),
		collector.ProvideMetrics(),
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
