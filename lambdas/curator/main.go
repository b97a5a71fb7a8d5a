// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command curator is the scheduled function that deletes the dated indices
// of a search domain once they are older than the retention.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	es "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/elk/app"
	"github.com/xmidt-org/elk/curator"
	"github.com/xmidt-org/elk/signer"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const applicationName = "curator"

func provideHandler(v *viper.Viper, cfg aws.Config, search *signer.Client, measures curator.Measures, logger *zap.Logger) (*curator.Handler, error) {
	c, err := curator.New(curator.Config{
		Domains:       es.NewFromConfig(cfg),
		Sender:        search,
		RetentionDays: v.GetInt("curator.retentionDays"),
		Logger:        logger,
	}, &measures)
	if err != nil {
		return nil, err
	}
	return &curator.Handler{Curator: c}, nil
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
		handler *curator.Handler
		inv     app.Invocation
	)
	fxApp := fx.New(
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: logger} }),
		fx.Supply(logger, v),
		app.ProvideMetrics(),
		curator.ProvideMetrics(),
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
