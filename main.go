// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Command elk provisions, updates and tears down a metrics project: a
// search domain fed by scheduled CloudWatch collection functions, with
// curated indices and dashboards.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/elk/app"
	"github.com/xmidt-org/elk/artifact"
	"github.com/xmidt-org/elk/provision"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const applicationName = "elk"

// runner is what each action drives.
type runner interface {
	Create(context.Context) (provision.Outcome, error)
	Update(context.Context) error
	Delete(context.Context) error
}

func run(ctx context.Context, cmd command, r runner, in io.Reader, out io.Writer, logger *zap.Logger) error {
	switch cmd.Action {
	case createAction:
		outcome, err := r.Create(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "search domain: https://%s\n", outcome.Endpoint)
		fmt.Fprintf(out, "dashboards:    %s\n", outcome.KibanaURL())
		if outcome.IngestURL != "" {
			fmt.Fprintf(out, "ingest api:    %s\n", outcome.IngestURL)
		}
		return nil
	case updateAction:
		return r.Update(ctx)
	case deleteAction:
		if !cmd.Yes {
			ok, err := confirm(in, out, cmd.Name)
			if err != nil {
				return err
			}
			if !ok {
				logger.Info("deletion was declined, nothing was changed")
				return errDeclined
			}
		}
		return r.Delete(ctx)
	}
	return fmt.Errorf("unknown action %q", cmd.Action)
}

func main() {
	fs := pflag.NewFlagSet(applicationName, pflag.ContinueOnError)
	setupFlagSet(fs)
	v, logger, err := app.Setup(applicationName, fs, os.Args[1:])
	switch {
	case errors.Is(err, app.ErrVersionRequested):
		app.PrintVersionInfo(os.Stdout, applicationName)
		return
	case errors.Is(err, pflag.ErrHelp):
		return
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd, err := newCommand(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.PrintDefaults()
		os.Exit(1)
	}

	var (
		p        *provision.Provisioner
		push     app.PushConfig
		gatherer prometheus.Gatherer
	)
	fxApp := fx.New(
		fx.WithLogger(func() fxevent.Logger { return &fxevent.ZapLogger{Logger: logger} }),
		arrange.ForViper(v),
		fx.Supply(logger, v),
		provideMetrics(),
		fx.Provide(
			app.ProvideAWS,
			app.ProvideSearch,
			app.ProvidePush(applicationName),
			arrange.UnmarshalKey("artifacts", &artifact.Config{}),
			provideProject,
			provideArtifacts,
			provideClients,
			provideProvisioner,
		),
		fx.Populate(&p, &push, &gatherer),
	)
	if err := fxApp.Err(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cmd, p, os.Stdin, os.Stdout, logger.With(zap.String("action", cmd.Action)))
	if perr := app.Push(context.Background(), push, gatherer); perr != nil {
		logger.Warn("failed pushing metrics", zap.Error(perr))
	}
	stop()

	if err != nil {
		logger.Error("run failed", zap.String("action", cmd.Action), zap.Error(err))
		os.Exit(1)
	}
	logger.Info("run succeeded", zap.String("action", cmd.Action))
}
