// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package provision creates, updates and tears down a metrics project: the
// function role, the search domain, the scheduled functions, the optional
// deployment ingest API and the dashboards.
package provision

import (
	"context"
	"fmt"

	"emperror.dev/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	es "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/elk/waiter"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// Outcome describes a provisioned project.
type Outcome struct {
	RoleARN   string
	Endpoint  string
	Functions map[string]string
	IngestURL string
}

// KibanaURL is where the project's dashboards are served.
func (o Outcome) KibanaURL() string {
	return fmt.Sprintf("https://%s/_plugin/kibana/", o.Endpoint)
}

type Provisioner struct {
	config   Config
	clients  Clients
	logger   *zap.Logger
	measures *Measures
}

// New creates a Provisioner.
func New(config Config, clients Clients, measures *Measures) (*Provisioner, error) {
	if measures == nil {
		return nil, ErrNilMeasures
	}
	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	if err := clients.validate(config.IngestUnit != ""); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = sallust.Default()
	}
	return &Provisioner{
		config:   config,
		clients:  clients,
		logger:   config.Logger.With(zap.String("project", config.Name)),
		measures: measures,
	}, nil
}

// Create provisions the whole project. Steps run in order and the first
// failure stops the run; nothing is rolled back. A domain that already
// exists is reused rather than created again.
func (p *Provisioner) Create(ctx context.Context) (Outcome, error) {
	var out Outcome
	if p.config.CIDR == "" {
		return out, ErrCIDRRequired
	}

	account, err := p.account(ctx)
	if err != nil {
		return out, err
	}

	if out.RoleARN, err = p.ensureRole(ctx); err != nil {
		return out, err
	}
	if out.Endpoint, err = p.ensureDomain(ctx, account, out.RoleARN); err != nil {
		return out, err
	}
	if out.Functions, err = p.createFunctions(ctx, out.Endpoint, out.RoleARN); err != nil {
		return out, err
	}
	if p.config.IngestUnit != "" {
		if out.IngestURL, err = p.createIngestAPI(ctx, out.Endpoint, out.Functions[p.config.IngestUnit]); err != nil {
			return out, err
		}
	}
	if err := p.configureDashboards(ctx, out.Endpoint); err != nil {
		p.logger.Warn("dashboards are only partially configured", zap.Error(err))
	}

	p.logger.Info("project has been fully created", zap.String("kibana", out.KibanaURL()))
	return out, nil
}

// Update replaces the code of every function and re-applies the schedules
// against the existing domain.
func (p *Provisioner) Update(ctx context.Context) error {
	status, err := p.describeDomain(ctx)
	if err != nil {
		return err
	}
	endpoint := domainEndpoint(status)
	if endpoint == "" {
		return fmt.Errorf("%w: domain %s has no endpoint", ErrNotFound, p.config.Name)
	}
	if err := p.updateFunctions(ctx, endpoint); err != nil {
		return err
	}
	p.logger.Info("project has been updated")
	return nil
}

// Delete tears the project down. Every resource is attempted; resources
// that do not exist count as deleted. The other failures are combined into
// the returned error.
func (p *Provisioner) Delete(ctx context.Context) error {
	t := &teardown{logger: p.logger, measures: p.measures}

	p.deleteFunctions(ctx, t)
	p.deleteIdentity(ctx, t)
	if p.clients.Gateway != nil {
		p.deleteIngestAPI(ctx, t)
	}

	_, err := p.clients.Domains.DeleteElasticsearchDomain(ctx, &es.DeleteElasticsearchDomainInput{
		DomainName: aws.String(p.config.Name),
	})
	t.record("domain", p.config.Name, err)

	if err := t.err(); err != nil {
		p.logger.Warn("project was only partially deleted", zap.Error(err))
		return err
	}
	p.logger.Info("all project resources have been deleted")
	return nil
}

func (p *Provisioner) account(ctx context.Context) (string, error) {
	out, err := p.clients.Account.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.Account), nil
}

// newWaiter narrates and counts every poll and attempt of step.
func (p *Provisioner) newWaiter(step string, logger *zap.Logger) waiter.Waiter {
	return waiter.Waiter{
		Sleep: p.config.Sleep,
		Observe: func(state waiter.State, attempt int, status waiter.Status, err error) {
			p.measures.Polls.With(prometheus.Labels{StepLabel: step, StateLabel: state.String()}).Inc()
			fields := []zap.Field{zap.String("step", step), zap.Stringer("state", state), zap.Int("attempt", attempt)}
			if status.Detail != "" {
				fields = append(fields, zap.String("detail", status.Detail))
			}
			switch state {
			case waiter.Pending:
				if err != nil {
					p.measures.Retries.With(prometheus.Labels{StepLabel: step}).Inc()
					fields = append(fields, zap.Error(err))
				}
				logger.Info("waiting", fields...)
			case waiter.Failed:
				if isAlreadyExists(err) {
					logger.Info("already exists", fields...)
					return
				}
				logger.Error("gave up waiting", append(fields, zap.Error(err))...)
			default:
				logger.Debug("done waiting", fields...)
			}
		},
	}
}

// teardown records the outcome of each best effort deletion.
type teardown struct {
	logger   *zap.Logger
	measures *Measures
	errs     []error
}

func (t *teardown) record(resource, name string, err error) {
	logger := t.logger.With(zap.String("resource", resource), zap.String("name", name))
	outcome := SuccessOutcome
	switch {
	case err == nil:
		logger.Info("deleted")
	case IsNotFound(err):
		outcome = AbsentOutcome
		logger.Info("did not exist, going ahead with other deletions")
	default:
		outcome = FailureOutcome
		logger.Warn("failed deleting", zap.Error(err))
		t.errs = append(t.errs, errors.WithDetails(err, "resource", resource, "name", name))
	}
	t.measures.Deletions.With(prometheus.Labels{ResourceLabel: resource, OutcomeLabel: outcome}).Inc()
}

func (t *teardown) err() error {
	return errors.Combine(t.errs...)
}
