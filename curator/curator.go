// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package curator deletes date partitioned indices that have aged past the
// retention window of a search domain.
package curator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	multierr "emperror.dev/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	es "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	estypes "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

const (
	// DefaultRetentionDays is how long an index is kept when Config does
	// not say otherwise.
	DefaultRetentionDays = 30

	listPath = "/_cat/indices?v"
)

var (
	ErrNotFound       = errors.New("search domain not found")
	ErrNoEndpoint     = errors.New("search domain has no endpoint yet")
	ErrNilMeasures    = errors.New("measures cannot be nil")
	ErrMissingClient  = errors.New("domain client and sender are required")
	ErrDomainRequired = errors.New("domain name is required")
)

var (
	errListingIndices = errors.New("failed listing indices")
	errDeletingIndex  = errors.New("failed deleting index")
)

// DomainAPI captures the search service methods of interest.
type DomainAPI interface {
	DescribeElasticsearchDomain(context.Context, *es.DescribeElasticsearchDomainInput, ...func(*es.Options)) (*es.DescribeElasticsearchDomainOutput, error)
}

// Sender sends a signed request to a domain endpoint.
type Sender interface {
	Do(ctx context.Context, host, method, path string, body []byte) ([]byte, error)
}

type Config struct {
	Domains DomainAPI
	Sender  Sender

	// RetentionDays is the age in whole days an index may reach before
	// it is deleted.
	// (Optional). Defaults to 30.
	RetentionDays int

	// (Optional). By default a no op logger will be used.
	Logger *zap.Logger

	// (Optional). Defaults to time.Now.
	Now func() time.Time
}

type Curator struct {
	domains   DomainAPI
	sender    Sender
	retention int
	logger    *zap.Logger
	now       func() time.Time
	measures  *Measures
}

// New creates a Curator.
func New(config Config, measures *Measures) (*Curator, error) {
	if config.Domains == nil || config.Sender == nil {
		return nil, ErrMissingClient
	}
	if measures == nil {
		return nil, ErrNilMeasures
	}
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultRetentionDays
	}
	if config.Logger == nil {
		config.Logger = sallust.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Curator{
		domains:   config.Domains,
		sender:    config.Sender,
		retention: config.RetentionDays,
		logger:    config.Logger,
		now:       config.Now,
		measures:  measures,
	}, nil
}

// Curate removes the aged indices of domain and returns the names it
// deleted. A failed deletion does not stop the others; all failures are
// combined into the returned error.
func (c *Curator) Curate(ctx context.Context, domain string) ([]string, error) {
	if domain == "" {
		return nil, ErrDomainRequired
	}
	logger := sallust.GetDefault(ctx, c.logger).With(zap.String("domain", domain))

	endpoint, err := c.endpoint(ctx, domain)
	if err != nil {
		return nil, err
	}

	table, err := c.sender.Do(ctx, endpoint, http.MethodGet, listPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errListingIndices, err)
	}
	names := ParseIndices(string(table))
	c.measures.Listed.Set(float64(len(names)))

	now := c.now()
	logger.Info("found indices", zap.String("today", now.UTC().Format("2006-01-02")), zap.Strings("indices", names))

	var (
		deleted []string
		errs    []error
	)
	for _, idx := range Expired(names, now, c.retention) {
		if _, err := c.sender.Do(ctx, endpoint, http.MethodDelete, "/"+idx.Name, nil); err != nil {
			c.measures.Deletions.With(prometheus.Labels{OutcomeLabel: FailureOutcome}).Inc()
			logger.Warn("failed deleting aged index", zap.String("index", idx.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%w %s: %w", errDeletingIndex, idx.Name, err))
			continue
		}
		c.measures.Deletions.With(prometheus.Labels{OutcomeLabel: SuccessOutcome}).Inc()
		deleted = append(deleted, idx.Name)
	}

	if len(deleted) > 0 {
		logger.Info("deleted aged indices", zap.Strings("indices", deleted))
	}
	return deleted, multierr.Combine(errs...)
}

func (c *Curator) endpoint(ctx context.Context, domain string) (string, error) {
	out, err := c.domains.DescribeElasticsearchDomain(ctx, &es.DescribeElasticsearchDomainInput{
		DomainName: aws.String(domain),
	})
	var rnf *estypes.ResourceNotFoundException
	switch {
	case errors.As(err, &rnf):
		return "", fmt.Errorf("%w: %s", ErrNotFound, domain)
	case err != nil:
		return "", err
	case out == nil || out.DomainStatus == nil:
		return "", fmt.Errorf("%w: %s", ErrNotFound, domain)
	}

	if ep := aws.ToString(out.DomainStatus.Endpoint); ep != "" {
		return ep, nil
	}
	if ep, ok := out.DomainStatus.Endpoints["vpc"]; ok && ep != "" {
		return ep, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoEndpoint, domain)
}
