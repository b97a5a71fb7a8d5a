// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"fmt"

	"emperror.dev/errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	es "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	estypes "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice/types"
	"github.com/xmidt-org/elk/waiter"
	"go.uber.org/zap"
)

const (
	domainStep       = "domain"
	accessPolicyStep = "access_policy"
)

// describeDomain returns the domain status, or an error matching
// ErrNotFound when the domain does not exist.
func (p *Provisioner) describeDomain(ctx context.Context) (*estypes.ElasticsearchDomainStatus, error) {
	out, err := p.clients.Domains.DescribeElasticsearchDomain(ctx, &es.DescribeElasticsearchDomainInput{
		DomainName: aws.String(p.config.Name),
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: domain %s: %w", ErrNotFound, p.config.Name, err)
		}
		return nil, err
	}
	if out == nil || out.DomainStatus == nil {
		return nil, fmt.Errorf("%w: domain %s", ErrNotFound, p.config.Name)
	}
	return out.DomainStatus, nil
}

// ensureDomain creates the domain unless it already exists, then waits for
// it to be ready and returns its endpoint.
func (p *Provisioner) ensureDomain(ctx context.Context, account, roleARN string) (string, error) {
	logger := p.logger.With(zap.String("domain", p.config.Name))

	status, err := p.describeDomain(ctx)
	switch {
	case err == nil && aws.ToBool(status.Deleted):
		return "", fmt.Errorf(errWrappedFmt, ErrDomainDeleting, p.config.Name)
	case err == nil:
		logger.Info("search domain already exists, skipping creation")
	case errors.Is(err, ErrNotFound):
		if err := p.createDomain(ctx, account, roleARN); err != nil {
			return "", err
		}
	default:
		return "", err
	}

	var endpoint string
	_, err = p.newWaiter(domainStep, logger).Poll(ctx, p.config.DomainPoll, func(ctx context.Context) (waiter.Status, error) {
		status, err := p.describeDomain(ctx)
		if err != nil {
			return waiter.Status{}, err
		}
		endpoint = domainEndpoint(status)
		if aws.ToBool(status.Processing) || endpoint == "" {
			return waiter.Status{Detail: "domain is still processing"}, nil
		}
		return waiter.Status{Done: true, Detail: "domain is ready"}, nil
	})
	if err != nil {
		logger.Error("search domain did not become ready; check the Elasticsearch Service console and delete the domain before trying again",
			zap.Error(err))
		return "", err
	}

	logger.Info("search domain is ready", zap.String("endpoint", endpoint))
	return endpoint, nil
}

func (p *Provisioner) createDomain(ctx context.Context, account, roleARN string) error {
	logger := p.logger.With(zap.String("domain", p.config.Name))
	d := p.config.Domain

	logger.Info("creating search domain", zap.String("version", d.Version), zap.String("instanceType", d.InstanceType))
	_, err := p.clients.Domains.CreateElasticsearchDomain(ctx, &es.CreateElasticsearchDomainInput{
		DomainName:           aws.String(p.config.Name),
		ElasticsearchVersion: aws.String(d.Version),
		ElasticsearchClusterConfig: &estypes.ElasticsearchClusterConfig{
			InstanceType:           estypes.ESPartitionInstanceType(d.InstanceType),
			InstanceCount:          aws.Int32(d.InstanceCount),
			DedicatedMasterEnabled: aws.Bool(false),
			ZoneAwarenessEnabled:   aws.Bool(false),
		},
		EBSOptions: &estypes.EBSOptions{
			EBSEnabled: aws.Bool(true),
			VolumeType: estypes.VolumeType(d.VolumeType),
			VolumeSize: aws.Int32(d.VolumeSize),
		},
	})
	if err != nil {
		logger.Error("could not create search domain", zap.Error(err))
		return errors.WithDetails(err, "domain", p.config.Name)
	}

	policy, err := AccessPolicy(DomainResource(p.config.Region, account, p.config.Name), roleARN, p.config.CIDR)
	if err != nil {
		return err
	}
	err = p.newWaiter(accessPolicyStep, logger).Retry(ctx, p.config.AccessPolicyRetry, func(ctx context.Context, attempt int) error {
		logger.Info("applying access policy to search domain", zap.Int("attempt", attempt))
		_, err := p.clients.Domains.UpdateElasticsearchDomainConfig(ctx, &es.UpdateElasticsearchDomainConfigInput{
			DomainName:     aws.String(p.config.Name),
			AccessPolicies: aws.String(policy),
		})
		return err
	})
	if err != nil {
		logger.Error(fmt.Sprintf("failed to apply access policies; run again with `-a delete -n %s` and wait approx 20 minutes before trying again", p.config.Name),
			zap.Error(err))
		return err
	}
	return nil
}

func domainEndpoint(status *estypes.ElasticsearchDomainStatus) string {
	if ep := aws.ToString(status.Endpoint); ep != "" {
		return ep
	}
	return status.Endpoints["vpc"]
}
