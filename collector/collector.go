// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package collector pulls the most recent CloudWatch statistics of RDS
// instances, EBS volumes and EC2 instances.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/elk/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

var (
	ErrValidation      = errors.New("invalid collection request")
	ErrNilMeasures     = errors.New("measures cannot be nil")
	ErrMissingClient   = errors.New("cloudwatch, rds and ec2 clients are required")
	errListingResource = errors.New("failed listing resources")
	errStatistics      = errors.New("failed getting metric statistics")
)

const (
	// Lookback is how far back statistics are requested by default.
	Lookback = 20 * time.Minute

	// Period is the default granularity of the requested datapoints.
	Period = 5 * time.Minute
)

// MetricsAPI captures the CloudWatch methods of interest.
type MetricsAPI interface {
	GetMetricStatistics(context.Context, *cloudwatch.GetMetricStatisticsInput, ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// DatabaseAPI captures the RDS methods of interest.
type DatabaseAPI interface {
	DescribeDBInstances(context.Context, *rds.DescribeDBInstancesInput, ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// ComputeAPI captures the EC2 methods of interest.
type ComputeAPI interface {
	DescribeVolumes(context.Context, *ec2.DescribeVolumesInput, ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
	DescribeInstances(context.Context, *ec2.DescribeInstancesInput, ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// Config contains the clients used for collection.
type Config struct {
	Metrics   MetricsAPI
	Databases DatabaseAPI
	Compute   ComputeAPI

	// Logger to be used by the collector.
	// (Optional). By default a no op logger will be used.
	Logger *zap.Logger

	// Now returns the end of the lookback window.
	// (Optional). Defaults to time.Now.
	Now func() time.Time
}

// Collector queries CloudWatch for the resources it can enumerate.
type Collector struct {
	metrics  MetricsAPI
	sources  map[model.Namespace]source
	logger   *zap.Logger
	now      func() time.Time
	measures *Measures
}

// source enumerates the resources of one namespace and names the
// CloudWatch dimension identifying them.
type source struct {
	dimension string
	list      func(context.Context, request) ([]resource, error)
}

// resource is one enumerated database, volume or instance. Attributes are
// copied onto every sample of the resource.
type resource struct {
	id         string
	attributes map[string]string
}

// request holds the per collection options.
type request struct {
	tag       *model.TagFilter
	instances []string
	period    time.Duration
}

// Option tunes a single collection.
type Option func(*request)

// WithInstanceTag only collects EC2 instances carrying the tag with one of
// the values.
func WithInstanceTag(name string, values ...string) Option {
	return func(r *request) {
		if name != "" {
			r.tag = &model.TagFilter{Name: name, Values: values}
		}
	}
}

// WithInstances only collects the listed EC2 instances.
func WithInstances(ids ...string) Option {
	return func(r *request) {
		r.instances = append(r.instances, ids...)
	}
}

// WithPeriod sets the datapoint granularity. The lookback window is four
// periods. Non positive periods are ignored.
func WithPeriod(d time.Duration) Option {
	return func(r *request) {
		if d > 0 {
			r.period = d
		}
	}
}

// Guest metrics published by the CloudWatch monitoring scripts of an
// instance rather than by EC2 itself.
const (
	guestNamespace        = "System/Linux"
	memoryUtilization     = "MemoryUtilization"
	diskSpaceUtilization  = "DiskSpaceUtilization"
	rootFilesystem        = "/dev/xvda1"
	rootMountPath         = "/"
	instanceDimensionName = "InstanceId"
)

// Instance document attributes.
const (
	AccountAttribute      = "account"
	InstanceTypeAttribute = "instanceType"
	InstanceZoneAttribute = "instanceZone"
)

// New creates a Collector.
func New(config Config, measures *Measures) (*Collector, error) {
	if config.Metrics == nil || config.Databases == nil || config.Compute == nil {
		return nil, ErrMissingClient
	}
	if measures == nil {
		return nil, ErrNilMeasures
	}
	if config.Logger == nil {
		config.Logger = sallust.Default()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Collector{
		metrics: config.Metrics,
		sources: map[model.Namespace]source{
			model.DatabaseNamespace:     {dimension: "DBInstanceIdentifier", list: databases(config.Databases)},
			model.BlockStorageNamespace: {dimension: "VolumeId", list: volumes(config.Compute)},
			model.ComputeNamespace:      {dimension: instanceDimensionName, list: instances(config.Compute)},
		},
		logger:   config.Logger,
		now:      config.Now,
		measures: measures,
	}, nil
}

// Collect returns one sample per (resource, metric) pair that has at least
// one datapoint in the lookback window. Namespaces that cannot be enumerated
// are ignored. Every sample is stamped with the end of the window.
func (c *Collector) Collect(ctx context.Context, groups map[model.Namespace][]string, statistic string, opts ...Option) ([]model.MetricSample, error) {
	stat, err := parseStatistic(statistic)
	if err != nil {
		return nil, err
	}

	req := request{period: Period}
	for _, o := range opts {
		o(&req)
	}

	var (
		logger = sallust.GetDefault(ctx, c.logger)
		end    = c.now().UTC()
		start  = end.Add(-lookback(req.period))
	)

	var samples []model.MetricSample
	for namespace, metrics := range groups {
		src, ok := c.sources[namespace]
		if !ok {
			logger.Debug("ignoring unsupported namespace", zap.String("namespace", string(namespace)))
			continue
		}
		if len(metrics) == 0 {
			continue
		}

		resources, err := src.list(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errListingResource, namespace, err)
		}

		for _, r := range resources {
			for _, metric := range metrics {
				queried, dimensions := query(namespace, src.dimension, r.id, metric)
				out, err := c.metrics.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
					Namespace:  aws.String(queried),
					MetricName: aws.String(metric),
					StartTime:  aws.Time(start),
					EndTime:    aws.Time(end),
					Period:     aws.Int32(int32(req.period / time.Second)),
					Statistics: []cwtypes.Statistic{stat},
					Dimensions: dimensions,
				})
				if err != nil {
					return nil, fmt.Errorf("%w: %s %s %s: %w", errStatistics, namespace, r.id, metric, err)
				}

				dp, ok := latest(out.Datapoints, stat)
				if !ok {
					logger.Debug("no datapoints", zap.String("resource", r.id), zap.String("metric", metric))
					c.measures.Skipped.With(prometheus.Labels{NamespaceLabel: string(namespace)}).Inc()
					continue
				}
				samples = append(samples, model.MetricSample{
					ResourceID: r.id,
					Namespace:  namespace,
					MetricName: metric,
					Value:      dp.value,
					Unit:       dp.unit,
					Timestamp:  end,
					Attributes: r.attributes,
				})
				c.measures.Samples.With(prometheus.Labels{NamespaceLabel: string(namespace)}).Inc()
			}
		}
	}

	logger.Info("collected metric samples", zap.Int("count", len(samples)), zap.String("statistic", statistic))
	return samples, nil
}

func lookback(period time.Duration) time.Duration {
	return period * time.Duration(Lookback/Period)
}

// query returns the CloudWatch namespace and dimensions holding metric of
// the resource id. Guest metrics of instances live outside AWS/EC2.
func query(namespace model.Namespace, dimension, id, metric string) (string, []cwtypes.Dimension) {
	dimensions := []cwtypes.Dimension{{Name: aws.String(dimension), Value: aws.String(id)}}
	if namespace != model.ComputeNamespace {
		return string(namespace), dimensions
	}
	switch metric {
	case memoryUtilization:
		return guestNamespace, dimensions
	case diskSpaceUtilization:
		return guestNamespace, append(dimensions,
			cwtypes.Dimension{Name: aws.String("Filesystem"), Value: aws.String(rootFilesystem)},
			cwtypes.Dimension{Name: aws.String("MountPath"), Value: aws.String(rootMountPath)},
		)
	}
	return string(namespace), dimensions
}

type datapoint struct {
	value float64
	unit  string
}

// latest picks the most recent datapoint carrying the statistic. Datapoints
// without a timestamp are ordered by position.
func latest(points []cwtypes.Datapoint, stat cwtypes.Statistic) (datapoint, bool) {
	var (
		found bool
		best  datapoint
		when  time.Time
	)
	for _, p := range points {
		v := statisticValue(p, stat)
		if v == nil {
			continue
		}
		ts := aws.ToTime(p.Timestamp)
		if found && ts.Before(when) {
			continue
		}
		found = true
		when = ts
		best = datapoint{value: *v, unit: string(p.Unit)}
	}
	return best, found
}

func statisticValue(p cwtypes.Datapoint, stat cwtypes.Statistic) *float64 {
	switch stat {
	case cwtypes.StatisticAverage:
		return p.Average
	case cwtypes.StatisticSum:
		return p.Sum
	case cwtypes.StatisticMinimum:
		return p.Minimum
	case cwtypes.StatisticMaximum:
		return p.Maximum
	case cwtypes.StatisticSampleCount:
		return p.SampleCount
	}
	return nil
}

func parseStatistic(s string) (cwtypes.Statistic, error) {
	for _, v := range cwtypes.StatisticAverage.Values() {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown statistic %q", ErrValidation, s)
}

func databases(api DatabaseAPI) func(context.Context, request) ([]resource, error) {
	return func(ctx context.Context, _ request) ([]resource, error) {
		var found []resource
		p := rds.NewDescribeDBInstancesPaginator(api, &rds.DescribeDBInstancesInput{})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			for _, db := range page.DBInstances {
				if id := aws.ToString(db.DBInstanceIdentifier); id != "" {
					found = append(found, resource{id: id})
				}
			}
		}
		return found, nil
	}
}

func volumes(api ComputeAPI) func(context.Context, request) ([]resource, error) {
	return func(ctx context.Context, _ request) ([]resource, error) {
		var found []resource
		p := ec2.NewDescribeVolumesPaginator(api, &ec2.DescribeVolumesInput{})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			for _, v := range page.Volumes {
				if id := aws.ToString(v.VolumeId); id != "" {
					found = append(found, resource{id: id})
				}
			}
		}
		return found, nil
	}
}

// instances lists the running instances, narrowed by the request's tag and
// instance ids.
func instances(api ComputeAPI) func(context.Context, request) ([]resource, error) {
	return func(ctx context.Context, req request) ([]resource, error) {
		in := &ec2.DescribeInstancesInput{
			Filters: []ec2types.Filter{
				{Name: aws.String("instance-state-name"), Values: []string{"running"}},
			},
			InstanceIds: req.instances,
		}
		if req.tag != nil {
			in.Filters = append(in.Filters, ec2types.Filter{
				Name:   aws.String("tag:" + req.tag.Name),
				Values: req.tag.Values,
			})
		}

		var found []resource
		p := ec2.NewDescribeInstancesPaginator(api, in)
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			for _, r := range page.Reservations {
				for _, i := range r.Instances {
					if id := aws.ToString(i.InstanceId); id != "" {
						found = append(found, resource{id: id, attributes: instanceAttributes(i)})
					}
				}
			}
		}
		return found, nil
	}
}

func instanceAttributes(i ec2types.Instance) map[string]string {
	attrs := map[string]string{
		InstanceTypeAttribute: string(i.InstanceType),
	}
	if len(i.NetworkInterfaces) > 0 {
		attrs[AccountAttribute] = aws.ToString(i.NetworkInterfaces[0].OwnerId)
	}
	if i.Placement != nil {
		attrs[InstanceZoneAttribute] = aws.ToString(i.Placement.AvailabilityZone)
	}
	for k, v := range attrs {
		if v == "" {
			delete(attrs, k)
		}
	}
	return attrs
}
