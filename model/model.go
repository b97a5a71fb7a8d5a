// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// Namespace is the CloudWatch namespace a metric sample was collected from.
type Namespace string

// Supported namespaces.
const (
	// DatabaseNamespace holds RDS database instance metrics.
	DatabaseNamespace Namespace = "AWS/RDS"

	// BlockStorageNamespace holds EBS volume metrics.
	BlockStorageNamespace Namespace = "AWS/EBS"

	// ComputeNamespace holds EC2 instance metrics.
	ComputeNamespace Namespace = "AWS/EC2"
)

// ResourceField returns the document field name used to identify the
// resource a sample belongs to. The empty string is returned for
// namespaces that are not supported.
func (n Namespace) ResourceField() string {
	switch n {
	case DatabaseNamespace:
		return "database_id"
	case BlockStorageNamespace:
		return "volume_id"
	case ComputeNamespace:
		return "instance"
	}
	return ""
}

// Supported returns true if samples of this namespace can be collected and indexed.
func (n Namespace) Supported() bool {
	return n.ResourceField() != ""
}

// MetricSample is a single statistic value for one metric of one resource.
type MetricSample struct {
	// ResourceID is the identifier of the database, volume or instance.
	ResourceID string

	// Namespace is where the metric came from.
	Namespace Namespace

	// MetricName is the CloudWatch metric name (i.e. CPUUtilization).
	MetricName string

	// Value is the requested statistic of the most recent datapoint.
	Value float64

	// Unit is the CloudWatch unit reported with the datapoint.
	Unit string

	// Timestamp is the time the sample was collected. It selects the daily
	// index the sample is written to.
	Timestamp time.Time

	// Attributes describe the resource, i.e. the account and availability
	// zone of an instance. They are indexed alongside the value.
	Attributes map[string]string
}

// TagFilter selects resources by tag.
type TagFilter struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// DeploymentEvent is posted by build pipelines through the ingestion API
// whenever an application is deployed to an environment.
type DeploymentEvent struct {
	Timestamp   string `json:"timestamp"`
	Application string `json:"Application"`
	Environment string `json:"Environment"`

	// Endpoint is injected by the ingestion API mapping template.
	Endpoint string `json:"endpoint"`
}

// ScheduleInput is the payload delivered to a scheduled function. Only the
// well known keys are listed; templates may carry any other keys.
type ScheduleInput struct {
	Endpoint   string              `json:"endpoint,omitempty"`
	Region     string              `json:"region,omitempty"`
	DomainName string              `json:"domainname,omitempty"`
	Metrics    map[string][]string `json:"metrics,omitempty"`

	// Measurement is the CloudWatch statistic to request, i.e. Average.
	Measurement string `json:"measurement,omitempty"`

	// IndexPrefix overrides the default index prefix.
	IndexPrefix string `json:"index_prefix,omitempty"`

	// Tag narrows the collected EC2 instances to those carrying the tag.
	Tag *TagFilter `json:"tag,omitempty"`

	// Instances narrows the collected EC2 instances to the listed ids.
	Instances []string `json:"instances,omitempty"`

	// AggregationMinutes is the statistics period. Four periods are looked
	// back over. Defaults to 5.
	AggregationMinutes int `json:"aggtime,omitempty"`
}

// Well known schedule input keys substituted at provisioning time.
const (
	EndpointKey   = "endpoint"
	RegionKey     = "region"
	DomainNameKey = "domainname"
)
