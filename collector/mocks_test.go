// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) GetMetricStatistics(ctx context.Context, in *cloudwatch.GetMetricStatisticsInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*cloudwatch.GetMetricStatisticsOutput), args.Error(1)
}

type mockDatabases struct {
	mock.Mock
}

func (m *mockDatabases) DescribeDBInstances(ctx context.Context, in *rds.DescribeDBInstancesInput, _ ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*rds.DescribeDBInstancesOutput), args.Error(1)
}

type mockCompute struct {
	mock.Mock
}

func (m *mockCompute) DescribeVolumes(ctx context.Context, in *ec2.DescribeVolumesInput, _ ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*ec2.DescribeVolumesOutput), args.Error(1)
}

func (m *mockCompute) DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(*ec2.DescribeInstancesOutput), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Do(ctx context.Context, host, method, path string, body []byte) ([]byte, error) {
	args := m.Called(ctx, host, method, path, body)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func newTestMeasures() *Measures {
	return &Measures{
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testSamplesCounter",
			Help: "testSamplesCounter",
		}, []string{NamespaceLabel}),
		Skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testSkippedCounter",
			Help: "testSkippedCounter",
		}, []string{NamespaceLabel}),
		BulkPosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testBulkPostsCounter",
			Help: "testBulkPostsCounter",
		}, []string{OutcomeLabel}),
	}
}
