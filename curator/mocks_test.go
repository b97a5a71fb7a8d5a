// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"context"

	es "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
)

type mockDomains struct {
	mock.Mock
}

func (m *mockDomains) DescribeElasticsearchDomain(ctx context.Context, in *es.DescribeElasticsearchDomainInput, _ ...func(*es.Options)) (*es.DescribeElasticsearchDomainOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*es.DescribeElasticsearchDomainOutput)
	return out, args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Do(ctx context.Context, host, method, path string, body []byte) ([]byte, error) {
	args := m.Called(ctx, host, method, path)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func newTestMeasures() *Measures {
	return &Measures{
		Deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "testDeletionsCounter",
			Help: "testDeletionsCounter",
		}, []string{OutcomeLabel}),
		Listed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "testListedGauge",
			Help: "testListedGauge",
		}),
	}
}
