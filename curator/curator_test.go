// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	es "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	estypes "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/elk/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testEndpoint = "search-elk-abc.ap-southeast-2.es.amazonaws.com"

var testNow = time.Date(2024, time.July, 20, 10, 30, 0, 0, time.UTC)

const testTable = `health status index          uuid                   pri rep docs.count
green  open   foo-2024.01.01 a1b2c3                 5   1   10
green  open   foo-2024.06.25 d4e5f6                 5   1   12
green  open   bar            g7h8i9                 5   1   1
yellow open   cw-2024.06.15  j1k2l3                 5   1   300
`

func describeOutput(endpoint string) *es.DescribeElasticsearchDomainOutput {
	return &es.DescribeElasticsearchDomainOutput{
		DomainStatus: &estypes.ElasticsearchDomainStatus{
			DomainName: aws.String("elk"),
			Endpoint:   aws.String(endpoint),
		},
	}
}

func newTestCurator(t *testing.T, domains DomainAPI, sender Sender, measures *Measures) *Curator {
	c, err := New(Config{
		Domains: domains,
		Sender:  sender,
		Now:     func() time.Time { return testNow },
	}, measures)
	require.NoError(t, err)
	return c
}

func TestParseIndex(t *testing.T) {
	tests := []struct {
		Description string
		Name        string
		ExpectDated bool
		ExpectDate  time.Time
	}{
		{
			Description: "Dated",
			Name:        "cw-2024.07.20",
			ExpectDated: true,
			ExpectDate:  time.Date(2024, time.July, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			Description: "Single digit month and day",
			Name:        "deployment-2024.7.2",
			ExpectDated: true,
			ExpectDate:  time.Date(2024, time.July, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			Description: "Undated",
			Name:        "bar",
		},
		{
			Description: "Kibana",
			Name:        ".kibana-4",
		},
		{
			Description: "Date not at the end",
			Name:        "cw-2024.07.20-old",
		},
		{
			Description: "Impossible month",
			Name:        "cw-2024.13.01",
		},
	}

	for _, tc := range tests {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			idx := ParseIndex(tc.Name)
			assert.Equal(tc.Name, idx.Name)
			assert.Equal(tc.ExpectDated, idx.Dated)
			if tc.ExpectDated {
				assert.Equal(tc.ExpectDate, idx.Date)
			}
		})
	}
}

func TestParseIndices(t *testing.T) {
	assert := assert.New(t)
	assert.Equal([]string{"foo-2024.01.01", "foo-2024.06.25", "bar", "cw-2024.06.15"}, ParseIndices(testTable))
	assert.Empty(ParseIndices(""))
	assert.Equal([]string{"cw-2024.07.01"}, ParseIndices("green open cw-2024.07.01\nshort row\n\n"))
}

func TestAgeDays(t *testing.T) {
	assert := assert.New(t)
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

	assert.Equal(0, AgeDays(day(time.July, 20), testNow))
	assert.Equal(30, AgeDays(day(time.June, 20), testNow))
	assert.Equal(31, AgeDays(day(time.June, 19), testNow))
	assert.Equal(201, AgeDays(day(time.January, 1), testNow))
	assert.Equal(-1, AgeDays(day(time.July, 21), testNow))
}

func TestExpired(t *testing.T) {
	tests := []struct {
		Description string
		Names       []string
		Retention   int
		Expected    []string
	}{
		{
			Description: "Old dated index",
			Names:       []string{"foo-2024.01.01", "foo-2024.06.25", "bar"},
			Retention:   30,
			Expected:    []string{"foo-2024.01.01"},
		},
		{
			Description: "Retention boundary is kept",
			Names:       []string{"cw-2024.06.20", "cw-2024.06.19"},
			Retention:   30,
			Expected:    []string{"cw-2024.06.19"},
		},
		{
			Description: "Shorter retention",
			Names:       []string{"cw-2024.07.10", "cw-2024.07.18"},
			Retention:   7,
			Expected:    []string{"cw-2024.07.10"},
		},
		{
			Description: "Nothing dated",
			Names:       []string{".kibana-4", "bar"},
			Retention:   30,
		},
	}

	for _, tc := range tests {
		t.Run(tc.Description, func(t *testing.T) {
			var got []string
			for _, idx := range Expired(tc.Names, testNow, tc.Retention) {
				got = append(got, idx.Name)
			}
			assert.Equal(t, tc.Expected, got)
		})
	}
}

func TestCurate(t *testing.T) {
	var (
		assert   = assert.New(t)
		require  = require.New(t)
		domains  = new(mockDomains)
		sender   = new(mockSender)
		measures = newTestMeasures()
	)

	domains.On("DescribeElasticsearchDomain", mock.Anything, mock.MatchedBy(func(in *es.DescribeElasticsearchDomainInput) bool {
		return aws.ToString(in.DomainName) == "elk"
	})).Return(describeOutput(testEndpoint), nil).Once()
	sender.On("Do", mock.Anything, testEndpoint, http.MethodGet, "/_cat/indices?v").Return([]byte(testTable), nil).Once()
	sender.On("Do", mock.Anything, testEndpoint, http.MethodDelete, "/foo-2024.01.01").Return([]byte(`{"acknowledged":true}`), nil).Once()
	sender.On("Do", mock.Anything, testEndpoint, http.MethodDelete, "/cw-2024.06.15").Return([]byte(`{"acknowledged":true}`), nil).Once()

	c := newTestCurator(t, domains, sender, measures)
	deleted, err := c.Curate(context.Background(), "elk")
	require.NoError(err)
	assert.Equal([]string{"foo-2024.01.01", "cw-2024.06.15"}, deleted)
	assert.Equal(2.0, testutil.ToFloat64(measures.Deletions.WithLabelValues(SuccessOutcome)))
	assert.Equal(4.0, testutil.ToFloat64(measures.Listed))

	sender.AssertNotCalled(t, "Do", mock.Anything, testEndpoint, http.MethodDelete, "/foo-2024.06.25")
	sender.AssertNotCalled(t, "Do", mock.Anything, testEndpoint, http.MethodDelete, "/bar")
	domains.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestCurateIsolatesDeletions(t *testing.T) {
	var (
		assert   = assert.New(t)
		domains  = new(mockDomains)
		sender   = new(mockSender)
		measures = newTestMeasures()
		errGone  = errors.New("503 service unavailable")
	)

	domains.On("DescribeElasticsearchDomain", mock.Anything, mock.Anything).Return(describeOutput(testEndpoint), nil).Once()
	sender.On("Do", mock.Anything, testEndpoint, http.MethodGet, "/_cat/indices?v").Return([]byte(testTable), nil).Once()
	sender.On("Do", mock.Anything, testEndpoint, http.MethodDelete, "/foo-2024.01.01").Return(nil, errGone).Once()
	sender.On("Do", mock.Anything, testEndpoint, http.MethodDelete, "/cw-2024.06.15").Return([]byte(`{}`), nil).Once()

	c := newTestCurator(t, domains, sender, measures)
	deleted, err := c.Curate(context.Background(), "elk")
	assert.ErrorIs(err, errGone)
	assert.ErrorIs(err, errDeletingIndex)
	assert.Equal([]string{"cw-2024.06.15"}, deleted)
	assert.Equal(1.0, testutil.ToFloat64(measures.Deletions.WithLabelValues(SuccessOutcome)))
	assert.Equal(1.0, testutil.ToFloat64(measures.Deletions.WithLabelValues(FailureOutcome)))
	sender.AssertExpectations(t)
}

func TestCurateErrors(t *testing.T) {
	errAPI := errors.New("throttled")

	tests := []struct {
		Description    string
		Domain         string
		DescribeOutput *es.DescribeElasticsearchDomainOutput
		DescribeErr    error
		ListErr        error
		ExpectedErr    error
	}{
		{
			Description: "No domain name",
			ExpectedErr: ErrDomainRequired,
		},
		{
			Description: "Domain does not exist",
			Domain:      "elk",
			DescribeErr: &estypes.ResourceNotFoundException{Message: aws.String("Domain not found: elk")},
			ExpectedErr: ErrNotFound,
		},
		{
			Description: "Describe fails",
			Domain:      "elk",
			DescribeErr: errAPI,
			ExpectedErr: errAPI,
		},
		{
			Description:    "Domain still creating",
			Domain:         "elk",
			DescribeOutput: describeOutput(""),
			ExpectedErr:    ErrNoEndpoint,
		},
		{
			Description:    "Listing fails",
			Domain:         "elk",
			DescribeOutput: describeOutput(testEndpoint),
			ListErr:        errAPI,
			ExpectedErr:    errListingIndices,
		},
	}

	for _, tc := range tests {
		t.Run(tc.Description, func(t *testing.T) {
			var (
				assert  = assert.New(t)
				domains = new(mockDomains)
				sender  = new(mockSender)
			)
			domains.On("DescribeElasticsearchDomain", mock.Anything, mock.Anything).Return(tc.DescribeOutput, tc.DescribeErr)
			sender.On("Do", mock.Anything, mock.Anything, http.MethodGet, mock.Anything).Return(nil, tc.ListErr)

			c := newTestCurator(t, domains, sender, newTestMeasures())
			deleted, err := c.Curate(context.Background(), tc.Domain)
			assert.ErrorIs(err, tc.ExpectedErr)
			assert.Empty(deleted)
			sender.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, http.MethodDelete, mock.Anything)
		})
	}
}

func TestCurateVPCEndpoint(t *testing.T) {
	domains := new(mockDomains)
	sender := new(mockSender)
	vpc := "vpc-elk-abc.ap-southeast-2.es.amazonaws.com"

	domains.On("DescribeElasticsearchDomain", mock.Anything, mock.Anything).Return(&es.DescribeElasticsearchDomainOutput{
		DomainStatus: &estypes.ElasticsearchDomainStatus{Endpoints: map[string]string{"vpc": vpc}},
	}, nil)
	sender.On("Do", mock.Anything, vpc, http.MethodGet, "/_cat/indices?v").Return([]byte("health status index\n"), nil).Once()

	c := newTestCurator(t, domains, sender, newTestMeasures())
	deleted, err := c.Curate(context.Background(), "elk")
	assert.NoError(t, err)
	assert.Empty(t, deleted)
	sender.AssertExpectations(t)
}

func TestNew(t *testing.T) {
	_, err := New(Config{}, newTestMeasures())
	assert.ErrorIs(t, err, ErrMissingClient)

	_, err = New(Config{Domains: new(mockDomains), Sender: new(mockSender)}, nil)
	assert.ErrorIs(t, err, ErrNilMeasures)

	c, err := New(Config{Domains: new(mockDomains), Sender: new(mockSender)}, newTestMeasures())
	require.NoError(t, err)
	assert.Equal(t, DefaultRetentionDays, c.retention)
}

func TestHandler(t *testing.T) {
	domains := new(mockDomains)
	sender := new(mockSender)
	domains.On("DescribeElasticsearchDomain", mock.Anything, mock.Anything).Return(describeOutput(testEndpoint), nil)
	sender.On("Do", mock.Anything, testEndpoint, http.MethodGet, "/_cat/indices?v").Return([]byte(testTable), nil)
	sender.On("Do", mock.Anything, testEndpoint, http.MethodDelete, mock.Anything).Return([]byte(`{}`), nil)

	core, obs := observer.New(zap.DebugLevel)
	ctx := sallust.With(context.Background(), zap.New(core))

	h := &Handler{Curator: newTestCurator(t, domains, sender, newTestMeasures())}
	result, err := h.Handle(ctx, model.ScheduleInput{DomainName: "elk"})
	assert.NoError(t, err)
	assert.Equal(t, "elk", result.Domain)
	assert.Equal(t, []string{"foo-2024.01.01", "cw-2024.06.15"}, result.Deleted)

	// curation lines carry the run id
	for _, msg := range []string{"found indices", "deleted aged indices"} {
		entries := obs.FilterMessage(msg).All()
		require.Len(t, entries, 1, msg)
		fields := entries[0].ContextMap()
		assert.Contains(t, fields, "run_id")
		assert.Equal(t, "elk", fields["domain"])
	}
}
