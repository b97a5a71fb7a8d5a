// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/elk/bulk"
	"github.com/xmidt-org/elk/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

const defaultStatistic = "Average"

// Sender sends a request to a search domain endpoint.
type Sender interface {
	Do(ctx context.Context, host, method, path string, body []byte) ([]byte, error)
}

// Handler is the scheduled entry point: it collects samples, encodes them
// and posts them to the domain's _bulk API.
type Handler struct {
	Collector *Collector
	Sender    Sender
	Measures  *Measures

	// (Optional). By default a no op logger will be used.
	Logger *zap.Logger

	// Now stamps samples that carry no collection time.
	// (Optional). Defaults to time.Now.
	Now func() time.Time
}

// Handle runs one collection cycle for the scheduled input.
func (h *Handler) Handle(ctx context.Context, in model.ScheduleInput) (bulk.Result, error) {
	logger := h.Logger
	if logger == nil {
		logger = sallust.Default()
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()), zap.String("endpoint", in.Endpoint))
	ctx = sallust.With(ctx, logger)

	if in.Endpoint == "" {
		return bulk.Result{}, fmt.Errorf("%w: endpoint is required", ErrValidation)
	}
	if in.AggregationMinutes < 0 {
		return bulk.Result{}, fmt.Errorf("%w: aggtime cannot be negative", ErrValidation)
	}
	statistic := in.Measurement
	if statistic == "" {
		statistic = defaultStatistic
	}
	prefix := in.IndexPrefix
	if prefix == "" {
		prefix = bulk.MetricsPrefix
	}

	groups := make(map[model.Namespace][]string, len(in.Metrics))
	for ns, metrics := range in.Metrics {
		groups[model.Namespace(ns)] = metrics
	}

	var opts []Option
	if in.Tag != nil {
		opts = append(opts, WithInstanceTag(in.Tag.Name, in.Tag.Values...))
	}
	if len(in.Instances) > 0 {
		opts = append(opts, WithInstances(in.Instances...))
	}
	if in.AggregationMinutes > 0 {
		opts = append(opts, WithPeriod(time.Duration(in.AggregationMinutes)*time.Minute))
	}

	samples, err := h.Collector.Collect(ctx, groups, statistic, opts...)
	if err != nil {
		return bulk.Result{}, err
	}
	if len(samples) == 0 {
		logger.Info("no datapoints found, nothing to index")
		return bulk.Result{}, nil
	}

	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	stream, err := bulk.Encode(samples, prefix, now())
	if err != nil {
		return bulk.Result{}, err
	}

	body, err := h.Sender.Do(ctx, in.Endpoint, http.MethodPost, bulk.Path, []byte(stream))
	if err != nil {
		h.Measures.BulkPosts.With(prometheus.Labels{OutcomeLabel: FailureOutcome}).Inc()
		logger.Error("bulk post failed", zap.Error(err), zap.ByteString("response", body))
		return bulk.Result{}, err
	}

	result, err := bulk.ParseResponse(body)
	outcome := SuccessOutcome
	if err != nil {
		outcome = FailureOutcome
		logger.Error("bulk post had failures", zap.Error(err), zap.ByteString("response", body))
	}
	h.Measures.BulkPosts.With(prometheus.Labels{OutcomeLabel: outcome}).Inc()
	logger.Info("indexed metric samples",
		zap.Int("attempted", result.Attempted), zap.Int("successful", result.Successful), zap.Int("failed", result.Failed))
	return result, err
}
