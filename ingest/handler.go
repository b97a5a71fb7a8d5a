// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package ingest indexes the deployment events posted through the ingestion
// API, so deployments can be overlaid on the metric dashboards.
package ingest

import (
	"context"
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/elk/bulk"
	"github.com/xmidt-org/elk/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

var (
	ErrNoEndpoint  = errors.New("deployment event carries no domain endpoint")
	ErrNilMeasures = errors.New("measures cannot be nil")
	ErrNoSender    = errors.New("a sender is required")
)

// Sender sends a request to a search domain endpoint.
type Sender interface {
	Do(ctx context.Context, host, method, path string, body []byte) ([]byte, error)
}

// Handler is the entry point behind the ingestion API.
type Handler struct {
	sender   Sender
	measures *Measures
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Handler. A nil logger is replaced with a no op one and a nil
// now defaults to time.Now.
func New(sender Sender, measures *Measures, logger *zap.Logger, now func() time.Time) (*Handler, error) {
	if sender == nil {
		return nil, ErrNoSender
	}
	if measures == nil {
		return nil, ErrNilMeasures
	}
	if logger == nil {
		logger = sallust.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Handler{sender: sender, measures: measures, logger: logger, now: now}, nil
}

// Handle writes the event into today's deployment index of the domain the
// event was routed for.
func (h *Handler) Handle(ctx context.Context, e model.DeploymentEvent) (bulk.Result, error) {
	logger := sallust.GetDefault(ctx, h.logger).With(
		zap.String("run_id", uuid.NewString()),
		zap.String("application", e.Application),
		zap.String("environment", e.Environment),
	)

	if e.Endpoint == "" {
		h.count(RejectedOutcome)
		return bulk.Result{}, ErrNoEndpoint
	}
	stream, err := bulk.EncodeDeployment(e, h.now())
	if err != nil {
		h.count(RejectedOutcome)
		logger.Warn("rejected deployment event", zap.Error(err))
		return bulk.Result{}, err
	}

	body, err := h.sender.Do(sallust.With(ctx, logger), e.Endpoint, http.MethodPost, bulk.Path, []byte(stream))
	if err != nil {
		h.count(FailureOutcome)
		logger.Error("failed indexing deployment event", zap.Error(err), zap.ByteString("response", body))
		return bulk.Result{}, errors.WrapWithDetails(err, "failed indexing deployment event",
			"application", e.Application, "environment", e.Environment)
	}

	result, err := bulk.ParseResponse(body)
	if err != nil {
		h.count(FailureOutcome)
		logger.Error("deployment event was not indexed", zap.Error(err), zap.ByteString("response", body))
		return result, err
	}
	h.count(SuccessOutcome)
	logger.Info("indexed deployment event")
	return result, nil
}

func (h *Handler) count(outcome string) {
	h.measures.Events.With(prometheus.Labels{OutcomeLabel: outcome}).Inc()
}
