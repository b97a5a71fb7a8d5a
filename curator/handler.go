// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package curator

import (
	"context"

	"github.com/google/uuid"
	"github.com/xmidt-org/elk/model"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

// Result is returned to the scheduler after a curation run.
type Result struct {
	Domain  string   `json:"domainname"`
	Deleted []string `json:"deleted"`
}

// Handler is the scheduled entry point of the curator.
type Handler struct {
	Curator *Curator
}

// Handle curates the domain named by the scheduled input.
func (h *Handler) Handle(ctx context.Context, in model.ScheduleInput) (Result, error) {
	logger := sallust.Get(ctx).With(zap.String("run_id", uuid.NewString()))
	ctx = sallust.With(ctx, logger)

	deleted, err := h.Curator.Curate(ctx, in.DomainName)
	if err != nil {
		logger.Error("curation finished with errors", zap.String("domain", in.DomainName), zap.Error(err))
	}
	return Result{Domain: in.DomainName, Deleted: deleted}, err
}
