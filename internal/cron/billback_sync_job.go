package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/internal/billback"
	"github.com/calderaops/procurehub-backend/pkg/logger"
)

// BillbackSyncJobParams configures the scheduled billback reconciliation.
type BillbackSyncJobParams struct {
	Logger      *logger.Logger
	CompanyRepo companyLister
	Billback    billbackSyncer
}

type companyLister interface {
	ListActiveCompanyIDs(ctx context.Context) ([]uuid.UUID, error)
}

type billbackSyncer interface {
	SyncMissing(ctx context.Context, companyID uuid.UUID) (*billback.SyncResult, error)
}

// NewBillbackSyncJob constructs the billback reconciliation cron job.
func NewBillbackSyncJob(params BillbackSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.CompanyRepo == nil {
		return nil, fmt.Errorf("company repository required")
	}
	if params.Billback == nil {
		return nil, fmt.Errorf("billback service required")
	}
	return &billbackSyncJob{
		logg:      params.Logger,
		companies: params.CompanyRepo,
		billback:  params.Billback,
	}, nil
}

type billbackSyncJob struct {
	logg      *logger.Logger
	companies companyLister
	billback  billbackSyncer
}

func (j *billbackSyncJob) Name() string { return "billback-sync" }

// Run sweeps every active company. Per-company failures are logged and the
// sweep continues; the service already reports per-PO failures in the result.
func (j *billbackSyncJob) Run(ctx context.Context) error {
	companyIDs, err := j.companies.ListActiveCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active companies: %w", err)
	}

	var synced, failed int
	for _, companyID := range companyIDs {
		companyCtx := j.logg.WithField(ctx, "company_id", companyID.String())
		result, err := j.billback.SyncMissing(companyCtx, companyID)
		if result != nil {
			synced += result.Synced
			failed += result.Failed
		}
		if err != nil {
			j.logg.Error(companyCtx, "billback sync finished with failures", err)
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"companies": len(companyIDs),
		"synced":    synced,
		"failed":    failed,
	})
	j.logg.Info(logCtx, "billback sync sweep complete")
	return nil
}
