package cron

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"

	"github.com/calderaops/procurehub-backend/internal/billback"
	"github.com/calderaops/procurehub-backend/pkg/logger"
)

type stubCompanyLister struct {
	ids []uuid.UUID
	err error
}

func (s stubCompanyLister) ListActiveCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.ids, s.err
}

type stubBillbackSyncer struct {
	results map[uuid.UUID]*billback.SyncResult
	errs    map[uuid.UUID]error
	calls   []uuid.UUID
}

func (s *stubBillbackSyncer) SyncMissing(ctx context.Context, companyID uuid.UUID) (*billback.SyncResult, error) {
	s.calls = append(s.calls, companyID)
	return s.results[companyID], s.errs[companyID]
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestBillbackSyncJobSweepsEveryCompany(t *testing.T) {
	companyA := uuid.New()
	companyB := uuid.New()
	syncer := &stubBillbackSyncer{
		results: map[uuid.UUID]*billback.SyncResult{
			companyA: {CompanyID: companyA, Synced: 2},
			companyB: {CompanyID: companyB, Synced: 0, AlreadyBilled: 3},
		},
	}
	job, err := NewBillbackSyncJob(BillbackSyncJobParams{
		Logger:      testLogger(),
		CompanyRepo: stubCompanyLister{ids: []uuid.UUID{companyA, companyB}},
		Billback:    syncer,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(syncer.calls) != 2 {
		t.Fatalf("expected both companies swept, got %d", len(syncer.calls))
	}
}

func TestBillbackSyncJobContinuesPastCompanyFailure(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	syncer := &stubBillbackSyncer{
		results: map[uuid.UUID]*billback.SyncResult{
			healthy: {CompanyID: healthy, Synced: 1},
		},
		errs: map[uuid.UUID]error{
			broken: errors.New("sync po failed"),
		},
	}
	job, err := NewBillbackSyncJob(BillbackSyncJobParams{
		Logger:      testLogger(),
		CompanyRepo: stubCompanyLister{ids: []uuid.UUID{broken, healthy}},
		Billback:    syncer,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("sweep should not fail on one company: %v", err)
	}
	if len(syncer.calls) != 2 {
		t.Fatalf("expected sweep to continue, got %d calls", len(syncer.calls))
	}
}

func TestBillbackSyncJobFailsWhenCompanyListUnavailable(t *testing.T) {
	job, err := NewBillbackSyncJob(BillbackSyncJobParams{
		Logger:      testLogger(),
		CompanyRepo: stubCompanyLister{err: errors.New("db down")},
		Billback:    &stubBillbackSyncer{},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error when company listing fails")
	}
}
