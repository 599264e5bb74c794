package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

// SourceStore is the slice of the repository the sync run needs.
type SourceStore interface {
	FetchConsumables(ctx context.Context) ([]model.ConsumableRecord, error)
}

// CRMClient abstracts the CRM so the run loop can be exercised against a
// fake in tests.
type CRMClient interface {
	GetAccessToken(ctx context.Context) (string, error)
	CreateObject(ctx context.Context, token string, rec model.ConsumableRecord) error
	DirectPost(ctx context.Context, rec model.ConsumableRecord) (string, error)
	DirectEnabled() bool
}

// Notifier receives run-level events. All methods are best effort.
type Notifier interface {
	AuthFailed(ctx context.Context, reason string)
	Progress(ctx context.Context, done, total, success, fail int)
	RecordFailed(ctx context.Context, recordID, reason string)
	Completed(ctx context.Context, summary model.RunSummary)
}

// SyncService runs the consumable push: one full snapshot of the import
// table, pushed record by record to the CRM, strictly in sequence.
type SyncService struct {
	Store    SourceStore
	CRM      CRMClient
	Notifier Notifier

	DryRun       bool
	ProgressStep int

	mu      sync.Mutex
	lastRun *model.RunSummary
}

func NewSyncService(store SourceStore, crm CRMClient, notifier Notifier, dryRun bool, progressStep int) *SyncService {
	if progressStep <= 0 {
		progressStep = 100
	}
	return &SyncService{
		Store:        store,
		CRM:          crm,
		Notifier:     notifier,
		DryRun:       dryRun,
		ProgressStep: progressStep,
	}
}

// Run executes one sync pass. An authentication failure aborts before any
// record is attempted; per-record failures are counted and skipped. The
// returned summary always satisfies Total == SuccessCount + FailCount.
func (s *SyncService) Run(ctx context.Context) (*model.RunSummary, error) {
	start := time.Now()
	direct := s.CRM.DirectEnabled()

	records, err := s.Store.FetchConsumables(ctx)
	if err != nil {
		log.Printf("ERROR: reading source table failed: %v", err)
		return nil, fmt.Errorf("fetch consumables: %w", err)
	}

	total := len(records)
	log.Printf("fetched %d records, preparing push", total)

	summary := &model.RunSummary{
		Total:      total,
		DryRun:     s.DryRun,
		DirectPost: direct,
		StartedAt:  start,
	}

	if total == 0 {
		log.Println("no records to push")
		summary.Elapsed = time.Since(start)
		summary.FinishedAt = time.Now()
		s.setLastRun(summary)
		return summary, nil
	}

	var token string
	if !s.DryRun && !direct {
		token, err = s.CRM.GetAccessToken(ctx)
		if err != nil {
			log.Printf("ERROR: could not obtain access token, aborting push: %v", err)
			s.Notifier.AuthFailed(ctx, "could not obtain access token, check appId/appSecret/permanentCode")
			return nil, fmt.Errorf("get access token: %w", err)
		}
	}

	for i, rec := range records {
		switch {
		case s.DryRun:
			summary.SuccessCount++
			log.Printf("dry-run push ok (id: %s, name: %s)", rec.UniqueID(), rec.SingleProductName)

		case direct:
			trace, err := s.CRM.DirectPost(ctx, rec)
			if err != nil {
				summary.FailCount++
				log.Printf("ERROR: push failed (id: %s): %v", rec.UniqueID(), err)
				s.Notifier.RecordFailed(ctx, rec.UniqueID(), err.Error())
			} else {
				summary.SuccessCount++
				if trace != "" {
					summary.Traces = append(summary.Traces, model.SuccessTrace{
						RecordID: rec.UniqueID(),
						TraceMsg: trace,
					})
				}
			}

		default:
			if err := s.CRM.CreateObject(ctx, token, rec); err != nil {
				summary.FailCount++
				log.Printf("ERROR: push failed (id: %s): %v", rec.UniqueID(), err)
				s.Notifier.RecordFailed(ctx, rec.UniqueID(), err.Error())
			} else {
				summary.SuccessCount++
			}
		}

		if (i+1)%s.ProgressStep == 0 {
			log.Printf("progress: %d/%d success:%d fail:%d", i+1, total, summary.SuccessCount, summary.FailCount)
			s.Notifier.Progress(ctx, i+1, total, summary.SuccessCount, summary.FailCount)
		}
	}

	summary.Elapsed = time.Since(start)
	summary.FinishedAt = time.Now()

	log.Printf("push finished: total %d, success %d, fail %d, elapsed %s",
		summary.Total, summary.SuccessCount, summary.FailCount, summary.Elapsed.Round(time.Millisecond))
	if s.DryRun {
		log.Println("dry-run enabled, no records were posted")
	}
	if direct {
		log.Println("direct-post channel was used")
	}

	s.Notifier.Completed(ctx, *summary)
	s.setLastRun(summary)
	return summary, nil
}

func (s *SyncService) setLastRun(summary *model.RunSummary) {
	s.mu.Lock()
	s.lastRun = summary
	s.mu.Unlock()
}

// LastRun returns the summary of the most recently finished run, or nil
// when no run has completed since startup.
func (s *SyncService) LastRun() *model.RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
