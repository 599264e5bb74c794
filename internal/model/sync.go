package model

import (
	"encoding/json"
	"time"
)

type SyncHistory struct {
	ID         int64           `json:"id"`
	SyncTime   time.Time       `json:"sync_time"`
	SyncType   string          `json:"sync_type"`
	Status     string          `json:"status"`
	DurationMs int64           `json:"duration_ms"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// SyncResult is the outcome of pushing a single record.
type SyncResult struct {
	RecordID string `json:"record_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	TraceMsg string `json:"trace_msg,omitempty"`
}

// SuccessTrace pairs a record id with the trace message the CRM returned
// for a successful direct post.
type SuccessTrace struct {
	RecordID string `json:"record_id"`
	TraceMsg string `json:"trace_msg"`
}

// RunSummary is the aggregated result of one sync run. Created at run
// start, finalized at run end and handed to the notifier.
type RunSummary struct {
	Total        int            `json:"total"`
	SuccessCount int            `json:"success_count"`
	FailCount    int            `json:"fail_count"`
	Elapsed      time.Duration  `json:"elapsed"`
	DryRun       bool           `json:"dry_run"`
	DirectPost   bool           `json:"direct_post"`
	Traces       []SuccessTrace `json:"traces,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
}
