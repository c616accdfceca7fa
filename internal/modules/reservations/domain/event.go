package domain

import "time"

type Stage string

const (
	StagePageFetched         Stage = "page.fetched"
	StagePaginationTruncated Stage = "pagination.truncated"
	StageRecordRejected      Stage = "record.rejected"
	StageWindowReconciled    Stage = "window.reconciled"
	StageLookup              Stage = "enrichment.lookup"
	StageBilling             Stage = "enrichment.billing"
	StageEnriched            Stage = "enrichment.completed"
)

type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeWarning  Outcome = "warning"
	OutcomeFallback Outcome = "fallback"
	OutcomeFailed   Outcome = "failed"
)

// PipelineEvent is one structured observation emitted by a pipeline stage.
type PipelineEvent struct {
	ID        string         `json:"id"`
	RunID     string         `json:"runId"`
	Stage     Stage          `json:"stage"`
	Outcome   Outcome        `json:"outcome"`
	SiteCode  string         `json:"siteCode,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
