package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the import job state machine:
// queued → processing → {completed, partial, failed}.
// Terminal states are final; a job is never resurrected.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusPartial    JobStatus = "partial"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether no further transition may leave the status.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusPartial, JobStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from
// s to next. Failed is reachable from any non-terminal state.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch next {
	case JobStatusProcessing:
		return s == JobStatusQueued
	case JobStatusCompleted, JobStatusPartial:
		return s == JobStatusProcessing
	case JobStatusFailed:
		return true
	}
	return false
}

// ImportJob is the durable record of one bulk import run.
type ImportJob struct {
	ID            uuid.UUID  `json:"id"`
	TenantID      uuid.UUID  `json:"tenant_id"`
	UploaderID    uuid.UUID  `json:"uploader_id"`
	ObjectKey     string     `json:"object_key"`
	FileName      string     `json:"file_name"`
	ContentType   string     `json:"content_type"`
	SizeBytes     int64      `json:"size_bytes"`
	Checksum      string     `json:"checksum"`
	Status        JobStatus  `json:"status"`
	TotalRows     int        `json:"total_rows"`
	ProcessedRows int        `json:"processed_rows"`
	SuccessRows   int        `json:"success_rows"`
	ErrorRows     int        `json:"error_rows"`
	ErrorSummary  string     `json:"error_summary,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// NewImportJob creates a job in the queued state.
func NewImportJob(tenantID, uploaderID uuid.UUID, objectKey, fileName, contentType string, sizeBytes int64, checksum string) ImportJob {
	return ImportJob{
		ID:          uuid.New(),
		TenantID:    tenantID,
		UploaderID:  uploaderID,
		ObjectKey:   objectKey,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		Checksum:    checksum,
		Status:      JobStatusQueued,
		CreatedAt:   time.Now(),
	}
}

// EntityKind names which hierarchy level a job item touched.
type EntityKind string

const (
	EntityKindObjective  EntityKind = "objective"
	EntityKindInitiative EntityKind = "initiative"
	EntityKindActivity   EntityKind = "activity"
)

// ImportAction records the reconciliation decision made for a row.
type ImportAction string

const (
	ActionCreate ImportAction = "create"
	ActionUpdate ImportAction = "update"
	ActionSkip   ImportAction = "skip"
)

// ItemStatus is the per-row outcome.
type ItemStatus string

const (
	ItemStatusSuccess ItemStatus = "success"
	ItemStatusError   ItemStatus = "error"
)

// ImportJobItem is the append-only, row-granular audit record. Every
// processed row yields exactly one item regardless of outcome; items are
// never edited after being recorded.
type ImportJobItem struct {
	ID          uuid.UUID         `json:"id"`
	JobID       uuid.UUID         `json:"job_id"`
	RowNumber   int               `json:"row_number"`
	EntityKind  EntityKind        `json:"entity_kind"`
	EntityKey   string            `json:"entity_key"`
	EntityID    *uuid.UUID        `json:"entity_id,omitempty"`
	Action      ImportAction      `json:"action"`
	Status      ItemStatus        `json:"status"`
	Message     string            `json:"message,omitempty"`
	RawRow      map[string]string `json:"raw_row"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// ImportJobStats aggregates job activity for a tenant.
type ImportJobStats struct {
	TotalJobs      int64 `json:"total_jobs"`
	QueuedJobs     int64 `json:"queued_jobs"`
	ProcessingJobs int64 `json:"processing_jobs"`
	CompletedJobs  int64 `json:"completed_jobs"`
	PartialJobs    int64 `json:"partial_jobs"`
	FailedJobs     int64 `json:"failed_jobs"`
	TotalRows      int64 `json:"total_rows"`
	SuccessRows    int64 `json:"success_rows"`
	ErrorRows      int64 `json:"error_rows"`
}
