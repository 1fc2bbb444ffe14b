package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/stratix/import-engine/internal/domain"
	"github.com/stratix/import-engine/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Tracker owns the job status state machine and its durable record.
// Jobs are created queued, moved to processing before the first row,
// and land in exactly one terminal state. No transition leaves a
// terminal state; the repository guards enforce that at the store too.
type Tracker struct {
	jobs repository.ImportJobRepository
	log  *logrus.Logger
}

// NewTracker creates a tracker over the injected job repository.
func NewTracker(jobs repository.ImportJobRepository, log *logrus.Logger) *Tracker {
	return &Tracker{jobs: jobs, log: log}
}

// Checksum computes the content checksum stored on a job.
func Checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// CreateJob records a new queued job for a source file. The checksum
// may be empty when the engine has only an object reference and will
// not see the bytes until the async runner downloads them.
func (t *Tracker) CreateJob(ctx context.Context, tenantID, uploaderID uuid.UUID, objectKey, fileName, contentType string, sizeBytes int64, checksum string) (domain.ImportJob, error) {
	job := domain.NewImportJob(tenantID, uploaderID, objectKey, fileName, contentType, sizeBytes, checksum)

	created, err := t.jobs.Create(ctx, job)
	if err != nil {
		return domain.ImportJob{}, err
	}

	t.log.WithFields(logrus.Fields{
		"job_id":    created.ID,
		"tenant_id": created.TenantID,
		"file_name": created.FileName,
		"bytes":     created.SizeBytes,
	}).Info("import job queued")
	return created, nil
}

// Start moves the job to processing with the parsed row total.
func (t *Tracker) Start(ctx context.Context, jobID uuid.UUID, totalRows int) error {
	if err := t.jobs.MarkProcessing(ctx, jobID, totalRows); err != nil {
		return err
	}
	t.log.WithFields(logrus.Fields{"job_id": jobID, "total_rows": totalRows}).Info("import job processing")
	return nil
}

// RecordItem appends one per-row outcome. Every processed row yields
// exactly one item, whatever its outcome.
func (t *Tracker) RecordItem(ctx context.Context, item domain.ImportJobItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.ProcessedAt.IsZero() {
		item.ProcessedAt = time.Now()
	}
	return t.jobs.AppendItem(ctx, item)
}

// Flush persists a progress snapshot for polling callers.
func (t *Tracker) Flush(ctx context.Context, jobID uuid.UUID, processed, success, errored int) error {
	return t.jobs.UpdateProgress(ctx, jobID, processed, success, errored)
}

// Finish lands the job in completed or partial: completed when the
// error count is zero after all rows, partial otherwise.
func (t *Tracker) Finish(ctx context.Context, jobID uuid.UUID, errored int, summary string) error {
	status := domain.JobStatusCompleted
	if errored > 0 {
		status = domain.JobStatusPartial
	}
	if err := t.jobs.MarkTerminal(ctx, jobID, status, summary); err != nil {
		return err
	}
	t.log.WithFields(logrus.Fields{"job_id": jobID, "status": status, "error_rows": errored}).Info("import job finished")
	return nil
}

// Fail marks the job failed with a human-readable summary. Used for
// unrecoverable errors outside the per-row boundary: download failure,
// unsupported format, empty file.
func (t *Tracker) Fail(ctx context.Context, jobID uuid.UUID, summary string) {
	if err := t.jobs.MarkTerminal(ctx, jobID, domain.JobStatusFailed, summary); err != nil {
		t.log.WithError(err).WithField("job_id", jobID).Error("failed to mark import job failed")
		return
	}
	t.log.WithFields(logrus.Fields{"job_id": jobID, "summary": summary}).Warn("import job failed")
}

// CountRows parses the file and reports how many data rows it holds,
// persisting nothing. Useful for upfront size estimates before a job
// is enqueued.
func (t *Tracker) CountRows(payload []byte, contentType string) (int, error) {
	rows, err := ParseFile(payload, contentType)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return len(rows), nil
}
