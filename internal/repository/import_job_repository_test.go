package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stratix/import-engine/internal/domain"

	"github.com/google/uuid"
)

// fakeRow feeds a fixed column tuple into Scan, in the order the
// repository selects them.
type fakeRow struct {
	values []any
}

func (r *fakeRow) Scan(dest ...any) error {
	for i, value := range r.values {
		switch d := dest[i].(type) {
		case *uuid.UUID:
			*d = value.(uuid.UUID)
		case *string:
			*d = value.(string)
		case *int64:
			*d = value.(int64)
		case *int:
			*d = value.(int)
		case *time.Time:
			*d = value.(time.Time)
		case **time.Time:
			*d = value.(*time.Time)
		case *domain.JobStatus:
			*d = value.(domain.JobStatus)
		default:
			return fmt.Errorf("unexpected destination type %T at column %d", dest[i], i)
		}
	}
	return nil
}

func TestScanImportJobMapsAllColumns(t *testing.T) {
	id := uuid.New()
	tenantID := uuid.New()
	uploaderID := uuid.New()
	created := time.Now().Add(-time.Hour)
	started := created.Add(time.Minute)
	completed := started.Add(time.Minute)

	row := &fakeRow{values: []any{
		id,
		tenantID,
		uploaderID,
		"imports/plan.csv",
		"plan.csv",
		"text/csv",
		int64(2048),
		"abc123",
		domain.JobStatusPartial,
		10,
		10,
		8,
		2,
		"2 of 10 rows failed",
		created,
		&started,
		&completed,
	}}

	job, err := scanImportJob(row)
	if err != nil {
		t.Fatalf("scan returned error: %v", err)
	}

	if job.ID != id || job.TenantID != tenantID || job.UploaderID != uploaderID {
		t.Fatalf("identity columns mismapped: %+v", job)
	}
	if job.ObjectKey != "imports/plan.csv" || job.FileName != "plan.csv" || job.ContentType != "text/csv" {
		t.Fatalf("file columns mismapped: %+v", job)
	}
	if job.SizeBytes != 2048 || job.Checksum != "abc123" {
		t.Fatalf("payload columns mismapped: %+v", job)
	}
	if job.Status != domain.JobStatusPartial {
		t.Fatalf("expected partial status, got %s", job.Status)
	}
	if job.TotalRows != 10 || job.ProcessedRows != 10 || job.SuccessRows != 8 || job.ErrorRows != 2 {
		t.Fatalf("counter columns mismapped: %+v", job)
	}
	if job.ErrorSummary != "2 of 10 rows failed" {
		t.Fatalf("summary mismapped: %q", job.ErrorSummary)
	}
	if !job.CreatedAt.Equal(created) || job.StartedAt == nil || job.CompletedAt == nil {
		t.Fatalf("timestamp columns mismapped: %+v", job)
	}
}
