package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stratix/import-engine/internal/domain"
	"github.com/stratix/import-engine/internal/repository"
	"github.com/stratix/import-engine/internal/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config tunes the orchestrator.
type Config struct {
	// SyncRowLimit is the largest file (in data rows) served on the
	// synchronous path; larger files go through the async runner.
	SyncRowLimit int
	// FlushEvery is the async progress persistence cadence in rows.
	FlushEvery int
	// DownloadTimeout bounds the source-file download. It is the only
	// explicit timeout in the engine; per-row store calls rely on the
	// store's own defaults.
	DownloadTimeout time.Duration
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		SyncRowLimit:    25,
		FlushEvery:      10,
		DownloadTimeout: 60 * time.Second,
	}
}

// Summary is the aggregated result of a synchronous run.
type Summary struct {
	JobID              uuid.UUID `json:"jobId"`
	TotalRows          int       `json:"totalRows"`
	SuccessRows        int       `json:"successRows"`
	ErrorRows          int       `json:"errorRows"`
	ObjectivesCreated  int       `json:"objectivesCreated"`
	InitiativesCreated int       `json:"initiativesCreated"`
	ActivitiesCreated  int       `json:"activitiesCreated"`
	Message            string    `json:"message"`
}

// Service drives rows through validation, resolution, and linking. One
// pipeline serves both execution modes; they differ only in flush
// cadence and in whether the caller waits for the aggregated result.
type Service struct {
	resolver *Resolver
	links    repository.LinkRepository
	tracker  *Tracker
	blobs    storage.BlobStore
	cfg      Config
	log      *logrus.Logger
}

// NewService creates the batch orchestrator.
func NewService(
	resolver *Resolver,
	links repository.LinkRepository,
	tracker *Tracker,
	blobs storage.BlobStore,
	cfg Config,
	log *logrus.Logger,
) *Service {
	if cfg.SyncRowLimit <= 0 {
		cfg.SyncRowLimit = DefaultConfig().SyncRowLimit
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = DefaultConfig().FlushEvery
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultConfig().DownloadTimeout
	}
	return &Service{
		resolver: resolver,
		links:    links,
		tracker:  tracker,
		blobs:    blobs,
		cfg:      cfg,
		log:      log,
	}
}

// Tracker exposes the job tracker for callers that create jobs or count
// rows before processing.
func (s *Service) Tracker() *Tracker { return s.tracker }

// SyncRowLimit reports the threshold between the two execution modes.
func (s *Service) SyncRowLimit() int { return s.cfg.SyncRowLimit }

// ImportSync runs the whole file in one pass and returns the aggregated
// summary to the caller. A parse failure marks the job failed and is
// returned as an error; per-row failures never are.
func (s *Service) ImportSync(ctx context.Context, job domain.ImportJob, payload []byte) (Summary, error) {
	rows, err := ParseFile(payload, job.ContentType)
	if err != nil {
		s.tracker.Fail(ctx, job.ID, fmt.Sprintf("failed to parse %s: %v", job.FileName, err))
		return Summary{JobID: job.ID}, err
	}

	if err := s.tracker.Start(ctx, job.ID, len(rows)); err != nil {
		return Summary{JobID: job.ID}, err
	}

	// Sync mode flushes once, at the terminal update.
	return s.run(ctx, job, rows, 0)
}

// EnqueueAsync kicks the background runner for a queued job and returns
// immediately. The run is decoupled from any request lifetime; callers
// observe progress by polling the job record. There is no cancellation
// primitive — an in-flight job runs to completion or failure.
func (s *Service) EnqueueAsync(job domain.ImportJob) {
	go s.runAsync(job)
}

func (s *Service) runAsync(job domain.ImportJob) {
	ctx := context.Background()

	downloadCtx, cancel := context.WithTimeout(ctx, s.cfg.DownloadTimeout)
	payload, err := s.blobs.Download(downloadCtx, job.ObjectKey)
	cancel()
	if err != nil {
		s.tracker.Fail(ctx, job.ID, fmt.Sprintf("failed to download %s: %v", job.ObjectKey, err))
		return
	}

	rows, err := ParseFile(payload, job.ContentType)
	if err != nil {
		s.tracker.Fail(ctx, job.ID, fmt.Sprintf("failed to parse %s: %v", job.FileName, err))
		return
	}

	if err := s.tracker.Start(ctx, job.ID, len(rows)); err != nil {
		s.log.WithError(err).WithField("job_id", job.ID).Error("failed to start import job")
		return
	}

	if _, err := s.run(ctx, job, rows, s.cfg.FlushEvery); err != nil {
		s.log.WithError(err).WithField("job_id", job.ID).Error("import run aborted")
	}
}

// run is the shared per-row pipeline. flushEvery > 0 persists a
// progress snapshot every N rows; the terminal update always lands.
// Rows are processed strictly in file order: an initiative's parent
// objective must be resolved before the initiative that depends on it.
func (s *Service) run(ctx context.Context, job domain.ImportJob, rows []RawRow, flushEvery int) (Summary, error) {
	summary := Summary{JobID: job.ID, TotalRows: len(rows)}
	cache := NewResolutionCache()

	for _, raw := range rows {
		outcome := s.processRow(ctx, job.TenantID, raw, cache, &summary)

		item := domain.ImportJobItem{
			JobID:      job.ID,
			RowNumber:  raw.Number,
			EntityKind: outcome.kind,
			EntityKey:  outcome.key,
			EntityID:   outcome.entityID,
			Action:     outcome.action,
			Status:     outcome.status,
			Message:    outcome.message,
			RawRow:     raw.Values,
		}
		if err := s.tracker.RecordItem(ctx, item); err != nil {
			// Losing the audit record is an unrecoverable storage error.
			s.tracker.Fail(ctx, job.ID, fmt.Sprintf("failed to record row %d: %v", raw.Number, err))
			return summary, err
		}

		if outcome.status == domain.ItemStatusSuccess {
			summary.SuccessRows++
		} else {
			summary.ErrorRows++
		}

		processed := summary.SuccessRows + summary.ErrorRows
		if flushEvery > 0 && processed%flushEvery == 0 {
			if err := s.tracker.Flush(ctx, job.ID, processed, summary.SuccessRows, summary.ErrorRows); err != nil {
				s.log.WithError(err).WithField("job_id", job.ID).Warn("failed to flush import progress")
			}
		}
	}

	if err := s.tracker.Flush(ctx, job.ID, summary.TotalRows, summary.SuccessRows, summary.ErrorRows); err != nil {
		s.log.WithError(err).WithField("job_id", job.ID).Warn("failed to flush import progress")
	}

	summary.Message = summaryMessage(summary)
	if err := s.tracker.Finish(ctx, job.ID, summary.ErrorRows, summary.Message); err != nil {
		return summary, err
	}
	return summary, nil
}

// rowOutcome is the per-row result fed into the audit record. kind,
// key, and entityID describe the deepest hierarchy level the row
// reached.
type rowOutcome struct {
	kind     domain.EntityKind
	key      string
	entityID *uuid.UUID
	action   domain.ImportAction
	status   domain.ItemStatus
	message  string
}

// processRow runs one row through validate → resolve objective →
// resolve initiative → link → resolve activity. Nothing raised here
// escalates beyond the row; resolution failures are caught and recorded
// so the batch continues.
func (s *Service) processRow(ctx context.Context, tenantID uuid.UUID, raw RawRow, cache *ResolutionCache, summary *Summary) rowOutcome {
	row, fieldErrs := NormalizeRow(raw, nil)
	if len(fieldErrs) > 0 {
		messages := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			messages[i] = fe.Error()
		}
		return rowOutcome{
			kind:    domain.EntityKindObjective,
			key:     attemptedKey(raw),
			action:  domain.ActionSkip,
			status:  domain.ItemStatusError,
			message: strings.Join(messages, "; "),
		}
	}

	objectiveID, action, err := s.resolver.ResolveObjective(ctx, tenantID, row.Objective, cache)
	if err != nil {
		return rowOutcome{
			kind:    domain.EntityKindObjective,
			key:     row.Objective.Title,
			action:  action,
			status:  domain.ItemStatusError,
			message: err.Error(),
		}
	}
	if action == domain.ActionCreate {
		summary.ObjectivesCreated++
	}

	outcome := rowOutcome{
		kind:     domain.EntityKindObjective,
		key:      row.Objective.Title,
		entityID: &objectiveID,
		action:   action,
		status:   domain.ItemStatusSuccess,
	}

	if row.Initiative != nil {
		initiativeID, action, err := s.resolver.ResolveInitiative(ctx, tenantID, objectiveID, row.Objective.Title, *row.Initiative, cache)
		if err != nil {
			return rowOutcome{
				kind:    domain.EntityKindInitiative,
				key:     row.Initiative.Title,
				action:  action,
				status:  domain.ItemStatusError,
				message: err.Error(),
			}
		}
		if action == domain.ActionCreate {
			summary.InitiativesCreated++
		}

		if err := s.links.Link(ctx, objectiveID, initiativeID); err != nil {
			return rowOutcome{
				kind:    domain.EntityKindInitiative,
				key:     row.Initiative.Title,
				action:  action,
				status:  domain.ItemStatusError,
				message: err.Error(),
			}
		}

		outcome.kind = domain.EntityKindInitiative
		outcome.key = row.Initiative.Title
		outcome.entityID = &initiativeID
		outcome.action = action

		if row.Activity != nil {
			activityID, action, err := s.resolver.ResolveActivity(ctx, tenantID, initiativeID, *row.Activity, cache)
			if err != nil {
				return rowOutcome{
					kind:    domain.EntityKindActivity,
					key:     row.Activity.Title,
					action:  action,
					status:  domain.ItemStatusError,
					message: err.Error(),
				}
			}
			if action == domain.ActionCreate {
				summary.ActivitiesCreated++
			}

			outcome.kind = domain.EntityKindActivity
			outcome.key = row.Activity.Title
			outcome.entityID = &activityID
			outcome.action = action
		}
	}

	if len(row.Warnings) > 0 {
		outcome.message = "warning: " + strings.Join(row.Warnings, "; ")
	}
	return outcome
}

// attemptedKey picks the most specific title present on an invalid row
// so its audit record stays human-readable.
func attemptedKey(raw RawRow) string {
	for _, key := range []string{"objective_title", "initiative_title", "activity_title"} {
		if value := strings.TrimSpace(raw.Values[key]); value != "" {
			return value
		}
	}
	return fmt.Sprintf("row %d", raw.Number)
}

func summaryMessage(summary Summary) string {
	if summary.ErrorRows > 0 {
		return fmt.Sprintf("%d of %d rows failed; created %d objectives, %d initiatives, %d activities",
			summary.ErrorRows, summary.TotalRows, summary.ObjectivesCreated, summary.InitiativesCreated, summary.ActivitiesCreated)
	}
	return fmt.Sprintf("imported %d rows; created %d objectives, %d initiatives, %d activities",
		summary.TotalRows, summary.ObjectivesCreated, summary.InitiativesCreated, summary.ActivitiesCreated)
}
