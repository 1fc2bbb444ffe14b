package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/stratix/import-engine/internal/domain"
	"github.com/stratix/import-engine/internal/repository"

	"github.com/google/uuid"
)

type stubObjectiveRepo struct {
	items   []domain.Objective
	creates int
	updates int
	failOn  map[string]error
}

func (s *stubObjectiveRepo) FindByTitle(ctx context.Context, tenantID uuid.UUID, title string) (domain.Objective, error) {
	for _, obj := range s.items {
		if obj.TenantID == tenantID && strings.EqualFold(obj.Title, title) {
			return obj, nil
		}
	}
	return domain.Objective{}, repository.ErrNotFound
}

func (s *stubObjectiveRepo) Create(ctx context.Context, objective domain.Objective) (domain.Objective, error) {
	if err := s.failOn[strings.ToLower(objective.Title)]; err != nil {
		return domain.Objective{}, err
	}
	s.creates++
	s.items = append(s.items, objective)
	return objective, nil
}

func (s *stubObjectiveRepo) Update(ctx context.Context, objective domain.Objective) (domain.Objective, error) {
	s.updates++
	for i, existing := range s.items {
		if existing.ID == objective.ID {
			objective.Title = existing.Title
			s.items[i] = objective
			return objective, nil
		}
	}
	return domain.Objective{}, repository.ErrNotFound
}

func (s *stubObjectiveRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Objective, error) {
	var out []domain.Objective
	for _, obj := range s.items {
		if obj.TenantID == tenantID {
			out = append(out, obj)
		}
	}
	return out, nil
}

type stubInitiativeRepo struct {
	items   []domain.Initiative
	creates int
	updates int
	failOn  map[string]error
}

func (s *stubInitiativeRepo) FindByTitle(ctx context.Context, tenantID, objectiveID uuid.UUID, title string) (domain.Initiative, error) {
	for _, init := range s.items {
		if init.TenantID == tenantID && init.ObjectiveID == objectiveID && strings.EqualFold(init.Title, title) {
			return init, nil
		}
	}
	return domain.Initiative{}, repository.ErrNotFound
}

func (s *stubInitiativeRepo) Create(ctx context.Context, initiative domain.Initiative) (domain.Initiative, error) {
	if err := s.failOn[strings.ToLower(initiative.Title)]; err != nil {
		return domain.Initiative{}, err
	}
	s.creates++
	s.items = append(s.items, initiative)
	return initiative, nil
}

func (s *stubInitiativeRepo) Update(ctx context.Context, initiative domain.Initiative) (domain.Initiative, error) {
	s.updates++
	for i, existing := range s.items {
		if existing.ID == initiative.ID {
			initiative.Title = existing.Title
			s.items[i] = initiative
			return initiative, nil
		}
	}
	return domain.Initiative{}, repository.ErrNotFound
}

func (s *stubInitiativeRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Initiative, error) {
	var out []domain.Initiative
	for _, init := range s.items {
		if init.TenantID == tenantID {
			out = append(out, init)
		}
	}
	return out, nil
}

type stubActivityRepo struct {
	items   []domain.Activity
	creates int
	updates int
}

func (s *stubActivityRepo) FindByTitle(ctx context.Context, initiativeID uuid.UUID, title string) (domain.Activity, error) {
	for _, act := range s.items {
		if act.InitiativeID == initiativeID && strings.EqualFold(act.Title, title) {
			return act, nil
		}
	}
	return domain.Activity{}, repository.ErrNotFound
}

func (s *stubActivityRepo) Create(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	s.creates++
	s.items = append(s.items, activity)
	return activity, nil
}

func (s *stubActivityRepo) Update(ctx context.Context, activity domain.Activity) (domain.Activity, error) {
	s.updates++
	for i, existing := range s.items {
		if existing.ID == activity.ID {
			s.items[i] = activity
			return activity, nil
		}
	}
	return domain.Activity{}, repository.ErrNotFound
}

type stubUserRepo struct {
	users map[string]domain.UserProfile
	calls int
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, tenantID uuid.UUID, email string) (domain.UserProfile, error) {
	s.calls++
	user, ok := s.users[strings.ToLower(email)]
	if !ok || user.TenantID != tenantID {
		return domain.UserProfile{}, repository.ErrNotFound
	}
	return user, nil
}

type stubLinkRepo struct {
	pairs map[string]bool
	calls int
}

func newStubLinkRepo() *stubLinkRepo {
	return &stubLinkRepo{pairs: make(map[string]bool)}
}

func (s *stubLinkRepo) Link(ctx context.Context, objectiveID, initiativeID uuid.UUID) error {
	s.calls++
	s.pairs[objectiveID.String()+"/"+initiativeID.String()] = true
	return nil
}

func (s *stubLinkRepo) CountByObjective(ctx context.Context, objectiveID uuid.UUID) (int64, error) {
	var count int64
	for pair := range s.pairs {
		if strings.HasPrefix(pair, objectiveID.String()+"/") {
			count++
		}
	}
	return count, nil
}

type stubJobRepo struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*domain.ImportJob
	items   []domain.ImportJobItem
	flushes int
	itemErr error
}

func newStubJobRepo() *stubJobRepo {
	return &stubJobRepo{jobs: make(map[uuid.UUID]*domain.ImportJob)}
}

func (s *stubJobRepo) Create(ctx context.Context, job domain.ImportJob) (domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := job
	s.jobs[job.ID] = &copied
	return job, nil
}

func (s *stubJobRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return domain.ImportJob{}, repository.ErrNotFound
	}
	return *job, nil
}

func (s *stubJobRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ImportJob
	for _, job := range s.jobs {
		if job.TenantID == tenantID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *stubJobRepo) MarkProcessing(ctx context.Context, id uuid.UUID, totalRows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if job.Status != domain.JobStatusQueued {
		return fmt.Errorf("job %s is not queued", id)
	}
	job.Status = domain.JobStatusProcessing
	job.TotalRows = totalRows
	return nil
}

func (s *stubJobRepo) UpdateProgress(ctx context.Context, id uuid.UUID, processed, success, errored int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.flushes++
	job.ProcessedRows = processed
	job.SuccessRows = success
	job.ErrorRows = errored
	return nil
}

func (s *stubJobRepo) MarkTerminal(ctx context.Context, id uuid.UUID, status domain.JobStatus, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("job %s is already terminal", id)
	}
	job.Status = status
	job.ErrorSummary = summary
	return nil
}

func (s *stubJobRepo) AppendItem(ctx context.Context, item domain.ImportJobItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.itemErr != nil {
		return s.itemErr
	}
	s.items = append(s.items, item)
	return nil
}

func (s *stubJobRepo) ListItems(ctx context.Context, jobID uuid.UUID) ([]domain.ImportJobItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ImportJobItem
	for _, item := range s.items {
		if item.JobID == jobID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubJobRepo) Stats(ctx context.Context, tenantID uuid.UUID) (domain.ImportJobStats, error) {
	return domain.ImportJobStats{}, errors.New("not implemented")
}

type stubTenantRepo struct {
	tenants map[uuid.UUID]domain.Tenant
}

func (s *stubTenantRepo) Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	if s.tenants == nil {
		s.tenants = make(map[uuid.UUID]domain.Tenant)
	}
	s.tenants[tenant.ID] = tenant
	return tenant, nil
}

func (s *stubTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Tenant, error) {
	tenant, ok := s.tenants[id]
	if !ok {
		return domain.Tenant{}, repository.ErrNotFound
	}
	return tenant, nil
}

func (s *stubTenantRepo) List(ctx context.Context) ([]domain.Tenant, error) {
	var out []domain.Tenant
	for _, tenant := range s.tenants {
		out = append(out, tenant)
	}
	return out, nil
}

type stubBlobStore struct {
	objects     map[string][]byte
	downloadErr error
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: make(map[string][]byte)}
}

func (s *stubBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.objects[key] = data
	return nil
}

func (s *stubBlobStore) Download(ctx context.Context, key string) ([]byte, error) {
	if s.downloadErr != nil {
		return nil, s.downloadErr
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

var _ repository.TenantRepository = (*stubTenantRepo)(nil)
var _ repository.ObjectiveRepository = (*stubObjectiveRepo)(nil)
var _ repository.InitiativeRepository = (*stubInitiativeRepo)(nil)
var _ repository.ActivityRepository = (*stubActivityRepo)(nil)
var _ repository.UserRepository = (*stubUserRepo)(nil)
var _ repository.LinkRepository = (*stubLinkRepo)(nil)
var _ repository.ImportJobRepository = (*stubJobRepo)(nil)
