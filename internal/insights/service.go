package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/stratix/import-engine/internal/domain"
	"github.com/stratix/import-engine/internal/repository"

	"github.com/google/uuid"
)

// Overview aggregates a tenant's planning hierarchy into the numbers
// the dashboard renders.
type Overview struct {
	TenantID             uuid.UUID      `json:"tenantId"`
	ObjectiveCount       int            `json:"objectiveCount"`
	InitiativeCount      int            `json:"initiativeCount"`
	AverageProgress      float64        `json:"averageProgress"`
	ObjectivesByStatus   map[string]int `json:"objectivesByStatus"`
	ObjectivesByPriority map[string]int `json:"objectivesByPriority"`
	Areas                []string       `json:"areas"`
}

// AreaKPIs aggregates the objectives of one named area.
type AreaKPIs struct {
	AreaName        string         `json:"areaName"`
	ObjectiveCount  int            `json:"objectiveCount"`
	AverageProgress float64        `json:"averageProgress"`
	CompletedCount  int            `json:"completedCount"`
	ByPriority      map[string]int `json:"byPriority"`
	Objectives      []AreaObjective `json:"objectives"`
}

// AreaObjective is one objective row inside an area rollup.
type AreaObjective struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	Progress        int       `json:"progress"`
	InitiativeCount int64     `json:"initiativeCount"`
}

// Service computes read-only rollups over the hierarchy repositories.
type Service struct {
	objectives  repository.ObjectiveRepository
	initiatives repository.InitiativeRepository
	links       repository.LinkRepository
}

// NewService creates the insights service over the injected repositories.
func NewService(
	objectives repository.ObjectiveRepository,
	initiatives repository.InitiativeRepository,
	links repository.LinkRepository,
) *Service {
	return &Service{objectives: objectives, initiatives: initiatives, links: links}
}

// Overview computes the tenant-wide rollup.
func (s *Service) Overview(ctx context.Context, tenantID uuid.UUID) (Overview, error) {
	objectives, err := s.objectives.ListByTenant(ctx, tenantID)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to list objectives: %w", err)
	}
	initiatives, err := s.initiatives.ListByTenant(ctx, tenantID)
	if err != nil {
		return Overview{}, fmt.Errorf("failed to list initiatives: %w", err)
	}

	overview := Overview{
		TenantID:             tenantID,
		ObjectiveCount:       len(objectives),
		InitiativeCount:      len(initiatives),
		ObjectivesByStatus:   make(map[string]int),
		ObjectivesByPriority: make(map[string]int),
	}

	seenAreas := make(map[string]bool)
	progressTotal := 0
	for _, objective := range objectives {
		overview.ObjectivesByStatus[string(objective.Status)]++
		overview.ObjectivesByPriority[string(objective.Priority)]++
		progressTotal += objective.Progress

		area := strings.TrimSpace(objective.AreaName)
		if area != "" && !seenAreas[strings.ToLower(area)] {
			seenAreas[strings.ToLower(area)] = true
			overview.Areas = append(overview.Areas, area)
		}
	}
	if len(objectives) > 0 {
		overview.AverageProgress = float64(progressTotal) / float64(len(objectives))
	}
	return overview, nil
}

// Area computes KPIs for one area name. The name matches
// case-insensitively, the same way import matching treats titles.
func (s *Service) Area(ctx context.Context, tenantID uuid.UUID, areaName string) (AreaKPIs, error) {
	objectives, err := s.objectives.ListByTenant(ctx, tenantID)
	if err != nil {
		return AreaKPIs{}, fmt.Errorf("failed to list objectives: %w", err)
	}

	kpis := AreaKPIs{
		AreaName:   areaName,
		ByPriority: make(map[string]int),
	}

	want := strings.ToLower(strings.TrimSpace(areaName))
	progressTotal := 0
	for _, objective := range objectives {
		if strings.ToLower(strings.TrimSpace(objective.AreaName)) != want {
			continue
		}

		kpis.ObjectiveCount++
		kpis.ByPriority[string(objective.Priority)]++
		progressTotal += objective.Progress
		if objective.Status == domain.ObjectiveStatusCompleted {
			kpis.CompletedCount++
		}

		linkCount, err := s.links.CountByObjective(ctx, objective.ID)
		if err != nil {
			return AreaKPIs{}, fmt.Errorf("failed to count initiatives for objective %s: %w", objective.ID, err)
		}
		kpis.Objectives = append(kpis.Objectives, AreaObjective{
			ID:              objective.ID,
			Title:           objective.Title,
			Status:          string(objective.Status),
			Progress:        objective.Progress,
			InitiativeCount: linkCount,
		})
	}
	if kpis.ObjectiveCount > 0 {
		kpis.AverageProgress = float64(progressTotal) / float64(kpis.ObjectiveCount)
	}
	return kpis, nil
}
