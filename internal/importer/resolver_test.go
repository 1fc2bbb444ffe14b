package importer

import (
	"context"
	"testing"

	"github.com/stratix/import-engine/internal/domain"

	"github.com/google/uuid"
)

func newTestResolver() (*Resolver, *stubObjectiveRepo, *stubInitiativeRepo, *stubActivityRepo, *stubUserRepo) {
	objectives := &stubObjectiveRepo{}
	initiatives := &stubInitiativeRepo{}
	activities := &stubActivityRepo{}
	users := &stubUserRepo{}
	return NewResolver(objectives, initiatives, activities, users), objectives, initiatives, activities, users
}

func TestResolveObjectiveCreatesOnMiss(t *testing.T) {
	resolver, objectives, _, _, _ := newTestResolver()
	tenantID := uuid.New()
	cache := NewResolutionCache()

	id, action, err := resolver.ResolveObjective(context.Background(), tenantID, ObjectiveFields{Title: "Grow Revenue"}, cache)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if action != domain.ActionCreate {
		t.Fatalf("expected create, got %s", action)
	}
	if objectives.creates != 1 || objectives.updates != 0 {
		t.Fatalf("unexpected repo calls: creates=%d updates=%d", objectives.creates, objectives.updates)
	}
	if id == uuid.Nil {
		t.Fatalf("expected a resolved id")
	}
}

func TestResolveObjectiveMatchesCaseInsensitively(t *testing.T) {
	resolver, objectives, _, _, _ := newTestResolver()
	tenantID := uuid.New()

	existing := domain.NewObjective(tenantID, "Grow Revenue")
	existing.Progress = 10
	objectives.items = append(objectives.items, existing)

	cache := NewResolutionCache()
	id, action, err := resolver.ResolveObjective(context.Background(), tenantID, ObjectiveFields{
		Title:    "  GROW REVENUE  ",
		Progress: 55,
	}, cache)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if action != domain.ActionUpdate {
		t.Fatalf("expected update, got %s", action)
	}
	if id != existing.ID {
		t.Fatalf("expected match against existing objective")
	}
	if objectives.creates != 0 || objectives.updates != 1 {
		t.Fatalf("unexpected repo calls: creates=%d updates=%d", objectives.creates, objectives.updates)
	}
	// Stored casing stays with the first occurrence.
	if objectives.items[0].Title != "Grow Revenue" {
		t.Fatalf("title casing changed to %q", objectives.items[0].Title)
	}
	if objectives.items[0].Progress != 55 {
		t.Fatalf("mutable fields not applied, progress=%d", objectives.items[0].Progress)
	}
}

func TestResolveObjectiveTrimsTitleOnCreate(t *testing.T) {
	resolver, objectives, _, _, _ := newTestResolver()
	tenantID := uuid.New()

	id, action, err := resolver.ResolveObjective(context.Background(), tenantID, ObjectiveFields{Title: "  Grow Revenue  "}, NewResolutionCache())
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if action != domain.ActionCreate {
		t.Fatalf("expected create, got %s", action)
	}
	if objectives.items[0].Title != "Grow Revenue" {
		t.Fatalf("padded title stored verbatim: %q", objectives.items[0].Title)
	}

	// A later run with the clean title must match, not duplicate.
	matched, action, err := resolver.ResolveObjective(context.Background(), tenantID, ObjectiveFields{Title: "Grow Revenue"}, NewResolutionCache())
	if err != nil {
		t.Fatalf("second resolve returned error: %v", err)
	}
	if action != domain.ActionUpdate || matched != id {
		t.Fatalf("expected update of the trimmed record, got %s / %s", action, matched)
	}
	if objectives.creates != 1 {
		t.Fatalf("expected a single create, got %d", objectives.creates)
	}
}

func TestResolveObjectiveCacheHitSkips(t *testing.T) {
	resolver, objectives, _, _, _ := newTestResolver()
	tenantID := uuid.New()
	cache := NewResolutionCache()

	first, _, err := resolver.ResolveObjective(context.Background(), tenantID, ObjectiveFields{Title: "Grow Revenue"}, cache)
	if err != nil {
		t.Fatalf("first resolve returned error: %v", err)
	}

	second, action, err := resolver.ResolveObjective(context.Background(), tenantID, ObjectiveFields{Title: "grow revenue"}, cache)
	if err != nil {
		t.Fatalf("second resolve returned error: %v", err)
	}
	if action != domain.ActionSkip {
		t.Fatalf("expected skip on cache hit, got %s", action)
	}
	if first != second {
		t.Fatalf("cache returned a different id")
	}
	if objectives.creates != 1 || objectives.updates != 0 {
		t.Fatalf("cache hit should not touch the store: creates=%d updates=%d", objectives.creates, objectives.updates)
	}
}

func TestResolveInitiativeScopedToObjective(t *testing.T) {
	resolver, _, initiatives, _, _ := newTestResolver()
	tenantID := uuid.New()
	objectiveA := uuid.New()
	objectiveB := uuid.New()
	cache := NewResolutionCache()

	idA, actionA, err := resolver.ResolveInitiative(context.Background(), tenantID, objectiveA, "Objective A", InitiativeFields{Title: "Quick Wins"}, cache)
	if err != nil {
		t.Fatalf("resolve A returned error: %v", err)
	}
	idB, actionB, err := resolver.ResolveInitiative(context.Background(), tenantID, objectiveB, "Objective B", InitiativeFields{Title: "Quick Wins"}, cache)
	if err != nil {
		t.Fatalf("resolve B returned error: %v", err)
	}

	// Same title under different objectives is two records, not a match.
	if actionA != domain.ActionCreate || actionB != domain.ActionCreate {
		t.Fatalf("expected two creates, got %s and %s", actionA, actionB)
	}
	if idA == idB {
		t.Fatalf("initiatives under different objectives collapsed into one")
	}
	if initiatives.creates != 2 {
		t.Fatalf("expected 2 creates, got %d", initiatives.creates)
	}
}

func TestResolveActivityAssignee(t *testing.T) {
	resolver, _, _, activities, users := newTestResolver()
	tenantID := uuid.New()
	initiativeID := uuid.New()

	rep := domain.UserProfile{ID: uuid.New(), TenantID: tenantID, Email: "rep@example.com"}
	users.users = map[string]domain.UserProfile{"rep@example.com": rep}

	cache := NewResolutionCache()
	_, _, err := resolver.ResolveActivity(context.Background(), tenantID, initiativeID, ActivityFields{
		Title:         "Call prospects",
		AssigneeEmail: "REP@example.com",
	}, cache)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if activities.items[0].AssignedTo == nil || *activities.items[0].AssignedTo != rep.ID {
		t.Fatalf("assignee not resolved: %+v", activities.items[0].AssignedTo)
	}

	// Unknown assignee leaves the activity unassigned without failing.
	_, _, err = resolver.ResolveActivity(context.Background(), tenantID, initiativeID, ActivityFields{
		Title:         "Send recap",
		AssigneeEmail: "ghost@example.com",
	}, cache)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if activities.items[1].AssignedTo != nil {
		t.Fatalf("expected unassigned activity for unknown email")
	}

	// Misses are cached too; a repeated unknown email costs one lookup.
	before := users.calls
	_, _, err = resolver.ResolveActivity(context.Background(), tenantID, initiativeID, ActivityFields{
		Title:         "Follow up",
		AssigneeEmail: "ghost@example.com",
	}, cache)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if users.calls != before {
		t.Fatalf("expected cached assignee miss, lookups went %d -> %d", before, users.calls)
	}
}

func TestResolveActivityUpdatesExisting(t *testing.T) {
	resolver, _, _, activities, _ := newTestResolver()
	tenantID := uuid.New()
	initiativeID := uuid.New()

	existing := domain.NewActivity(initiativeID, "Call prospects")
	activities.items = append(activities.items, existing)

	cache := NewResolutionCache()
	id, action, err := resolver.ResolveActivity(context.Background(), tenantID, initiativeID, ActivityFields{
		Title:       "call PROSPECTS",
		IsCompleted: true,
	}, cache)
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if action != domain.ActionUpdate || id != existing.ID {
		t.Fatalf("expected update of existing activity, got %s / %s", action, id)
	}
	if !activities.items[0].IsCompleted {
		t.Fatalf("completion flag not applied")
	}
}
