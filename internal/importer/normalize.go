package importer

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/stratix/import-engine/internal/domain"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// FieldError is a field-level validation failure for one row.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ObjectiveFields is the typed objective slice of a normalized row.
type ObjectiveFields struct {
	Title       string
	Description string
	AreaName    string
	Quarter     string
	Priority    domain.Priority
	Status      domain.ObjectiveStatus
	Progress    int
	StartDate   *time.Time
	EndDate     *time.Time
	TargetDate  *time.Time
	Metrics     []any
}

// InitiativeFields is the typed initiative slice of a normalized row.
type InitiativeFields struct {
	Title          string
	Description    string
	Status         domain.InitiativeStatus
	Progress       int
	StartDate      *time.Time
	DueDate        *time.Time
	CompletionDate *time.Time
}

// ActivityFields is the typed activity slice of a normalized row.
type ActivityFields struct {
	Title         string
	Description   string
	IsCompleted   bool
	AssigneeEmail string
}

// NormalizedRow is a row that passed validation, typed and ready for
// resolution. Initiative and Activity are nil when the row does not
// carry them. Warnings record lenient coercions (an unrecognized enum
// value replaced by its default) without failing the row.
type NormalizedRow struct {
	Objective  ObjectiveFields
	Initiative *InitiativeFields
	Activity   *ActivityFields
	Warnings   []string
}

// NormalizeRow validates and coerces one raw row. It returns either a
// normalized row or a non-empty list of field errors, never both.
// Coercion is deliberately lenient: malformed cells degrade to defaults
// or absence; only missing required fields and inverted date ranges
// reject the row. defaultMetrics is substituted when the metrics cell
// holds unparsable JSON.
func NormalizeRow(raw RawRow, defaultMetrics []any) (NormalizedRow, []FieldError) {
	var (
		row  NormalizedRow
		errs []FieldError
	)
	get := func(key string) string { return strings.TrimSpace(raw.Values[key]) }

	objectiveTitle := get("objective_title")
	if objectiveTitle == "" {
		errs = append(errs, FieldError{Field: "objective_title", Message: "required field is missing"})
	}

	initiativeTitle := get("initiative_title")
	activityTitle := get("activity_title")
	if initiativeTitle == "" {
		if hasAnyValue(raw.Values, "initiative_description", "initiative_start_date", "initiative_due_date",
			"initiative_completion_date", "initiative_status", "initiative_progress") {
			errs = append(errs, FieldError{Field: "initiative_title", Message: "required field is missing"})
		}
		if activityTitle != "" {
			// An activity cannot exist without a parent initiative; the
			// row is rejected rather than creating an orphan.
			errs = append(errs, FieldError{Field: "initiative_title", Message: "required for rows carrying an activity"})
		}
	}

	priority, warning := coercePriority(get("objective_priority"))
	if warning != "" {
		row.Warnings = append(row.Warnings, warning)
	}
	objectiveStatus, warning := coerceObjectiveStatus(get("objective_status"))
	if warning != "" {
		row.Warnings = append(row.Warnings, warning)
	}

	row.Objective = ObjectiveFields{
		Title:       objectiveTitle,
		Description: get("objective_description"),
		AreaName:    get("area_name"),
		Quarter:     get("objective_quarter"),
		Priority:    priority,
		Status:      objectiveStatus,
		Progress:    clampProgress(get("objective_progress")),
		StartDate:   parseDate(get("objective_start_date")),
		EndDate:     parseDate(get("objective_end_date")),
		TargetDate:  parseDate(get("objective_target_date")),
		Metrics:     parseMetrics(get("objective_metrics"), defaultMetrics),
	}
	if datesInverted(row.Objective.StartDate, row.Objective.EndDate) {
		errs = append(errs, FieldError{Field: "objective_end_date", Message: "end date precedes start date"})
	}

	if initiativeTitle != "" {
		initiativeStatus, warning := coerceInitiativeStatus(get("initiative_status"))
		if warning != "" {
			row.Warnings = append(row.Warnings, warning)
		}

		initiative := InitiativeFields{
			Title:          initiativeTitle,
			Description:    get("initiative_description"),
			Status:         initiativeStatus,
			Progress:       clampProgress(get("initiative_progress")),
			StartDate:      parseDate(get("initiative_start_date")),
			DueDate:        parseDate(get("initiative_due_date")),
			CompletionDate: parseDate(get("initiative_completion_date")),
		}
		if datesInverted(initiative.StartDate, initiative.DueDate) {
			errs = append(errs, FieldError{Field: "initiative_due_date", Message: "due date precedes start date"})
		}
		row.Initiative = &initiative
	}

	if activityTitle != "" {
		row.Activity = &ActivityFields{
			Title:         activityTitle,
			Description:   get("activity_description"),
			IsCompleted:   parseBool(get("activity_is_completed")),
			AssigneeEmail: get("activity_assigned_to_email"),
		}
	}

	if len(errs) > 0 {
		return NormalizedRow{}, errs
	}
	return row, nil
}

func hasAnyValue(values map[string]string, keys ...string) bool {
	for _, key := range keys {
		if strings.TrimSpace(values[key]) != "" {
			return true
		}
	}
	return false
}

// coercePriority maps the raw cell to a priority, defaulting to medium.
// A present-but-unrecognized value coerces to the default and surfaces
// as a warning on the row.
func coercePriority(raw string) (domain.Priority, string) {
	if raw == "" {
		return domain.PriorityMedium, ""
	}
	priority := domain.Priority(strings.ToLower(raw))
	if !priority.IsValid() {
		return domain.PriorityMedium, fmt.Sprintf("objective_priority %q coerced to %q", raw, domain.PriorityMedium)
	}
	return priority, ""
}

func coerceObjectiveStatus(raw string) (domain.ObjectiveStatus, string) {
	if raw == "" {
		return domain.ObjectiveStatusPlanning, ""
	}
	status := domain.ObjectiveStatus(normalizeEnumToken(raw))
	if !status.IsValid() {
		return domain.ObjectiveStatusPlanning, fmt.Sprintf("objective_status %q coerced to %q", raw, domain.ObjectiveStatusPlanning)
	}
	return status, ""
}

func coerceInitiativeStatus(raw string) (domain.InitiativeStatus, string) {
	if raw == "" {
		return domain.InitiativeStatusPlanning, ""
	}
	status := domain.InitiativeStatus(normalizeEnumToken(raw))
	if !status.IsValid() {
		return domain.InitiativeStatusPlanning, fmt.Sprintf("initiative_status %q coerced to %q", raw, domain.InitiativeStatusPlanning)
	}
	return status, ""
}

func normalizeEnumToken(raw string) string {
	token := strings.ToLower(strings.TrimSpace(raw))
	token = strings.ReplaceAll(token, " ", "_")
	return strings.ReplaceAll(token, "-", "_")
}

// clampProgress coerces the raw cell into [0,100]. Non-numeric input
// becomes 0.
func clampProgress(raw string) int {
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	progress := int(value)
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// parseDate parses permissively and normalizes to calendar-date
// granularity. An unparsable date becomes absent rather than an error.
func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}

func datesInverted(start, end *time.Time) bool {
	return start != nil && end != nil && end.Before(*start)
}

// parseBool accepts common truthy tokens case-insensitively.
func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}

// parseMetrics decodes the JSON-shaped metrics cell, falling back to
// the supplied default when the payload is absent or malformed.
func parseMetrics(raw string, fallback []any) []any {
	if fallback == nil {
		fallback = []any{}
	}
	if raw == "" {
		return fallback
	}
	var metrics []any
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return fallback
	}
	return metrics
}
