package services

import (
	"time"

	"bmad-board/internal/models"
)

// Project phases
const (
	PhaseAnalysis       = 1
	PhasePlanning       = 2
	PhaseSolutioning    = 3
	PhaseImplementation = 4
)

// DeterminePhase classifies project maturity. Active or finished epics win
// over architecture documents, which win over a PRD.
func DeterminePhase(documents []models.Document, epics []models.Epic, status *models.SprintStatus) int {
	if status != nil {
		for _, entry := range status.DevelopmentStatus {
			if isStarted(entry.Status) {
				return PhaseImplementation
			}
		}
	}

	for _, epic := range epics {
		if isStarted(epic.Status) {
			return PhaseImplementation
		}
	}

	if hasDocumentType(documents, models.DocTypeArchitecture, models.DocTypeTechSpec) {
		return PhaseSolutioning
	}

	if hasDocumentType(documents, models.DocTypePRD) {
		return PhasePlanning
	}

	return PhaseAnalysis
}

// PhaseName returns the display name of a phase
func PhaseName(phase int) string {
	switch phase {
	case PhaseImplementation:
		return "Implementation"
	case PhaseSolutioning:
		return "Solutioning"
	case PhasePlanning:
		return "Planning"
	default:
		return "Analysis"
	}
}

func isStarted(status models.EpicStatus) bool {
	return status == models.EpicInProgress || status == models.EpicDone
}

func hasDocumentType(documents []models.Document, types ...string) bool {
	for _, doc := range documents {
		for _, docType := range types {
			if doc.Type == docType {
				return true
			}
		}
	}
	return false
}

// LatestActivity returns the newest timestamp among documents, epics,
// stories, the sprint-status file and now. Unparseable values are ignored.
func LatestActivity(documents []models.Document, epics []models.Epic, statusTime, now string) string {
	var latest activityRange
	visitTimestamps(documents, epics, statusTime, now, latest.addLatest)
	return latest.formatOr(now)
}

// EarliestActivity returns the oldest timestamp among documents, epics,
// stories, the sprint-status file and now. Unparseable values are ignored.
func EarliestActivity(documents []models.Document, epics []models.Epic, statusTime, now string) string {
	var earliest activityRange
	visitTimestamps(documents, epics, statusTime, now, earliest.addEarliest)
	return earliest.formatOr(now)
}

func visitTimestamps(documents []models.Document, epics []models.Epic, statusTime, now string, visit func(string)) {
	visit(now)
	for _, doc := range documents {
		visit(doc.CreatedAt)
		visit(doc.UpdatedAt)
	}
	for _, epic := range epics {
		visit(epic.CreatedAt)
		visit(epic.UpdatedAt)
		for _, story := range epic.Stories {
			visit(story.CreatedAt)
			visit(story.UpdatedAt)
		}
	}
	if statusTime != "" {
		visit(statusTime)
	}
}

// activityRange tracks an extreme timestamp
type activityRange struct {
	value time.Time
	set   bool
}

func (r *activityRange) addLatest(value string) {
	t, ok := models.ParseTimestamp(value)
	if !ok {
		return
	}
	if !r.set || t.After(r.value) {
		r.value, r.set = t, true
	}
}

func (r *activityRange) addEarliest(value string) {
	t, ok := models.ParseTimestamp(value)
	if !ok {
		return
	}
	if !r.set || t.Before(r.value) {
		r.value, r.set = t, true
	}
}

func (r *activityRange) formatOr(fallback string) string {
	if !r.set {
		return fallback
	}
	return models.FormatTimestamp(r.value)
}
