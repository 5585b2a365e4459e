package models

import (
	"fmt"
	"sort"
	"strings"
)

// EpicStatus represents the lifecycle state of an epic
type EpicStatus string

const (
	EpicBacklog    EpicStatus = "backlog"
	EpicInProgress EpicStatus = "in-progress"
	EpicDone       EpicStatus = "done"
)

// StoryStatus represents the lifecycle state of a story
type StoryStatus string

const (
	StoryBacklog     StoryStatus = "backlog"
	StoryReadyForDev StoryStatus = "ready-for-dev"
	StoryInProgress  StoryStatus = "in-progress"
	StoryReview      StoryStatus = "review"
	StoryDone        StoryStatus = "done"
)

// StoryStatuses lists every story status in workflow order
var StoryStatuses = []StoryStatus{
	StoryBacklog,
	StoryReadyForDev,
	StoryInProgress,
	StoryReview,
	StoryDone,
}

// RetrospectiveStatus represents whether an epic retrospective happened.
// The empty value means no retrospective is tracked for the epic.
type RetrospectiveStatus string

const (
	RetrospectiveOptional RetrospectiveStatus = "optional"
	RetrospectiveDone     RetrospectiveStatus = "done"
)

// Document types recognised by the document classifier
const (
	DocTypePRD            = "prd"
	DocTypeArchitecture   = "architecture"
	DocTypeTechSpec       = "tech-spec"
	DocTypeUXDesign       = "ux-design"
	DocTypeProjectContext = "project-context"
	DocTypeOther          = "other"
)

// ParseEpicStatus converts a sprint-status value into an EpicStatus.
// Unknown values fall back to backlog.
func ParseEpicStatus(value string) EpicStatus {
	switch EpicStatus(normalizeStatus(value)) {
	case EpicInProgress:
		return EpicInProgress
	case EpicDone:
		return EpicDone
	default:
		return EpicBacklog
	}
}

// ParseStoryStatus converts a sprint-status value into a StoryStatus.
// Unknown values fall back to backlog.
func ParseStoryStatus(value string) StoryStatus {
	switch status := StoryStatus(normalizeStatus(value)); status {
	case StoryReadyForDev, StoryInProgress, StoryReview, StoryDone:
		return status
	default:
		return StoryBacklog
	}
}

// ParseRetrospectiveStatus maps "done" to RetrospectiveDone and anything else to optional
func ParseRetrospectiveStatus(value string) RetrospectiveStatus {
	if normalizeStatus(value) == string(RetrospectiveDone) {
		return RetrospectiveDone
	}
	return RetrospectiveOptional
}

func normalizeStatus(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// EpicKey returns the sprint-status key for an epic number
func EpicKey(number int) string {
	return fmt.Sprintf("epic-%d", number)
}

// StoryNumber formats the "<epic>.<story>" key of a story
func StoryNumber(epicNumber, storyNumber int) string {
	return fmt.Sprintf("%d.%d", epicNumber, storyNumber)
}

// Story represents a user story inside an epic
type Story struct {
	ID           string      `json:"id"`
	EpicNumber   int         `json:"epic_number"`
	Number       string      `json:"number"`
	Title        string      `json:"title"`
	UserType     string      `json:"user_type"`
	Capability   string      `json:"capability"`
	ValueBenefit string      `json:"value_benefit"`
	Status       StoryStatus `json:"status"`
	FilePath     string      `json:"file_path,omitempty"`
	CreatedAt    string      `json:"created_at"`
	UpdatedAt    string      `json:"updated_at"`
}

// Epic represents a project epic and the stories it owns
type Epic struct {
	ID            string              `json:"id"`
	Number        int                 `json:"number"`
	Title         string              `json:"title"`
	Goal          string              `json:"goal"`
	Stories       []Story             `json:"stories"`
	Status        EpicStatus          `json:"status"`
	Retrospective RetrospectiveStatus `json:"retrospective,omitempty"`
	FilePath      string              `json:"file_path,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

// Document represents a freeform markdown artifact
type Document struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	FilePath  string `json:"file_path"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// EpicSprintStatus is the normalized sprint-status record of one epic
type EpicSprintStatus struct {
	Status        EpicStatus             `json:"status"`
	Stories       map[string]StoryStatus `json:"stories"`
	Retrospective RetrospectiveStatus    `json:"retrospective,omitempty"`
}

// SprintStatus is the schema-independent view of sprint-status.yaml
type SprintStatus struct {
	Generated         string                      `json:"generated"`
	Project           string                      `json:"project"`
	ProjectKey        string                      `json:"project_key"`
	TrackingSystem    string                      `json:"tracking_system"`
	StoryLocation     string                      `json:"story_location"`
	DevelopmentStatus map[string]EpicSprintStatus `json:"development_status"`
}

// EpicState returns the status and retrospective recorded for an epic.
// Missing tables and missing epics yield backlog with no retrospective.
func (s *SprintStatus) EpicState(epicNumber int) (EpicStatus, RetrospectiveStatus) {
	if s == nil {
		return EpicBacklog, ""
	}
	entry, ok := s.DevelopmentStatus[EpicKey(epicNumber)]
	if !ok {
		return EpicBacklog, ""
	}
	return entry.Status, entry.Retrospective
}

// StoryState resolves a story status. Lookups try the story-file stem, then any key
// starting with "<epic>-<story>-", then the canonical "<epic>.<story>" key.
func (s *SprintStatus) StoryState(epicNumber, storyNumber int, fileStem string) StoryStatus {
	if s == nil {
		return StoryBacklog
	}
	entry, ok := s.DevelopmentStatus[EpicKey(epicNumber)]
	if !ok {
		return StoryBacklog
	}

	if fileStem != "" {
		if status, ok := entry.Stories[fileStem]; ok {
			return status
		}
	}

	prefix := fmt.Sprintf("%d-%d-", epicNumber, storyNumber)
	keys := make([]string, 0, len(entry.Stories))
	for key := range entry.Stories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			return entry.Stories[key]
		}
	}

	if status, ok := entry.Stories[StoryNumber(epicNumber, storyNumber)]; ok {
		return status
	}
	return StoryBacklog
}

// Project is the reconciled model of a BMAD project
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Path         string        `json:"path"`
	BmadDocsPath string        `json:"bmad_docs_path"`
	Description  string        `json:"description,omitempty"`
	CurrentPhase int           `json:"current_phase"`
	Epics        []Epic        `json:"epics"`
	Documents    []Document    `json:"documents"`
	SprintStatus *SprintStatus `json:"sprint_status"`
	LastActivity string        `json:"last_activity"`
	CreatedAt    string        `json:"created_at"`
}

// ProjectStats summarises progress across a project
type ProjectStats struct {
	TotalEpics         int            `json:"total_epics"`
	CompletedEpics     int            `json:"completed_epics"`
	TotalStories       int            `json:"total_stories"`
	StoriesByStatus    map[string]int `json:"stories_by_status"`
	ProgressPercentage int            `json:"progress_percentage"`
}
