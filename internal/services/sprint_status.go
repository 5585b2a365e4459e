package services

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"

	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
)

const (
	sprintStatusFile     = "sprint-status.yaml"
	developmentStatusKey = "development_status"
	defaultTracking      = "file-based"
)

var (
	epicKeyPattern          = regexp.MustCompile(`^epic-(\d+)$`)
	retrospectiveKeyPattern = regexp.MustCompile(`^epic-(\d+)-retrospective$`)
)

// SprintStatusCandidates lists the locations checked for the sprint-status file, in order
func SprintStatusCandidates(docsDir string) []string {
	return []string{
		filepath.Join(docsDir, sprintStatusFile),
		filepath.Join(docsDir, implementationDir, sprintStatusFile),
		filepath.Join(docsDir, storiesDir, sprintStatusFile),
	}
}

// SprintStatusService locates and normalizes the sprint-status file
type SprintStatusService struct {
	repo *repositories.ArtifactRepository
}

// NewSprintStatusService creates a new sprint-status service
func NewSprintStatusService(repo *repositories.ArtifactRepository) *SprintStatusService {
	return &SprintStatusService{repo: repo}
}

// Load reads the first sprint-status file found under docsDir. It returns the
// normalized table and the file's modification time, or nil and "" when no
// status file exists. Read and YAML failures are fatal.
func (s *SprintStatusService) Load(docsDir, now string) (*models.SprintStatus, string, error) {
	path, ok := s.repo.FirstExisting(SprintStatusCandidates(docsDir)...)
	if !ok {
		klog.V(2).Infof("no sprint-status file under %s", docsDir)
		return nil, "", nil
	}

	statusTime := s.repo.ModTime(path, now)

	content, err := s.repo.ReadFile(path)
	if err != nil {
		return nil, "", ioError(path, err)
	}

	status, err := NormalizeSprintStatus([]byte(content))
	if err != nil {
		return nil, "", yamlError(path, err)
	}

	klog.V(2).Infof("loaded sprint status from %s (%d epics)", path, len(status.DevelopmentStatus))
	return status, statusTime, nil
}

// NormalizeSprintStatus parses a sprint-status document in either the flat or
// the nested-per-epic shape into one canonical table. Entries are read from the
// development_status mapping, or from the document root when that key is absent.
func NormalizeSprintStatus(data []byte) (*models.SprintStatus, error) {
	var root yaml.MapSlice
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	status := &models.SprintStatus{
		Generated:         scalarString(lookup(root, "generated")),
		Project:           scalarString(lookup(root, "project")),
		ProjectKey:        scalarString(lookup(root, "project_key")),
		TrackingSystem:    scalarString(lookup(root, "tracking_system")),
		StoryLocation:     scalarString(lookup(root, "story_location")),
		DevelopmentStatus: make(map[string]models.EpicSprintStatus),
	}
	if status.TrackingSystem == "" {
		status.TrackingSystem = defaultTracking
	}

	entries := root
	if dev := lookup(root, developmentStatusKey); dev != nil {
		entries = asMapSlice(dev)
	}

	table := newStatusTable()
	for _, item := range entries {
		key, ok := statusKey(item.Key)
		if !ok {
			continue
		}

		if nested := asMapSlice(item.Value); nested != nil {
			if number, ok := epicKeyNumber(key); ok {
				table.addNested(number, nested)
			}
			continue
		}

		table.addFlat(key, scalarString(item.Value))
	}

	table.build(status.DevelopmentStatus)
	return status, nil
}

// statusTable accumulates epic statuses, retrospectives and story statuses
// before they are folded into the canonical per-epic records.
type statusTable struct {
	statuses       map[int]models.EpicStatus
	retrospectives map[int]models.RetrospectiveStatus
	stories        map[int]map[string]models.StoryStatus
}

func newStatusTable() *statusTable {
	return &statusTable{
		statuses:       make(map[int]models.EpicStatus),
		retrospectives: make(map[int]models.RetrospectiveStatus),
		stories:        make(map[int]map[string]models.StoryStatus),
	}
}

func (t *statusTable) addFlat(key, value string) {
	if number, ok := epicKeyNumber(key); ok {
		t.statuses[number] = models.ParseEpicStatus(value)
		return
	}

	if match := retrospectiveKeyPattern.FindStringSubmatch(key); match != nil {
		if number, err := strconv.Atoi(match[1]); err == nil && number > 0 {
			t.retrospectives[number] = models.ParseRetrospectiveStatus(value)
		}
		return
	}

	leading, _, _ := strings.Cut(key, "-")
	leading, _, _ = strings.Cut(leading, ".")
	number, err := strconv.Atoi(leading)
	if err != nil || number <= 0 {
		klog.V(4).Infof("sprint status: ignoring key %q", key)
		return
	}
	t.addStory(number, key, value)
}

func (t *statusTable) addNested(number int, entry yaml.MapSlice) {
	t.statuses[number] = models.ParseEpicStatus(scalarString(lookup(entry, "status")))

	if retro := lookup(entry, "retrospective"); retro != nil {
		t.retrospectives[number] = models.ParseRetrospectiveStatus(scalarString(retro))
	}

	if _, ok := t.stories[number]; !ok {
		t.stories[number] = make(map[string]models.StoryStatus)
	}
	for _, item := range entry {
		key, ok := statusKey(item.Key)
		if !ok || key == "status" || key == "retrospective" {
			continue
		}
		if asMapSlice(item.Value) != nil {
			continue
		}
		t.addStory(number, key, scalarString(item.Value))
	}
}

func (t *statusTable) addStory(epicNumber int, key, value string) {
	stories, ok := t.stories[epicNumber]
	if !ok {
		stories = make(map[string]models.StoryStatus)
		t.stories[epicNumber] = stories
	}
	stories[key] = models.ParseStoryStatus(value)
}

// build materializes every epic with an explicit status or at least one story
func (t *statusTable) build(out map[string]models.EpicSprintStatus) {
	for number, status := range t.statuses {
		out[models.EpicKey(number)] = models.EpicSprintStatus{
			Status:        status,
			Stories:       t.storiesFor(number),
			Retrospective: t.retrospectives[number],
		}
	}

	for number := range t.stories {
		if _, ok := t.statuses[number]; ok {
			continue
		}
		out[models.EpicKey(number)] = models.EpicSprintStatus{
			Status:        models.EpicBacklog,
			Stories:       t.storiesFor(number),
			Retrospective: t.retrospectives[number],
		}
	}
}

func (t *statusTable) storiesFor(number int) map[string]models.StoryStatus {
	if stories, ok := t.stories[number]; ok {
		return stories
	}
	return make(map[string]models.StoryStatus)
}

func epicKeyNumber(key string) (int, bool) {
	match := epicKeyPattern.FindStringSubmatch(key)
	if match == nil {
		return 0, false
	}
	number, err := strconv.Atoi(match[1])
	if err != nil || number <= 0 {
		return 0, false
	}
	return number, true
}

func lookup(slice yaml.MapSlice, key string) interface{} {
	for _, item := range slice {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value
		}
	}
	return nil
}

func asMapSlice(value interface{}) yaml.MapSlice {
	switch v := value.(type) {
	case yaml.MapSlice:
		return v
	case map[interface{}]interface{}:
		slice := make(yaml.MapSlice, 0, len(v))
		for key, val := range v {
			slice = append(slice, yaml.MapItem{Key: key, Value: val})
		}
		return slice
	default:
		return nil
	}
}

// statusKey renders a mapping key as text. Unquoted keys such as 1.1 decode as
// numbers and are kept in their printed form.
func statusKey(key interface{}) (string, bool) {
	text := strings.TrimSpace(scalarString(key))
	if text == "" {
		klog.V(4).Infof("sprint status: ignoring key %v", key)
		return "", false
	}
	return text, true
}

func scalarString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		return models.FormatTimestamp(v)
	case yaml.MapSlice, map[interface{}]interface{}, []interface{}:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
