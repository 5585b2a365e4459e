package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmad-board/internal/models"
)

const flatStatus = `generated: "2025-01-15"
project: Demo
project_key: DEMO
story_location: stories
development_status:
  epic-1: in-progress
  1-1-setup: done
  1-2-login: review
  epic-1-retrospective: optional
  epic-2: done
  epic-2-retrospective: done
  2-1-billing: ready-for-dev
  3-1-orphan: in-progress
`

const nestedStatus = `generated: "2025-01-15"
project: Demo
project_key: DEMO
story_location: stories
development_status:
  epic-1:
    status: in-progress
    retrospective: optional
    1-1-setup: done
    1-2-login: review
  epic-2:
    status: done
    retrospective: done
    2-1-billing: ready-for-dev
  epic-3:
    status: backlog
    3-1-orphan: in-progress
`

func TestNormalizeSprintStatus_FlatEqualsNested(t *testing.T) {
	flat, err := NormalizeSprintStatus([]byte(flatStatus))
	require.NoError(t, err)
	nested, err := NormalizeSprintStatus([]byte(nestedStatus))
	require.NoError(t, err)

	assert.Equal(t, flat, nested)

	epic1 := flat.DevelopmentStatus["epic-1"]
	assert.Equal(t, models.EpicInProgress, epic1.Status)
	assert.Equal(t, models.RetrospectiveOptional, epic1.Retrospective)
	assert.Equal(t, models.StoryDone, epic1.Stories["1-1-setup"])
	assert.Equal(t, models.StoryReview, epic1.Stories["1-2-login"])

	assert.Equal(t, models.RetrospectiveDone, flat.DevelopmentStatus["epic-2"].Retrospective)
	assert.Equal(t, models.EpicBacklog, flat.DevelopmentStatus["epic-3"].Status)
	assert.Equal(t, models.StoryInProgress, flat.DevelopmentStatus["epic-3"].Stories["3-1-orphan"])
}

func TestNormalizeSprintStatus_Metadata(t *testing.T) {
	status, err := NormalizeSprintStatus([]byte(flatStatus))
	require.NoError(t, err)

	assert.Equal(t, "2025-01-15", status.Generated)
	assert.Equal(t, "Demo", status.Project)
	assert.Equal(t, "DEMO", status.ProjectKey)
	assert.Equal(t, "stories", status.StoryLocation)
	assert.Equal(t, "file-based", status.TrackingSystem)
}

func TestNormalizeSprintStatus_TopLevelFlat(t *testing.T) {
	status, err := NormalizeSprintStatus([]byte(`{"epic-1": "in-progress", "1-1-setup": "done"}`))
	require.NoError(t, err)

	require.Len(t, status.DevelopmentStatus, 1)
	epic := status.DevelopmentStatus["epic-1"]
	assert.Equal(t, models.EpicInProgress, epic.Status)
	assert.Equal(t, map[string]models.StoryStatus{"1-1-setup": models.StoryDone}, epic.Stories)
	assert.Equal(t, models.RetrospectiveStatus(""), epic.Retrospective)
}

func TestNormalizeSprintStatus_NumericStoryKeys(t *testing.T) {
	nested, err := NormalizeSprintStatus([]byte("development_status:\n  epic-1:\n    status: in-progress\n    1.1: done\n    1.2: review\n"))
	require.NoError(t, err)

	epic := nested.DevelopmentStatus["epic-1"]
	assert.Equal(t, models.StoryDone, epic.Stories["1.1"])
	assert.Equal(t, models.StoryDone, nested.StoryState(1, 1, ""))
	assert.Equal(t, models.StoryReview, nested.StoryState(1, 2, ""))

	flat, err := NormalizeSprintStatus([]byte("development_status:\n  epic-2: in-progress\n  2.1: ready-for-dev\n"))
	require.NoError(t, err)
	assert.Equal(t, models.StoryReadyForDev, flat.StoryState(2, 1, ""))
}

func TestNormalizeSprintStatus_UnknownValuesDefault(t *testing.T) {
	status, err := NormalizeSprintStatus([]byte("development_status:\n  epic-4: Someday\n  4-1-x: blocked\n  epic-4-retrospective: maybe\n"))
	require.NoError(t, err)

	epic := status.DevelopmentStatus["epic-4"]
	assert.Equal(t, models.EpicBacklog, epic.Status)
	assert.Equal(t, models.StoryBacklog, epic.Stories["4-1-x"])
	assert.Equal(t, models.RetrospectiveOptional, epic.Retrospective)
}

func TestNormalizeSprintStatus_Empty(t *testing.T) {
	status, err := NormalizeSprintStatus(nil)
	require.NoError(t, err)
	assert.Empty(t, status.DevelopmentStatus)
	assert.Equal(t, "file-based", status.TrackingSystem)
}

func TestNormalizeSprintStatus_Invalid(t *testing.T) {
	_, err := NormalizeSprintStatus([]byte("development_status: [unclosed"))
	assert.Error(t, err)
}

func TestSprintStatusService_Load(t *testing.T) {
	docs := t.TempDir()
	service := NewSprintStatusService(newTestRepo())

	status, statusTime, err := service.Load(docs, "2025-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.Nil(t, status)
	assert.Empty(t, statusTime)

	path := writeFile(t, docs, "implementation-artifacts/sprint-status.yaml", flatStatus)
	touch(t, path, fixtureNow.Add(-time.Hour))

	status, statusTime, err = service.Load(docs, "2025-06-01T12:00:00Z")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.FormatTimestamp(fixtureNow.Add(-time.Hour)), statusTime)
}

func TestSprintStatusService_LoadPrefersRoot(t *testing.T) {
	docs := t.TempDir()
	writeFile(t, docs, "stories/sprint-status.yaml", "development_status:\n  epic-9: done\n")
	writeFile(t, docs, "sprint-status.yaml", "development_status:\n  epic-1: done\n")

	status, _, err := NewSprintStatusService(newTestRepo()).Load(docs, "")
	require.NoError(t, err)
	assert.Contains(t, status.DevelopmentStatus, "epic-1")
	assert.NotContains(t, status.DevelopmentStatus, "epic-9")
}

func TestSprintStatusService_LoadYAMLErrorIsFatal(t *testing.T) {
	docs := t.TempDir()
	writeFile(t, docs, "sprint-status.yaml", "development_status:\n  epic-1: [broken\n")

	_, _, err := NewSprintStatusService(newTestRepo()).Load(docs, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrYAML))
	assert.Contains(t, err.Error(), "sprint-status.yaml")
}
