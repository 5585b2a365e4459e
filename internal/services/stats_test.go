package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bmad-board/internal/models"
)

func TestComputeStats(t *testing.T) {
	project := &models.Project{Epics: []models.Epic{
		{Number: 1, Status: models.EpicDone, Stories: []models.Story{
			{Status: models.StoryDone}, {Status: models.StoryDone},
		}},
		{Number: 2, Status: models.EpicInProgress, Stories: []models.Story{
			{Status: models.StoryReview}, {Status: models.StoryBacklog}, {Status: models.StoryDone},
			{Status: models.StoryInProgress},
		}},
	}}

	stats := ComputeStats(project)
	assert.Equal(t, 2, stats.TotalEpics)
	assert.Equal(t, 1, stats.CompletedEpics)
	assert.Equal(t, 6, stats.TotalStories)
	assert.Equal(t, 50, stats.ProgressPercentage)
	assert.Equal(t, 3, stats.StoriesByStatus["done"])
	assert.Equal(t, 1, stats.StoriesByStatus["review"])
	assert.Equal(t, 0, stats.StoriesByStatus["ready-for-dev"])
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(&models.Project{})
	assert.Zero(t, stats.TotalStories)
	assert.Zero(t, stats.ProgressPercentage)
	assert.Len(t, stats.StoriesByStatus, len(models.StoryStatuses))
}
