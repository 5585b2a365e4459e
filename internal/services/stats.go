package services

import "bmad-board/internal/models"

// ComputeStats summarises epic completion and story progress
func ComputeStats(project *models.Project) models.ProjectStats {
	stats := models.ProjectStats{
		TotalEpics:      len(project.Epics),
		StoriesByStatus: make(map[string]int, len(models.StoryStatuses)),
	}
	for _, status := range models.StoryStatuses {
		stats.StoriesByStatus[string(status)] = 0
	}

	for _, epic := range project.Epics {
		if epic.Status == models.EpicDone {
			stats.CompletedEpics++
		}
		for _, story := range epic.Stories {
			stats.TotalStories++
			stats.StoriesByStatus[string(story.Status)]++
		}
	}

	if stats.TotalStories > 0 {
		stats.ProgressPercentage = stats.StoriesByStatus[string(models.StoryDone)] * 100 / stats.TotalStories
	}

	return stats
}
