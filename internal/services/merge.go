package services

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"bmad-board/internal/models"
)

// isEpicNewer reports whether candidate should replace existing. A parseable
// updated_at beats an unparseable one; equal or unparseable pairs keep existing.
func isEpicNewer(candidate, existing models.Epic) bool {
	candidateTime, candidateOK := models.ParseTimestamp(candidate.UpdatedAt)
	existingTime, existingOK := models.ParseTimestamp(existing.UpdatedAt)

	switch {
	case candidateOK && existingOK:
		return candidateTime.After(existingTime)
	case candidateOK:
		return true
	default:
		return false
	}
}

// MergeEpicsByNumber keeps one epic per number: the most recently updated,
// or the earliest in input order on a tie. The result is sorted by number.
func MergeEpicsByNumber(epics []models.Epic) []models.Epic {
	byNumber := make(map[int]int)
	result := make([]models.Epic, 0, len(epics))

	for _, epic := range epics {
		if index, exists := byNumber[epic.Number]; exists {
			if isEpicNewer(epic, result[index]) {
				result[index] = epic
			}
			continue
		}
		byNumber[epic.Number] = len(result)
		result = append(result, epic)
	}

	SortEpics(result)
	return result
}

// FillMissingEpics adds the epics from fallback whose numbers are absent from
// primary. Epics already in primary are never replaced.
func FillMissingEpics(primary, fallback []models.Epic) []models.Epic {
	present := make(map[int]bool, len(primary))
	result := make([]models.Epic, 0, len(primary)+len(fallback))
	for _, epic := range primary {
		present[epic.Number] = true
		result = append(result, epic)
	}

	for _, epic := range fallback {
		if present[epic.Number] {
			continue
		}
		present[epic.Number] = true
		result = append(result, epic)
	}

	SortEpics(result)
	return result
}

// MergeStories fills gaps in target with stories from source. An empty target
// takes source outright; otherwise only new story numbers are appended.
func MergeStories(target, source []models.Story) []models.Story {
	if len(target) == 0 {
		merged := append(make([]models.Story, 0, len(source)), source...)
		SortStories(merged)
		return merged
	}

	seen := make(map[string]bool, len(target))
	merged := append([]models.Story(nil), target...)
	for _, story := range target {
		seen[story.Number] = true
	}

	for _, story := range source {
		if seen[story.Number] {
			continue
		}
		seen[story.Number] = true
		merged = append(merged, story)
	}

	SortStories(merged)
	return merged
}

// AttachStoryFiles merges story-file groups into their epics. Groups with no
// matching epic produce a stub epic carrying the sprint-status state of that
// number and the time range of its stories.
func AttachStoryFiles(epics []models.Epic, storiesByEpic map[int][]models.Story, status *models.SprintStatus, now string) []models.Epic {
	byNumber := make(map[int]int, len(epics))
	for i, epic := range epics {
		byNumber[epic.Number] = i
	}

	numbers := make([]int, 0, len(storiesByEpic))
	for number := range storiesByEpic {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)

	for _, number := range numbers {
		stories := storiesByEpic[number]
		if index, exists := byNumber[number]; exists {
			epics[index].Stories = MergeStories(epics[index].Stories, stories)
			continue
		}

		epics = append(epics, stubEpic(number, stories, status, now))
		byNumber[number] = len(epics) - 1
	}

	SortEpics(epics)
	return epics
}

func stubEpic(number int, stories []models.Story, status *models.SprintStatus, now string) models.Epic {
	epicStatus, retrospective := status.EpicState(number)
	sorted := MergeStories(nil, stories)
	createdAt, updatedAt := storyTimes(sorted, now)

	return models.Epic{
		ID:            uuid.NewString(),
		Number:        number,
		Title:         fmt.Sprintf("Epic %d", number),
		Stories:       sorted,
		Status:        epicStatus,
		Retrospective: retrospective,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// storyTimes returns the earliest created_at and latest updated_at across
// stories, starting from the fallback time.
func storyTimes(stories []models.Story, fallback string) (string, string) {
	var earliest, latest activityRange
	earliest.addEarliest(fallback)
	latest.addLatest(fallback)

	for _, story := range stories {
		earliest.addEarliest(story.CreatedAt)
		latest.addLatest(story.UpdatedAt)
	}

	return earliest.formatOr(fallback), latest.formatOr(fallback)
}

// SortEpics orders epics by number
func SortEpics(epics []models.Epic) {
	sort.SliceStable(epics, func(i, j int) bool {
		return epics[i].Number < epics[j].Number
	})
}
