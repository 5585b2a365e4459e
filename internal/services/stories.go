package services

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"bmad-board/internal/extract"
	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
)

// StoryService extracts stories from standalone story files and from epic text
type StoryService struct {
	repo     *repositories.ArtifactRepository
	maxDepth int
}

// NewStoryService creates a new story service walking at most maxDepth levels
func NewStoryService(repo *repositories.ArtifactRepository, maxDepth int) *StoryService {
	return &StoryService{repo: repo, maxDepth: maxDepth}
}

// CollectStoryFiles finds every "<epic>-<story>-<slug>.md" file under docsDir
// and groups the parsed stories by epic number. Each group is sorted by story
// number. Unreadable files are skipped.
func (s *StoryService) CollectStoryFiles(docsDir string, status *models.SprintStatus, now string) map[int][]models.Story {
	byEpic := make(map[int][]models.Story)

	s.repo.Walk(docsDir, s.maxDepth, func(path string, entry fs.DirEntry) {
		if !entry.Type().IsRegular() {
			return
		}
		epicNumber, storyNumber, ok := extract.StoryFileNumbers(entry.Name())
		if !ok {
			return
		}

		story, err := s.parseStoryFile(path, epicNumber, storyNumber, status, now)
		if err != nil {
			klog.V(2).Infof("skipping story file %s: %v", path, err)
			return
		}
		byEpic[epicNumber] = append(byEpic[epicNumber], story)
	})

	for epicNumber, stories := range byEpic {
		byEpic[epicNumber] = DedupeStories(stories)
	}

	return byEpic
}

func (s *StoryService) parseStoryFile(path string, epicNumber, storyNumber int, status *models.SprintStatus, now string) (models.Story, error) {
	content, err := s.repo.ReadFile(path)
	if err != nil {
		return models.Story{}, err
	}

	stem := extract.Stem(filepath.Base(path))
	title, ok := extract.Title(content)
	if !ok {
		title = extract.StoryTitleFromStem(stem, epicNumber, storyNumber)
	}

	userStory, _ := extract.ParseUserStory(content)
	fileTime := s.repo.ModTime(path, now)

	return models.Story{
		ID:           uuid.NewString(),
		EpicNumber:   epicNumber,
		Number:       models.StoryNumber(epicNumber, storyNumber),
		Title:        title,
		UserType:     userStory.Actor,
		Capability:   userStory.Capability,
		ValueBenefit: userStory.Benefit,
		Status:       status.StoryState(epicNumber, storyNumber, stem),
		FilePath:     path,
		CreatedAt:    fileTime,
		UpdatedAt:    fileTime,
	}, nil
}

// EmbeddedStories extracts "### Story <e>.<s>: <title>" blocks belonging to
// epicNumber from an epic's section text. Headings for other epics are
// ignored; a repeated story number keeps its first occurrence.
func EmbeddedStories(content string, epicNumber int, status *models.SprintStatus, sourceTime string) []models.Story {
	var stories []models.Story

	for _, heading := range extract.StoryHeadings(content) {
		if heading.EpicNumber != epicNumber {
			continue
		}

		title := heading.Title
		if title == "" {
			title = fmt.Sprintf("Story %d.%d", epicNumber, heading.StoryNumber)
		}
		userStory, _ := extract.ParseUserStory(heading.Body)

		stories = append(stories, models.Story{
			ID:           uuid.NewString(),
			EpicNumber:   epicNumber,
			Number:       models.StoryNumber(epicNumber, heading.StoryNumber),
			Title:        title,
			UserType:     userStory.Actor,
			Capability:   userStory.Capability,
			ValueBenefit: userStory.Benefit,
			Status:       status.StoryState(epicNumber, heading.StoryNumber, ""),
			CreatedAt:    sourceTime,
			UpdatedAt:    sourceTime,
		})
	}

	return DedupeStories(stories)
}

// DedupeStories drops stories whose number was already seen and sorts the rest
func DedupeStories(stories []models.Story) []models.Story {
	seen := make(map[string]bool, len(stories))
	result := make([]models.Story, 0, len(stories))
	for _, story := range stories {
		if seen[story.Number] {
			continue
		}
		seen[story.Number] = true
		result = append(result, story)
	}
	SortStories(result)
	return result
}

// SortStories orders stories numerically by "<epic>.<story>"
func SortStories(stories []models.Story) {
	sort.SliceStable(stories, func(i, j int) bool {
		return storyLess(stories[i].Number, stories[j].Number)
	})
}

func storyLess(a, b string) bool {
	aEpic, aStory, aOK := splitStoryNumber(a)
	bEpic, bStory, bOK := splitStoryNumber(b)
	if !aOK || !bOK {
		return a < b
	}
	if aEpic != bEpic {
		return aEpic < bEpic
	}
	return aStory < bStory
}

func splitStoryNumber(number string) (int, int, bool) {
	epicPart, storyPart, ok := strings.Cut(number, ".")
	if !ok {
		return 0, 0, false
	}
	epicNumber, err := strconv.Atoi(epicPart)
	if err != nil {
		return 0, 0, false
	}
	storyNumber, err := strconv.Atoi(storyPart)
	if err != nil {
		return 0, 0, false
	}
	return epicNumber, storyNumber, true
}
