package services

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"bmad-board/internal/extract"
	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
)

// EpicService extracts epics from per-epic files and consolidated epics documents
type EpicService struct {
	repo *repositories.ArtifactRepository
}

// NewEpicService creates a new epic service
func NewEpicService(repo *repositories.ArtifactRepository) *EpicService {
	return &EpicService{repo: repo}
}

// Collect returns the epics of a project sorted by number. Per-epic files
// from the epics directory and loose epic files are merged first; the
// consolidated epics documents only contribute numbers those files lack.
func (s *EpicService) Collect(docsDir string, status *models.SprintStatus, now string) ([]models.Epic, error) {
	var fileEpics []models.Epic

	epicsPath := filepath.Join(docsDir, epicsDir)
	if s.repo.IsDir(epicsPath) {
		files, err := s.repo.ListFiles(epicsPath)
		if err != nil {
			return nil, ioError(epicsPath, err)
		}
		for _, path := range files {
			if !extract.IsMarkdown(filepath.Base(path)) {
				continue
			}
			if epic, ok := s.parseEpicFile(path, status, now); ok {
				fileEpics = append(fileEpics, epic)
			}
		}
	}

	for _, dir := range artifactDirs(docsDir) {
		if dir != docsDir && !s.repo.IsDir(dir) {
			continue
		}
		files, err := s.repo.ListFiles(dir)
		if err != nil {
			return nil, ioError(dir, err)
		}
		for _, path := range files {
			if !extract.IsLooseEpicFile(filepath.Base(path)) {
				continue
			}
			if epic, ok := s.parseEpicFile(path, status, now); ok {
				fileEpics = append(fileEpics, epic)
			}
		}
	}

	var documentEpics []models.Epic
	for _, path := range EpicsFileCandidates(docsDir) {
		if !s.repo.IsFile(path) {
			continue
		}
		content, err := s.repo.ReadFile(path)
		if err != nil {
			klog.V(2).Infof("skipping epics document %s: %v", path, err)
			continue
		}
		documentEpics = append(documentEpics, s.parseEpicsDocument(path, content, status, now)...)
	}

	return FillMissingEpics(MergeEpicsByNumber(fileEpics), MergeEpicsByNumber(documentEpics)), nil
}

// parseEpicFile builds an epic from a single-epic markdown file. Files whose
// name carries no epic number, or that cannot be read, are skipped.
func (s *EpicService) parseEpicFile(path string, status *models.SprintStatus, now string) (models.Epic, bool) {
	number, ok := extract.EpicFileNumber(filepath.Base(path))
	if !ok {
		return models.Epic{}, false
	}

	content, err := s.repo.ReadFile(path)
	if err != nil {
		klog.V(2).Infof("skipping epic file %s: %v", path, err)
		return models.Epic{}, false
	}

	title, ok := extract.Title(content)
	if !ok {
		title = fmt.Sprintf("Epic %d", number)
	}

	fileTime := s.repo.ModTime(path, now)
	epic := newEpic(number, title, extract.Section(content, "Goal", "Objective"), path, fileTime, status)
	epic.Stories = EmbeddedStories(content, number, status, fileTime)
	return epic, true
}

// parseEpicsDocument splits a consolidated epics document into one epic per
// "Epic <n>: <title>" heading.
func (s *EpicService) parseEpicsDocument(path, content string, status *models.SprintStatus, now string) []models.Epic {
	fileTime := s.repo.ModTime(path, now)

	var epics []models.Epic
	for _, section := range extract.EpicSections(content) {
		epic := newEpic(section.Number, section.Title, extract.Section(section.Body, "Goal", "User Outcome"), path, fileTime, status)
		epic.Stories = EmbeddedStories(section.Body, section.Number, status, fileTime)
		epics = append(epics, epic)
	}
	return epics
}

func newEpic(number int, title, goal, path, fileTime string, status *models.SprintStatus) models.Epic {
	epicStatus, retrospective := status.EpicState(number)
	return models.Epic{
		ID:            uuid.NewString(),
		Number:        number,
		Title:         title,
		Goal:          goal,
		Status:        epicStatus,
		Retrospective: retrospective,
		FilePath:      path,
		CreatedAt:     fileTime,
		UpdatedAt:     fileTime,
	}
}
