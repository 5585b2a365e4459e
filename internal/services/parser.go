package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"bmad-board/internal/config"
	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
)

const unknownProjectName = "Unknown Project"

// ParserService reconciles the artifacts of a project into one project model
type ParserService struct {
	config       *config.Config
	repo         *repositories.ArtifactRepository
	sprintStatus *SprintStatusService
	documents    *DocumentService
	epics        *EpicService
	stories      *StoryService
}

// NewParserService creates a new parser service
func NewParserService(cfg *config.Config) *ParserService {
	repo := repositories.NewArtifactRepository()
	return &ParserService{
		config:       cfg,
		repo:         repo,
		sprintStatus: NewSprintStatusService(repo),
		documents:    NewDocumentService(repo, cfg.Parser.DocumentDepth),
		epics:        NewEpicService(repo),
		stories:      NewStoryService(repo, cfg.Parser.StoryDepth),
	}
}

// ParseProject parses the project rooted at projectPath. A non-empty
// docsOverride is used as the artifacts directory instead of the
// conventional locations.
func (s *ParserService) ParseProject(ctx context.Context, projectPath, docsOverride string) (*models.Project, error) {
	return s.ParseProjectAt(ctx, projectPath, docsOverride, time.Now())
}

// ParseProjectAt parses a project using now as the fallback timestamp
func (s *ParserService) ParseProjectAt(ctx context.Context, projectPath, docsOverride string, now time.Time) (*models.Project, error) {
	docsDir, err := s.resolveDocsDir(projectPath, docsOverride)
	if err != nil {
		return nil, err
	}

	nowStamp := models.FormatTimestamp(now)
	klog.V(2).Infof("parsing project %s (artifacts: %s)", projectPath, docsDir)

	status, statusTime, err := s.sprintStatus.Load(docsDir, nowStamp)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	documents := s.documents.Collect(docsDir, nowStamp)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	epics, err := s.epics.Collect(docsDir, status, nowStamp)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	storiesByEpic := s.stories.CollectStoryFiles(docsDir, status, nowStamp)
	epics = AttachStoryFiles(epics, storiesByEpic, status, nowStamp)

	project := &models.Project{
		ID:           uuid.NewString(),
		Name:         projectName(projectPath),
		Path:         projectPath,
		BmadDocsPath: docsDir,
		CurrentPhase: DeterminePhase(documents, epics, status),
		Epics:        normalizeEpics(epics),
		Documents:    documents,
		SprintStatus: status,
		LastActivity: LatestActivity(documents, epics, statusTime, nowStamp),
		CreatedAt:    EarliestActivity(documents, epics, statusTime, nowStamp),
	}
	if project.Documents == nil {
		project.Documents = []models.Document{}
	}

	klog.V(2).Infof("parsed project %s: %d epics, %d documents, phase %d",
		project.Name, len(project.Epics), len(project.Documents), project.CurrentPhase)
	return project, nil
}

// resolveDocsDir returns the override when it exists, else the first conventional artifacts directory
func (s *ParserService) resolveDocsDir(projectPath, docsOverride string) (string, error) {
	if docsOverride != "" {
		if !s.repo.Exists(docsOverride) {
			return "", structureError("custom BMAD docs directory does not exist: %s", docsOverride)
		}
		return docsOverride, nil
	}

	docsDir, ok := s.repo.FirstExisting(DocsDirCandidates(projectPath)...)
	if !ok {
		return "", structureError("no bmad-docs directory found in %s", projectPath)
	}
	return docsDir, nil
}

func projectName(projectPath string) string {
	name := filepath.Base(filepath.Clean(projectPath))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return unknownProjectName
	}
	return name
}

func normalizeEpics(epics []models.Epic) []models.Epic {
	if epics == nil {
		return []models.Epic{}
	}
	for i := range epics {
		if epics[i].Stories == nil {
			epics[i].Stories = []models.Story{}
		}
	}
	return epics
}
