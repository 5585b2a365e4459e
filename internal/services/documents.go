package services

import (
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"bmad-board/internal/extract"
	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
)

// wellKnownDocument pairs a conventional filename with its document type
type wellKnownDocument struct {
	filename string
	docType  string
}

var wellKnownDocuments = []wellKnownDocument{
	{"prd.md", models.DocTypePRD},
	{"product-requirements.md", models.DocTypePRD},
	{"architecture.md", models.DocTypeArchitecture},
	{"tech-spec.md", models.DocTypeTechSpec},
	{"ux-design.md", models.DocTypeUXDesign},
	{"project-context.md", models.DocTypeProjectContext},
}

func isWellKnownDocument(filename string) bool {
	for _, doc := range wellKnownDocuments {
		if doc.filename == filename {
			return true
		}
	}
	return false
}

// DocumentService classifies the freeform markdown documents of a project
type DocumentService struct {
	repo     *repositories.ArtifactRepository
	maxDepth int
}

// NewDocumentService creates a new document service walking at most maxDepth levels
func NewDocumentService(repo *repositories.ArtifactRepository, maxDepth int) *DocumentService {
	return &DocumentService{repo: repo, maxDepth: maxDepth}
}

// Collect returns the well-known documents found in the conventional
// locations followed by every other markdown file in the tree. Each path
// appears at most once; unreadable files are skipped.
func (s *DocumentService) Collect(docsDir, now string) []models.Document {
	var documents []models.Document
	seen := make(map[string]bool)

	add := func(path, docType string) {
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		doc, err := s.load(path, docType, now)
		if err != nil {
			klog.V(2).Infof("skipping document %s: %v", path, err)
			return
		}
		seen[key] = true
		documents = append(documents, doc)
	}

	for _, dir := range artifactDirs(docsDir) {
		for _, known := range wellKnownDocuments {
			path := filepath.Join(dir, known.filename)
			if s.repo.IsFile(path) {
				add(path, known.docType)
			}
		}
	}

	s.repo.Walk(docsDir, s.maxDepth, func(path string, entry fs.DirEntry) {
		if entry.IsDir() || !isOtherDocument(entry.Name()) {
			return
		}
		add(path, models.DocTypeOther)
	})

	return documents
}

// isOtherDocument reports whether a markdown file found by the tree walk is a
// freeform document rather than a well-known, epic or story artifact.
func isOtherDocument(filename string) bool {
	switch {
	case !extract.IsMarkdown(filename):
		return false
	case isWellKnownDocument(filename), filename == epicsFile:
		return false
	case extract.IsEpicFile(filename), extract.IsStoryFile(filename):
		return false
	default:
		return true
	}
}

func (s *DocumentService) load(path, docType, now string) (models.Document, error) {
	content, err := s.repo.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}

	title, ok := extract.Title(content)
	if !ok {
		title = extract.Stem(filepath.Base(path))
	}

	fileTime := s.repo.ModTime(path, now)
	return models.Document{
		ID:        uuid.NewString(),
		Type:      docType,
		Title:     title,
		Content:   content,
		FilePath:  path,
		CreatedAt: fileTime,
		UpdatedAt: fileTime,
	}, nil
}
