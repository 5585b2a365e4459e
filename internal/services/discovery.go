package services

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"bmad-board/internal/repositories"
)

// markerDepth bounds the search for status and epics files under docs/
const markerDepth = 3

// DiscoveryService finds BMAD projects and artifacts directories on disk
type DiscoveryService struct {
	repo *repositories.ArtifactRepository
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(repo *repositories.ArtifactRepository) *DiscoveryService {
	return &DiscoveryService{repo: repo}
}

// IsBmadProject reports whether path holds a bmad-docs or .bmad directory, or a
// docs directory containing a sprint-status or epics file.
func (s *DiscoveryService) IsBmadProject(path string) bool {
	if s.repo.Exists(filepath.Join(path, bmadDocsDir)) || s.repo.Exists(filepath.Join(path, dotBmadDir)) {
		return true
	}

	docs := filepath.Join(path, docsDir)
	if !s.repo.IsDir(docs) {
		return false
	}

	found := false
	s.repo.Walk(docs, markerDepth, func(_ string, entry fs.DirEntry) {
		if name := entry.Name(); name == sprintStatusFile || name == epicsFile {
			found = true
		}
	})
	return found
}

// FindDocsDir returns the first conventional artifacts directory of a project
func (s *DiscoveryService) FindDocsDir(projectPath string) (string, bool) {
	return s.repo.FirstExisting(DocsDirCandidates(projectPath)...)
}

// ScanForProjects returns every directory within maxDepth of root that is a
// BMAD project, in walk order.
func (s *DiscoveryService) ScanForProjects(root string, maxDepth int) ([]string, error) {
	if !s.repo.Exists(root) {
		return nil, fmt.Errorf("path does not exist: %s", root)
	}

	projects := []string{}
	s.repo.Walk(root, maxDepth, func(path string, entry fs.DirEntry) {
		if entry.IsDir() && s.IsBmadProject(path) {
			projects = append(projects, path)
		}
	})

	klog.V(2).Infof("scanned %s to depth %d: %d projects", root, maxDepth, len(projects))
	return projects, nil
}

// FindDocsCandidates lists possible artifacts directories at projectPath and
// one level below it, without duplicates.
func (s *DiscoveryService) FindDocsCandidates(projectPath string) []string {
	candidates := []string{}
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			candidates = append(candidates, path)
		}
	}

	for _, name := range []string{bmadDocsDir, dotBmadDir} {
		if path := filepath.Join(projectPath, name); s.repo.IsDir(path) {
			add(path)
		}
	}

	subdirs, err := s.repo.ListDirs(projectPath)
	if err != nil {
		klog.V(2).Infof("candidates: %v", err)
		return candidates
	}

	for _, dir := range subdirs {
		for _, name := range []string{bmadDocsDir, dotBmadDir} {
			if path := filepath.Join(dir, name); s.repo.IsDir(path) {
				add(path)
			}
		}

		if strings.Contains(filepath.Base(dir), "bmad") && s.looksLikeDocsDir(dir) {
			add(dir)
		}
	}

	return candidates
}

func (s *DiscoveryService) looksLikeDocsDir(dir string) bool {
	_, ok := s.repo.FirstExisting(
		filepath.Join(dir, "prd.md"),
		filepath.Join(dir, epicsDir),
		filepath.Join(dir, sprintStatusFile),
		filepath.Join(dir, "architecture.md"),
	)
	return ok
}
