package services

import "path/filepath"

// Conventional locations inside a project and its artifacts directory
const (
	bmadDocsDir       = "bmad-docs"
	dotBmadDir        = ".bmad"
	docsDir           = "docs"
	planningDir       = "planning-artifacts"
	solutioningDir    = "solutioning-artifacts"
	epicsDir          = "epics"
	implementationDir = "implementation-artifacts"
	storiesDir        = "stories"
	epicsFile         = "epics.md"
)

// DocsDirCandidates lists the artifacts directories checked under a project root, in order
func DocsDirCandidates(projectPath string) []string {
	return []string{
		filepath.Join(projectPath, bmadDocsDir),
		filepath.Join(projectPath, dotBmadDir),
		filepath.Join(projectPath, docsDir),
	}
}

// EpicsFileCandidates lists the locations of the consolidated epics document
func EpicsFileCandidates(docsDir string) []string {
	return []string{
		filepath.Join(docsDir, epicsFile),
		filepath.Join(docsDir, planningDir, epicsFile),
		filepath.Join(docsDir, epicsDir, epicsFile),
	}
}

// artifactDirs are the directories that hold well-known documents and loose epic files
func artifactDirs(docsDir string) []string {
	return []string{
		docsDir,
		filepath.Join(docsDir, planningDir),
		filepath.Join(docsDir, solutioningDir),
	}
}
