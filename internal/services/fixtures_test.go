package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bmad-board/internal/config"
	"bmad-board/internal/repositories"
)

var fixtureNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// writeFile creates root/rel with content, creating parent directories
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// touch sets the modification time of path
func touch(t *testing.T, path string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func newTestRepo() *repositories.ArtifactRepository {
	return repositories.NewArtifactRepository()
}

func newTestParser() *ParserService {
	return NewParserService(config.Default())
}
