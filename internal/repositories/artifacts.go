package repositories

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
	"k8s.io/klog/v2"

	"bmad-board/internal/models"
)

// ArtifactRepository handles filesystem access to BMAD artifact trees
type ArtifactRepository struct{}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository() *ArtifactRepository {
	return &ArtifactRepository{}
}

// Exists reports whether path exists
func (r *ArtifactRepository) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory
func (r *ArtifactRepository) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists and is a regular file
func (r *ArtifactRepository) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FirstExisting returns the first path in candidates that exists
func (r *ArtifactRepository) FirstExisting(candidates ...string) (string, bool) {
	for _, candidate := range candidates {
		if r.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// ReadFile reads the entire contents of a file
func (r *ArtifactRepository) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// ModTime returns the modification time of path as a model timestamp, or
// fallback when the file cannot be inspected.
func (r *ArtifactRepository) ModTime(path, fallback string) string {
	info, err := os.Stat(path)
	if err != nil {
		return fallback
	}
	return models.FormatTimestamp(info.ModTime())
}

// ListFiles returns the regular files directly inside dir, sorted by name
func (r *ArtifactRepository) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// ListDirs returns the directories directly inside dir, sorted by name
func (r *ArtifactRepository) ListDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(dir, entry.Name()))
		}
	}
	return dirs, nil
}

// Walk visits root and every entry at most maxDepth levels below it, in
// lexical order. Entries that cannot be read are skipped.
func (r *ArtifactRepository) Walk(root string, maxDepth int, visit func(path string, entry fs.DirEntry)) {
	root = filepath.Clean(root)
	// WalkDir does not descend into a symlinked root, so walk its target and
	// report paths under the name the caller used.
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		resolved = root
	}

	_ = filepath.WalkDir(resolved, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			klog.V(4).Infof("walk: skipping %s: %v", path, err)
			if entry != nil && entry.IsDir() && path != resolved {
				return fs.SkipDir
			}
			return nil
		}

		depth := pathDepth(resolved, path)
		if depth > maxDepth {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		visit(rebase(resolved, root, path), entry)

		if entry.IsDir() && depth == maxDepth {
			return fs.SkipDir
		}
		return nil
	})
}

// WalkFiles returns every regular file within maxDepth of root
func (r *ArtifactRepository) WalkFiles(root string, maxDepth int) []string {
	var files []string
	r.Walk(root, maxDepth, func(path string, entry fs.DirEntry) {
		if entry.Type().IsRegular() {
			files = append(files, path)
		}
	})
	sort.Strings(files)
	return files
}

// ReadDocument returns the raw content of a document on disk
func (r *ArtifactRepository) ReadDocument(path string) (string, error) {
	if !r.IsFile(path) {
		return "", fmt.Errorf("document not found: %s: %w", path, fs.ErrNotExist)
	}
	return r.ReadFile(path)
}

// WriteDocument replaces the content of a document atomically
func (r *ArtifactRepository) WriteDocument(path, content string) error {
	if r.IsDir(path) {
		return fmt.Errorf("cannot write document over directory: %s", path)
	}
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// IsNotExist reports whether err signals a missing file
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

// rebase maps path under resolved back onto root
func rebase(resolved, root, path string) string {
	if resolved == root {
		return path
	}
	rel, err := filepath.Rel(resolved, path)
	if err != nil || rel == "." {
		return root
	}
	return filepath.Join(root, rel)
}
