package services

import (
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zeebo/xxh3"
	"k8s.io/klog/v2"

	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
)

// ChangeHandler receives the coalesced change events of a watched project
type ChangeHandler func(models.ChangeEvent)

var treeRepo = repositories.NewArtifactRepository()

var watchedExtensions = map[string]bool{
	".md":   true,
	".yaml": true,
	".yml":  true,
}

// WatchService keeps one filesystem watch per project
type WatchService struct {
	debounce time.Duration
	handler  ChangeHandler

	mu      sync.Mutex
	watches map[string]*projectWatch
}

// NewWatchService creates a watch service that delivers at most one event per
// project per debounce window to handler.
func NewWatchService(debounce time.Duration, handler ChangeHandler) *WatchService {
	return &WatchService{
		debounce: debounce,
		handler:  handler,
		watches:  make(map[string]*projectWatch),
	}
}

// Start watches dir on behalf of projectID, replacing any existing watch for it
func (s *WatchService) Start(projectID, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to watch path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to watch path: not a directory: %s", dir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.watches[projectID]; ok {
		existing.close()
		delete(s.watches, projectID)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	watch := newProjectWatch(projectID, s.debounce, s.handler, watcher)
	watch.addTree(dir)
	s.watches[projectID] = watch
	go watch.run()

	klog.V(2).Infof("watching %s for project %s", dir, projectID)
	return nil
}

// Stop ends the watch of a project. Unknown projects are ignored.
func (s *WatchService) Stop(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if watch, ok := s.watches[projectID]; ok {
		watch.close()
		delete(s.watches, projectID)
		klog.V(2).Infof("stopped watching project %s", projectID)
	}
}

// StopAll ends every watch
func (s *WatchService) StopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for projectID, watch := range s.watches {
		watch.close()
		delete(s.watches, projectID)
	}
}

// Watching reports whether projectID currently has a watch
func (s *WatchService) Watching(projectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.watches[projectID]
	return ok
}

// projectWatch coalesces the events of one project with a trailing debounce
type projectWatch struct {
	projectID string
	debounce  time.Duration
	handler   ChangeHandler
	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	timer   *time.Timer
	pending *models.ChangeEvent
	hashes  map[string]uint64
}

func newProjectWatch(projectID string, debounce time.Duration, handler ChangeHandler, watcher *fsnotify.Watcher) *projectWatch {
	return &projectWatch{
		projectID: projectID,
		debounce:  debounce,
		handler:   handler,
		watcher:   watcher,
		done:      make(chan struct{}),
		hashes:    make(map[string]uint64),
	}
}

// addTree watches root and every directory below it
func (w *projectWatch) addTree(root string) {
	treeRepo.Walk(root, math.MaxInt, func(path string, entry fs.DirEntry) {
		if entry.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				klog.V(2).Infof("watch: cannot add %s: %v", path, err)
			}
		}
	})
}

func (w *projectWatch) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			klog.Errorf("watch error for project %s: %v", w.projectID, err)
		}
	}
}

func (w *projectWatch) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(event.Name)
			return
		}
	}

	if !watchedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	var kind string
	switch {
	case event.Has(fsnotify.Create):
		kind = models.ChangeCreate
		w.changed(event.Name)
	case event.Has(fsnotify.Write):
		if !w.changed(event.Name) {
			klog.V(4).Infof("watch: unchanged content %s", event.Name)
			return
		}
		kind = models.ChangeModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		kind = models.ChangeRemove
		w.forget(event.Name)
	default:
		return
	}

	w.schedule(models.ChangeEvent{ProjectID: w.projectID, Path: event.Name, Kind: kind})
}

// changed records the content hash of path and reports whether it differs
// from the last recorded hash. Unreadable files always count as changed.
func (w *projectWatch) changed(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	sum := xxh3.Hash(data)

	w.mu.Lock()
	defer w.mu.Unlock()
	previous, seen := w.hashes[path]
	w.hashes[path] = sum
	return !seen || previous != sum
}

func (w *projectWatch) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.hashes, path)
}

// schedule keeps the latest event and restarts the debounce window
func (w *projectWatch) schedule(event models.ChangeEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	w.pending = &event
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
		return
	}
	w.timer.Reset(w.debounce)
}

func (w *projectWatch) flush() {
	w.mu.Lock()
	event := w.pending
	w.pending = nil
	w.mu.Unlock()

	if event == nil {
		return
	}
	select {
	case <-w.done:
		return
	default:
	}

	klog.V(4).Infof("watch: %s %s (project %s)", event.Kind, event.Path, event.ProjectID)
	w.handler(*event)
}

func (w *projectWatch) close() {
	w.closeOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.pending = nil
		w.mu.Unlock()

		if err := w.watcher.Close(); err != nil {
			klog.V(2).Infof("watch: close for project %s: %v", w.projectID, err)
		}
	})
}
