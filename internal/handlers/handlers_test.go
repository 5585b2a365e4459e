package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmad-board/internal/config"
	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
	"bmad-board/internal/services"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newProjectRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	repo := repositories.NewArtifactRepository()
	handler := NewProjectHandler(cfg, services.NewParserService(cfg), services.NewDiscoveryService(repo))

	r := gin.New()
	r.GET("/projects/scan", handler.Scan)
	r.GET("/projects/detect", handler.Detect)
	r.GET("/projects/candidates", handler.Candidates)
	r.POST("/projects/parse", handler.Parse)
	r.POST("/projects/stats", handler.Stats)
	return r
}

func doJSON(r http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestProjectHandler_Parse(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bmad-docs/prd.md", "# PRD\n")
	writeFile(t, root, "bmad-docs/sprint-status.yaml", "development_status:\n  epic-1: in-progress\n  1-1-setup: done\n")
	writeFile(t, root, "bmad-docs/stories/1-1-setup.md", "# Setup\n")

	w := doJSON(newProjectRouter(), http.MethodPost, "/projects/parse", models.ParseRequest{ProjectPath: root})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var project models.Project
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &project))
	assert.Equal(t, filepath.Base(root), project.Name)
	assert.Equal(t, 4, project.CurrentPhase)
	require.Len(t, project.Epics, 1)
	require.Len(t, project.Epics[0].Stories, 1)
	assert.Equal(t, models.StoryDone, project.Epics[0].Stories[0].Status)
}

func TestProjectHandler_ParseErrors(t *testing.T) {
	r := newProjectRouter()

	w := doJSON(r, http.MethodPost, "/projects/parse", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/projects/parse", models.ParseRequest{ProjectPath: filepath.Join(t.TempDir(), "missing")})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPost, "/projects/parse", models.ParseRequest{ProjectPath: t.TempDir()})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decodeError(t, w), "no bmad-docs directory")

	broken := t.TempDir()
	writeFile(t, broken, "bmad-docs/sprint-status.yaml", "development_status: [oops\n")
	w = doJSON(r, http.MethodPost, "/projects/parse", models.ParseRequest{ProjectPath: broken})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestProjectHandler_Stats(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bmad-docs/sprint-status.yaml", "development_status:\n  epic-1: done\n  1-1-a: done\n  1-2-b: review\n")
	writeFile(t, root, "bmad-docs/stories/1-1-a.md", "")
	writeFile(t, root, "bmad-docs/stories/1-2-b.md", "")

	w := doJSON(newProjectRouter(), http.MethodPost, "/projects/stats", models.ParseRequest{ProjectPath: root})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats models.ProjectStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalEpics)
	assert.Equal(t, 1, stats.CompletedEpics)
	assert.Equal(t, 2, stats.TotalStories)
	assert.Equal(t, 50, stats.ProgressPercentage)
}

func TestProjectHandler_Discovery(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "alpha", "bmad-docs"), 0755))
	r := newProjectRouter()

	w := doJSON(r, http.MethodGet, "/projects/scan?root="+root+"&depth=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var scan struct {
		Projects []string `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scan))
	assert.Equal(t, []string{filepath.Join(root, "alpha")}, scan.Projects)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/projects/scan", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/projects/scan?root="+root+"&depth=x", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/projects/scan?root="+filepath.Join(root, "nope"), nil).Code)

	w = doJSON(r, http.MethodGet, "/projects/detect?path="+filepath.Join(root, "alpha"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detect struct {
		IsBmadProject bool   `json:"is_bmad_project"`
		BmadDocsPath  string `json:"bmad_docs_path"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detect))
	assert.True(t, detect.IsBmadProject)
	assert.Equal(t, filepath.Join(root, "alpha", "bmad-docs"), detect.BmadDocsPath)

	w = doJSON(r, http.MethodGet, "/projects/candidates?path="+filepath.Join(root, "alpha"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var candidates struct {
		Candidates []string `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &candidates))
	assert.Equal(t, []string{filepath.Join(root, "alpha", "bmad-docs")}, candidates.Candidates)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/projects/detect", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/projects/candidates", nil).Code)
}

func TestDocumentHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDocumentHandler(repositories.NewArtifactRepository())
	r := gin.New()
	r.GET("/documents", handler.Get)
	r.PUT("/documents", handler.Update)

	root := t.TempDir()
	path := filepath.Join(root, "prd.md")

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/documents", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/documents?path="+path, nil).Code)

	w := doJSON(r, http.MethodPut, "/documents", models.DocumentWriteRequest{Path: path, Content: "# PRD\n"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/documents?path="+path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var doc models.DocumentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "# PRD\n", doc.Content)

	missingDir := filepath.Join(root, "missing", "prd.md")
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodPut, "/documents", models.DocumentWriteRequest{Path: missingDir}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPut, "/documents", models.DocumentWriteRequest{Path: root}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPut, "/documents", map[string]string{}).Code)
}

func TestWatchHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	watcher := services.NewWatchService(20*time.Millisecond, func(models.ChangeEvent) {})
	defer watcher.StopAll()

	handler := NewWatchHandler(watcher)
	r := gin.New()
	r.POST("/watch", handler.Start)
	r.DELETE("/watch", handler.StopAll)
	r.DELETE("/watch/:id", handler.Stop)

	dir := t.TempDir()
	w := doJSON(r, http.MethodPost, "/watch", models.WatchRequest{ProjectID: "p1", BmadDocsPath: dir})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, watcher.Watching("p1"))

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodPost, "/watch",
		models.WatchRequest{ProjectID: "p2", BmadDocsPath: filepath.Join(dir, "missing")}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/watch", map[string]string{"project_id": "p3"}).Code)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/watch/p1", nil).Code)
	assert.False(t, watcher.Watching("p1"))

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/watch", models.WatchRequest{ProjectID: "p4", BmadDocsPath: dir}).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/watch", nil).Code)
	assert.False(t, watcher.Watching("p4"))
}

func TestEventHub(t *testing.T) {
	hub := NewEventHub()
	first, unsubscribeFirst := hub.Subscribe()
	second, unsubscribeSecond := hub.Subscribe()
	assert.Equal(t, 2, hub.Subscribers())

	event := models.ChangeEvent{ProjectID: "p", Path: "prd.md", Kind: models.ChangeModify}
	hub.Publish(event)
	assert.Equal(t, event, <-first)
	assert.Equal(t, event, <-second)

	unsubscribeFirst()
	unsubscribeFirst()
	_, open := <-first
	assert.False(t, open)
	assert.Equal(t, 1, hub.Subscribers())

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(event)
	}
	assert.Len(t, second, subscriberBuffer)
	unsubscribeSecond()
	assert.Zero(t, hub.Subscribers())
}

func TestEventHandler_Stream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewEventHub()
	r := gin.New()
	r.GET("/events", NewEventHandler(hub).Stream)

	server := httptest.NewServer(r)
	defer server.Close()

	event := models.ChangeEvent{ProjectID: "p", Path: "/tmp/epics.md", Kind: models.ChangeCreate}
	go func() {
		for hub.Subscribers() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		hub.Publish(event)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	assert.Contains(t, lines[0], ChangeEventName)
	assert.Contains(t, lines[1], "/tmp/epics.md")
	assert.Contains(t, lines[1], `"kind":"create"`)
}

func TestEventHub_Close(t *testing.T) {
	hub := NewEventHub()
	events, unsubscribe := hub.Subscribe()

	hub.Close()
	_, open := <-events
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers())

	unsubscribe()
	hub.Publish(models.ChangeEvent{Path: "late.md"})
}
