package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmad-board/internal/config"
	"bmad-board/internal/handlers"
	"bmad-board/internal/repositories"
	"bmad-board/internal/services"
)

func newTestEngine(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Mode = "test"

	repo := repositories.NewArtifactRepository()
	hub := handlers.NewEventHub()
	watcher := services.NewWatchService(10*time.Millisecond, hub.Publish)
	t.Cleanup(watcher.StopAll)

	return Setup(cfg,
		handlers.NewProjectHandler(cfg, services.NewParserService(cfg), services.NewDiscoveryService(repo)),
		handlers.NewDocumentHandler(repo),
		handlers.NewWatchHandler(watcher),
		handlers.NewEventHandler(hub),
	)
}

func TestSetup_Routes(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/api/home", http.StatusOK},
		{http.MethodGet, "/api/projects/scan", http.StatusBadRequest},
		{http.MethodGet, "/api/projects/detect", http.StatusBadRequest},
		{http.MethodGet, "/api/projects/candidates", http.StatusBadRequest},
		{http.MethodPost, "/api/projects/parse", http.StatusBadRequest},
		{http.MethodPost, "/api/projects/stats", http.StatusBadRequest},
		{http.MethodGet, "/api/documents", http.StatusBadRequest},
		{http.MethodPut, "/api/documents", http.StatusBadRequest},
		{http.MethodPost, "/api/watch", http.StatusBadRequest},
		{http.MethodDelete, "/api/watch", http.StatusOK},
		{http.MethodDelete, "/api/watch/unknown", http.StatusOK},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSetup_CORSPreflight(t *testing.T) {
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects/parse", nil)
	req.Header.Set("Origin", "http://localhost:1420")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetup_Gzip(t *testing.T) {
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/home", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
