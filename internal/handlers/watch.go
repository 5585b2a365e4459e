package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
	"bmad-board/internal/services"
)

// WatchHandler starts and stops project watches
type WatchHandler struct {
	watcher *services.WatchService
}

// NewWatchHandler creates a new watch handler
func NewWatchHandler(watcher *services.WatchService) *WatchHandler {
	return &WatchHandler{watcher: watcher}
}

// Start begins watching a project's artifacts directory
func (h *WatchHandler) Start(c *gin.Context) {
	var req models.WatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.watcher.Start(req.ProjectID, req.BmadDocsPath); err != nil {
		status := http.StatusBadRequest
		if repositories.IsNotExist(err) {
			status = http.StatusNotFound
		}
		respondError(c, status, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"project_id": req.ProjectID, "watching": true})
}

// Stop ends the watch of one project
func (h *WatchHandler) Stop(c *gin.Context) {
	projectID := c.Param("id")
	h.watcher.Stop(projectID)
	c.JSON(http.StatusOK, gin.H{"project_id": projectID, "watching": false})
}

// StopAll ends every watch
func (h *WatchHandler) StopAll(c *gin.Context) {
	h.watcher.StopAll()
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}
