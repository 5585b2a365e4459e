package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"bmad-board/internal/models"
	"bmad-board/internal/repositories"
)

// DocumentHandler reads and writes artifact documents on disk
type DocumentHandler struct {
	repo *repositories.ArtifactRepository
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(repo *repositories.ArtifactRepository) *DocumentHandler {
	return &DocumentHandler{repo: repo}
}

// Get returns the raw content of a document
func (h *DocumentHandler) Get(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondError(c, http.StatusBadRequest, "path is required")
		return
	}

	content, err := h.repo.ReadDocument(path)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DocumentResponse{Path: path, Content: content})
}

// Update replaces the content of a document
func (h *DocumentHandler) Update(c *gin.Context) {
	var req models.DocumentWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if h.repo.IsDir(req.Path) {
		respondError(c, http.StatusBadRequest, "path is a directory: "+req.Path)
		return
	}
	if !h.repo.IsDir(filepath.Dir(req.Path)) {
		respondError(c, http.StatusNotFound, "directory does not exist: "+filepath.Dir(req.Path))
		return
	}

	if err := h.repo.WriteDocument(req.Path, req.Content); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DocumentResponse{Path: req.Path, Content: req.Content})
}
