package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bmad-board/internal/config"
	"bmad-board/internal/helpers"
	"bmad-board/internal/models"
	"bmad-board/internal/services"
)

// ProjectHandler serves project discovery and parsing
type ProjectHandler struct {
	config    *config.Config
	parser    *services.ParserService
	discovery *services.DiscoveryService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(cfg *config.Config, parser *services.ParserService, discovery *services.DiscoveryService) *ProjectHandler {
	return &ProjectHandler{
		config:    cfg,
		parser:    parser,
		discovery: discovery,
	}
}

// Scan lists the BMAD projects below a root directory
func (h *ProjectHandler) Scan(c *gin.Context) {
	root := c.Query("root")
	if root == "" {
		respondError(c, http.StatusBadRequest, "root is required")
		return
	}

	depth := h.config.Scan.MaxDepth
	if raw := c.Query("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "depth must be a non-negative integer")
			return
		}
		depth = parsed
	}

	if !helpers.DirExists(root) {
		respondError(c, http.StatusNotFound, "path does not exist: "+root)
		return
	}

	projects, err := h.discovery.ScanForProjects(root, depth)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"root": root, "depth": depth, "projects": projects})
}

// Detect reports whether a path is a BMAD project and where its artifacts live
func (h *ProjectHandler) Detect(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondError(c, http.StatusBadRequest, "path is required")
		return
	}

	docsDir, _ := h.discovery.FindDocsDir(path)
	c.JSON(http.StatusOK, gin.H{
		"path":            path,
		"is_bmad_project": h.discovery.IsBmadProject(path),
		"bmad_docs_path":  docsDir,
	})
}

// Candidates lists possible artifacts directories of a project
func (h *ProjectHandler) Candidates(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		respondError(c, http.StatusBadRequest, "path is required")
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "candidates": h.discovery.FindDocsCandidates(path)})
}

// Parse reconciles a project and returns the full model
func (h *ProjectHandler) Parse(c *gin.Context) {
	project, ok := h.parse(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, project)
}

// Stats parses a project and returns its progress summary
func (h *ProjectHandler) Stats(c *gin.Context) {
	project, ok := h.parse(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, services.ComputeStats(project))
}

// Home returns the home directory of the serving user
func (h *ProjectHandler) Home(c *gin.Context) {
	home, err := helpers.HomeDir()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"home": home})
}

func (h *ProjectHandler) parse(c *gin.Context) (*models.Project, bool) {
	var req models.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}

	if !helpers.DirExists(req.ProjectPath) {
		respondError(c, http.StatusNotFound, "project path does not exist: "+req.ProjectPath)
		return nil, false
	}

	project, err := h.parser.ParseProject(c.Request.Context(), req.ProjectPath, req.BmadDocsPath)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return project, true
}
