package services

import (
	"fmt"

	"bmad-board/internal/helpers"
	"bmad-board/internal/models"
	"bmad-board/internal/schema"
)

// ExportResult lists the files written by SaveProject
type ExportResult struct {
	JSONPath    string `json:"json_path"`
	SummaryPath string `json:"summary_path"`
}

// SaveProject validates the project against the project schema and writes
// it to outputDir as JSON plus a markdown summary.
func (s *ParserService) SaveProject(project *models.Project, outputDir string) (*ExportResult, error) {
	if err := schema.Validate(project); err != nil {
		return nil, fmt.Errorf("refusing to export invalid project: %w", err)
	}

	if err := helpers.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonPath := helpers.GetOutputPath(outputDir, helpers.GenerateOutputFilename(project.Name+"-board", "json"))
	if err := helpers.SaveJSON(project, jsonPath); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	summaryPath := helpers.GetOutputPath(outputDir, helpers.GenerateOutputFilename(project.Name+"-summary", "md"))
	if err := helpers.SaveText(RenderMarkdownSummary(project), summaryPath); err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}

	return &ExportResult{JSONPath: jsonPath, SummaryPath: summaryPath}, nil
}
