package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"bmad-board/internal/helpers"
	"bmad-board/internal/models"
)

// DisplayProject displays the reconciled project in a formatted way
func DisplayProject(project *models.Project, showStories bool) error {
	helpers.PrintTitle("Project: %s", project.Name)
	helpers.PrintInfo("Path: %s", project.Path)
	helpers.PrintInfo("Artifacts: %s", project.BmadDocsPath)
	helpers.PrintInfo("Phase %d: %s", project.CurrentPhase, PhaseName(project.CurrentPhase))
	helpers.PrintInfo("Last activity: %s", project.LastActivity)
	helpers.PrintSeparator()

	if len(project.Documents) > 0 {
		helpers.PrintInfo("Documents:")
		for _, doc := range project.Documents {
			helpers.PrintInfo("  • [%s] %s", doc.Type, doc.Title)
		}
		helpers.PrintSeparator()
	}

	if len(project.Epics) == 0 {
		helpers.PrintWarning("No epics found")
		return nil
	}

	if err := renderEpicTable(project.Epics); err != nil {
		return fmt.Errorf("failed to render epic table: %w", err)
	}

	if showStories {
		for _, epic := range project.Epics {
			helpers.PrintSeparator()
			helpers.PrintInfo("Epic %d: %s", epic.Number, epic.Title)
			if epic.Goal != "" {
				helpers.PrintInfo("Goal: %s", epic.Goal)
			}
			for _, story := range epic.Stories {
				helpers.PrintInfo("  Story %s: %s  %s", story.Number, story.Title, helpers.StatusBadge(string(story.Status)))
				if story.UserType != "" {
					helpers.PrintInfo("    As a %s, I want %s, so that %s", story.UserType, story.Capability, story.ValueBenefit)
				}
			}
		}
	}

	return nil
}

func renderEpicTable(epics []models.Epic) error {
	data := pterm.TableData{{"#", "Epic", "Status", "Stories", "Done", "Retro"}}
	for _, epic := range epics {
		done := 0
		for _, story := range epic.Stories {
			if story.Status == models.StoryDone {
				done++
			}
		}
		data = append(data, []string{
			fmt.Sprintf("%d", epic.Number),
			epic.Title,
			helpers.StatusBadge(string(epic.Status)),
			fmt.Sprintf("%d", len(epic.Stories)),
			fmt.Sprintf("%d", done),
			helpers.StatusBadge(string(epic.Retrospective)),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// DisplayStats displays project statistics
func DisplayStats(project *models.Project, stats models.ProjectStats) {
	helpers.PrintTitle("Statistics: %s", project.Name)
	helpers.PrintInfo("Epics: %d total, %d completed", stats.TotalEpics, stats.CompletedEpics)
	helpers.PrintInfo("Stories: %d total", stats.TotalStories)

	for _, status := range models.StoryStatuses {
		helpers.PrintInfo("  %-14s %d", helpers.StatusBadge(string(status)), stats.StoriesByStatus[string(status)])
	}

	helpers.PrintProgress(stats.ProgressPercentage, "stories done")
}

// DisplayPaths prints a list of discovered paths
func DisplayPaths(title string, paths []string) {
	helpers.PrintTitle("%s", title)
	if len(paths) == 0 {
		helpers.PrintWarning("Nothing found")
		return
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	for _, path := range sorted {
		helpers.PrintInfo("  %s", path)
	}
	helpers.PrintSuccess("Found %d", len(paths))
}

// RenderMarkdownSummary renders a markdown board of the project
func RenderMarkdownSummary(project *models.Project) string {
	var summary strings.Builder
	stats := ComputeStats(project)

	summary.WriteString(fmt.Sprintf("# %s\n\n", project.Name))
	summary.WriteString(fmt.Sprintf("**Phase:** %d (%s)\n\n", project.CurrentPhase, PhaseName(project.CurrentPhase)))
	summary.WriteString(fmt.Sprintf("**Total Epics:** %d\n", stats.TotalEpics))
	summary.WriteString(fmt.Sprintf("**Total Stories:** %d\n", stats.TotalStories))
	summary.WriteString(fmt.Sprintf("**Progress:** %d%%\n\n", stats.ProgressPercentage))

	for _, epic := range project.Epics {
		summary.WriteString(fmt.Sprintf("## Epic %d: %s\n\n", epic.Number, epic.Title))
		summary.WriteString(fmt.Sprintf("**Status:** %s\n\n", epic.Status))
		if epic.Goal != "" {
			summary.WriteString(fmt.Sprintf("%s\n\n", epic.Goal))
		}

		for _, story := range epic.Stories {
			summary.WriteString(fmt.Sprintf("### Story %s: %s\n\n", story.Number, story.Title))
			summary.WriteString(fmt.Sprintf("**Status:** %s\n\n", story.Status))
			if story.UserType != "" {
				summary.WriteString(fmt.Sprintf("**As a** %s, **I want** %s, **so that** %s\n\n", story.UserType, story.Capability, story.ValueBenefit))
			}
		}
	}

	return summary.String()
}
