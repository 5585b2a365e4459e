package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmad-board/internal/models"
)

const epicsDocument = `# Epics

## Epic 1: Onboarding from document

**Goal:** Overridden by the epic file

## Epic 2: Billing

## User Outcome
Customers can pay invoices

### Story 2.1: Invoices
**As a** customer **I want** to see invoices **so that** I know what I owe
`

func TestEpicService_Collect(t *testing.T) {
	docs := t.TempDir()
	writeFile(t, docs, "epics/epic-1.md", "# Onboarding\n\n**Goal:** New users get started quickly\n\n### Story 1.1: Sign up\n")
	writeFile(t, docs, "epics/notes.md", "# No number here\n")
	writeFile(t, docs, "epics/epic-3.txt", "# Not markdown\n")
	writeFile(t, docs, "planning-artifacts/epic4-search.md", "## Objective\nFind anything\n")
	writeFile(t, docs, "epics.md", epicsDocument)

	status := &models.SprintStatus{DevelopmentStatus: map[string]models.EpicSprintStatus{
		"epic-2": {Status: models.EpicInProgress, Retrospective: models.RetrospectiveOptional, Stories: map[string]models.StoryStatus{
			"2-1-invoices": models.StoryDone,
		}},
	}}

	epics, err := NewEpicService(newTestRepo()).Collect(docs, status, "2025-06-01T12:00:00Z")
	require.NoError(t, err)
	require.Len(t, epics, 3)

	onboarding := epics[0]
	assert.Equal(t, 1, onboarding.Number)
	assert.Equal(t, "Onboarding", onboarding.Title)
	assert.Equal(t, "New users get started quickly", onboarding.Goal)
	assert.Equal(t, filepath.Join(docs, "epics", "epic-1.md"), onboarding.FilePath)
	assert.Equal(t, models.EpicBacklog, onboarding.Status)
	require.Len(t, onboarding.Stories, 1)
	assert.Equal(t, "Sign up", onboarding.Stories[0].Title)

	billing := epics[1]
	assert.Equal(t, 2, billing.Number)
	assert.Equal(t, "Billing", billing.Title)
	assert.Equal(t, "Customers can pay invoices", billing.Goal)
	assert.Equal(t, models.EpicInProgress, billing.Status)
	assert.Equal(t, models.RetrospectiveOptional, billing.Retrospective)
	assert.Equal(t, filepath.Join(docs, "epics.md"), billing.FilePath)
	require.Len(t, billing.Stories, 1)
	assert.Equal(t, "2.1", billing.Stories[0].Number)
	assert.Equal(t, models.StoryDone, billing.Stories[0].Status)
	assert.Equal(t, "customer", billing.Stories[0].UserType)

	search := epics[2]
	assert.Equal(t, 4, search.Number)
	assert.Equal(t, "Epic 4", search.Title)
	assert.Equal(t, "Find anything", search.Goal)
}

func TestEpicService_CollectEmpty(t *testing.T) {
	epics, err := NewEpicService(newTestRepo()).Collect(t.TempDir(), nil, "")
	require.NoError(t, err)
	assert.NotNil(t, epics)
	assert.Empty(t, epics)
}

func TestEpicService_CollectUsesFileTimes(t *testing.T) {
	docs := t.TempDir()
	path := writeFile(t, docs, "epics/epic-7.md", "# Seven\n")
	touch(t, path, fixtureNow)

	epics, err := NewEpicService(newTestRepo()).Collect(docs, nil, "2000-01-01T00:00:00Z")
	require.NoError(t, err)
	require.Len(t, epics, 1)
	assert.Equal(t, models.FormatTimestamp(fixtureNow), epics[0].CreatedAt)
	assert.Equal(t, models.FormatTimestamp(fixtureNow), epics[0].UpdatedAt)
	assert.NotEmpty(t, epics[0].ID)
}
