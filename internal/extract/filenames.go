package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const markdownExt = ".md"

var (
	storyFilePattern = regexp.MustCompile(`^(\d+)-(\d+)-.+\.md$`)
	epicFilePattern  = regexp.MustCompile(`epic-?(\d+)`)
)

// StoryFileNumbers parses "<epic>-<story>-<slug>.md". Zero numbers void the match.
func StoryFileNumbers(filename string) (epicNumber, storyNumber int, ok bool) {
	match := storyFilePattern.FindStringSubmatch(filename)
	if match == nil {
		return 0, 0, false
	}
	epicNumber, err := strconv.Atoi(match[1])
	if err != nil || epicNumber == 0 {
		return 0, 0, false
	}
	storyNumber, err = strconv.Atoi(match[2])
	if err != nil || storyNumber == 0 {
		return 0, 0, false
	}
	return epicNumber, storyNumber, true
}

// IsStoryFile reports whether filename follows the story-file naming pattern
func IsStoryFile(filename string) bool {
	return storyFilePattern.MatchString(filename)
}

// EpicFileNumber extracts the epic number from names like "epic-3.md" or "epic3-auth.md"
func EpicFileNumber(filename string) (int, bool) {
	match := epicFilePattern.FindStringSubmatch(filename)
	if match == nil {
		return 0, false
	}
	number, err := strconv.Atoi(match[1])
	if err != nil || number == 0 {
		return 0, false
	}
	return number, true
}

// IsLooseEpicFile reports whether a file outside the epics directory is an epic source
func IsLooseEpicFile(filename string) bool {
	return strings.HasPrefix(filename, "epic") && IsMarkdown(filename)
}

// IsEpicFile reports whether filename names a single numbered epic
func IsEpicFile(filename string) bool {
	if !IsLooseEpicFile(filename) {
		return false
	}
	_, ok := EpicFileNumber(filename)
	return ok
}

// IsMarkdown reports whether filename has the markdown extension
func IsMarkdown(filename string) bool {
	return strings.HasSuffix(filename, markdownExt)
}

// Stem strips the markdown extension from a filename
func Stem(filename string) string {
	return strings.TrimSuffix(filename, markdownExt)
}

// StoryTitleFromStem derives a title from a story-file stem by dropping the
// numeric prefix and turning hyphens into spaces.
func StoryTitleFromStem(stem string, epicNumber, storyNumber int) string {
	prefix := fmt.Sprintf("%d-%d-", epicNumber, storyNumber)
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(stem, prefix), "-", " "))
	if cleaned == "" {
		return fmt.Sprintf("Story %d.%d", epicNumber, storyNumber)
	}
	return cleaned
}
