package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	userStoryPattern    = regexp.MustCompile(`(?s)\*\*As\s+(?:a|an)\*\*\s+(.+?),?\s*\*\*I\s+want\*\*\s+(.+?),?\s*\*\*[Ss]o\s+that\*\*\s+(.+?)(?:\n\s*\n|\*\*|\z)`)
	epicHeadingPattern  = regexp.MustCompile(`(?m)^#{2,3}[ \t]+Epic[ \t]+(\d+):[ \t]*(.+)$`)
	storyHeadingPattern = regexp.MustCompile(`(?m)^#{2,3}[ \t]*Story[ \t]*(\d+)\.(\d+)[:\t ]*(.*)$`)
)

// UserStory holds the three clauses of an "As a / I want / so that" statement
type UserStory struct {
	Actor      string
	Capability string
	Benefit    string
}

// ParseUserStory matches the bold-label user story grammar:
//
//	**As a** <actor>, **I want** <capability>, **so that** <benefit>
func ParseUserStory(content string) (UserStory, bool) {
	match := userStoryPattern.FindStringSubmatch(content)
	if match == nil {
		return UserStory{}, false
	}
	return UserStory{
		Actor:      strings.TrimSpace(match[1]),
		Capability: strings.TrimSpace(match[2]),
		Benefit:    strings.TrimSpace(match[3]),
	}, true
}

// EpicSection is the part of a consolidated epics document that belongs to one epic
type EpicSection struct {
	Number int
	Title  string
	Body   string
}

// EpicSections splits a document on "## Epic <n>: <title>" headings. The body
// of a section runs until the next epic heading. Headings numbered zero are
// dropped.
func EpicSections(content string) []EpicSection {
	matches := epicHeadingPattern.FindAllStringSubmatchIndex(content, -1)
	sections := make([]EpicSection, 0, len(matches))

	for i, m := range matches {
		number, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil || number <= 0 {
			continue
		}
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, EpicSection{
			Number: number,
			Title:  strings.TrimSpace(content[m[4]:m[5]]),
			Body:   content[m[1]:end],
		})
	}

	return sections
}

// StoryHeading is an embedded "### Story <e>.<s>: <title>" block
type StoryHeading struct {
	EpicNumber  int
	StoryNumber int
	Title       string
	Body        string
}

// StoryHeadings finds every story heading in content. The body of a heading
// runs until the next story heading.
func StoryHeadings(content string) []StoryHeading {
	matches := storyHeadingPattern.FindAllStringSubmatchIndex(content, -1)
	headings := make([]StoryHeading, 0, len(matches))

	for i, m := range matches {
		epicNumber, err := strconv.Atoi(content[m[2]:m[3]])
		if err != nil {
			continue
		}
		storyNumber, err := strconv.Atoi(content[m[4]:m[5]])
		if err != nil {
			continue
		}
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		headings = append(headings, StoryHeading{
			EpicNumber:  epicNumber,
			StoryNumber: storyNumber,
			Title:       strings.TrimSpace(content[m[6]:m[7]]),
			Body:        content[m[1]:end],
		})
	}

	return headings
}
