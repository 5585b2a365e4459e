// Package extract holds the text extraction strategies used to pull fields
// out of loosely structured markdown artifacts.
//
// Every strategy reports whether it matched; callers chain strategies with
// First so the fallback order is explicit.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// Strategy extracts a value from markdown text
type Strategy func(content string) (string, bool)

var titlePattern = regexp.MustCompile(`^#\s+(.+)$`)

// First returns the value of the first strategy that matches
func First(content string, strategies ...Strategy) (string, bool) {
	for _, strategy := range strategies {
		if value, ok := strategy(content); ok {
			return value, true
		}
	}
	return "", false
}

// Title returns the text of the first top-level markdown heading
func Title(content string) (string, bool) {
	for _, line := range strings.Split(content, "\n") {
		if match := titlePattern.FindStringSubmatch(strings.TrimSpace(line)); match != nil {
			return strings.TrimSpace(match[1]), true
		}
	}
	return "", false
}

// BoldLabel matches "**Label**: text" (or "**Label:** text") and captures the
// text up to a blank line, the next bold marker or the end of the document.
func BoldLabel(label string) Strategy {
	pattern := regexp.MustCompile(fmt.Sprintf(`(?is)\*\*%s:?\*\*[:\s]*(.+?)(?:\n\s*\n|\*\*|\z)`, regexp.QuoteMeta(label)))
	return func(content string) (string, bool) {
		return firstGroup(pattern, content)
	}
}

// HeadingLabel matches a "## Label" heading and captures everything up to the
// next "##" heading or the end of the document.
func HeadingLabel(label string) Strategy {
	pattern := regexp.MustCompile(fmt.Sprintf(`(?m)##[ \t]*%s[ \t]*\r?\n([\s\S]*?)(?:\n##|\z)`, regexp.QuoteMeta(label)))
	return func(content string) (string, bool) {
		return firstGroup(pattern, content)
	}
}

// Section tries each label in order, bold form first, then heading form.
// A miss on every label yields an empty string.
func Section(content string, labels ...string) string {
	for _, label := range labels {
		if value, ok := First(content, BoldLabel(label), HeadingLabel(label)); ok {
			return value
		}
	}
	return ""
}

func firstGroup(pattern *regexp.Regexp, content string) (string, bool) {
	match := pattern.FindStringSubmatch(content)
	if match == nil {
		return "", false
	}
	value := strings.TrimSpace(match[1])
	if value == "" {
		return "", false
	}
	return value, true
}
