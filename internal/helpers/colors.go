package helpers

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// SuccessColor for successful operations
	SuccessColor = color.New(color.FgGreen, color.Bold)

	// ErrorColor for error messages
	ErrorColor = color.New(color.FgRed, color.Bold)

	// WarningColor for warning messages
	WarningColor = color.New(color.FgYellow, color.Bold)

	// InfoColor for informational messages
	InfoColor = color.New(color.FgCyan, color.Bold)

	// TitleColor for titles and headers
	TitleColor = color.New(color.FgMagenta, color.Bold)

	// MutedColor for secondary details
	MutedColor = color.New(color.FgHiBlack)
)

// statusColors maps workflow statuses to the color they are rendered in
var statusColors = map[string]*color.Color{
	"backlog":       MutedColor,
	"ready-for-dev": color.New(color.FgBlue),
	"in-progress":   color.New(color.FgYellow),
	"review":        color.New(color.FgMagenta),
	"done":          color.New(color.FgGreen),
	"optional":      MutedColor,
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	SuccessColor.Printf("✅ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(format string, args ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...interface{}) {
	WarningColor.Printf("⚠️  "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	InfoColor.Printf("ℹ️  "+format+"\n", args...)
}

// PrintTitle prints a title
func PrintTitle(format string, args ...interface{}) {
	TitleColor.Printf("🎯 "+format+"\n", args...)
}

// PrintProgress prints a progress bar for a completion percentage
func PrintProgress(percentage int, message string) {
	const width = 30
	filled := percentage * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	InfoColor.Printf("📊 [%s%s] %d%% %s\n", strings.Repeat("█", filled), strings.Repeat("░", width-filled), percentage, message)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println(strings.Repeat("─", 80))
}

// StatusBadge renders a status in its workflow color
func StatusBadge(status string) string {
	if status == "" {
		return MutedColor.Sprint("-")
	}
	c, ok := statusColors[status]
	if !ok {
		return status
	}
	return c.Sprint(status)
}

// IsTerminal checks if output is going to a terminal
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
