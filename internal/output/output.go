// Package output provides styled terminal output helpers (success, error,
// warning, sync formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/marcus/wfsync/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	stageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// Stage prints a run-stage progress line
func Stage(format string, args ...interface{}) {
	fmt.Println(stageStyle.Render("▸ " + fmt.Sprintf(format, args...)))
}

// Subtle prints a dimmed message
func Subtle(format string, args ...interface{}) {
	fmt.Println(subtleStyle.Render(fmt.Sprintf(format, args...)))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// CountsTable renders the result counts of a run as a two-column table.
func CountsTable(created, updated, deleted, published int) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(subtleStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 1 {
				return lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Row("Created", fmt.Sprintf("%d", created)).
		Row("Updated", fmt.Sprintf("%d", updated)).
		Row("Deleted", fmt.Sprintf("%d", deleted)).
		Row("Published", fmt.Sprintf("%d", published))
	return t.Render()
}

// RunsTable renders run history rows.
func RunsTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(subtleStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

// FormatSyncShort formats a sync config as a one-line summary.
func FormatSyncShort(sc *models.SyncConfig) string {
	var parts []string
	parts = append(parts, titleStyle.Render(sc.Name))
	parts = append(parts, fmt.Sprintf("%s/%s", sc.Airtable.Base.Name, sc.Airtable.Table.Name))
	parts = append(parts, "→")
	parts = append(parts, fmt.Sprintf("%s/%s", sc.Webflow.Site.Name, sc.Webflow.Collection.Name))
	parts = append(parts, subtleStyle.Render(fmt.Sprintf("%d fields", len(sc.Fields))))

	var flags []string
	if sc.AutoPublish {
		flags = append(flags, "auto-publish")
	}
	if sc.DeleteRecords {
		flags = append(flags, "delete")
	}
	if len(flags) > 0 {
		parts = append(parts, subtleStyle.Render("["+strings.Join(flags, ", ")+"]"))
	}
	return strings.Join(parts, "  ")
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nFIELDS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// BulletList formats items as a bulleted list with optional indentation
func BulletList(items []string, indent int) []string {
	prefix := strings.Repeat(" ", indent)
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = prefix + "- " + item
	}
	return result
}
