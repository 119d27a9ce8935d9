// Package ui holds the terminal output of the blog command: the serve
// banner, the route table and the interactive page preview.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matthewriabinin/blog/pkg/server"
)

var (
	primaryColor = lipgloss.Color("#3b82f6")
	successColor = lipgloss.Color("#10b981")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 2)

	headerCell = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			PaddingRight(2)

	cell = lipgloss.NewStyle().PaddingRight(2)
)

// BannerInfo is shown when the server starts
type BannerInfo struct {
	Title   string
	Addr    string
	Mode    string
	Posts   int
	Routes  int
	Watch   bool
	Version string
}

// Banner renders the startup box
func Banner(info BannerInfo) string {
	lines := []string{
		titleStyle.Render(info.Title) + " " + mutedStyle.Render(info.Version),
		"",
		fmt.Sprintf("%s  http://%s", mutedStyle.Render("address"), info.Addr),
		fmt.Sprintf("%s  %s", mutedStyle.Render("content"), info.Mode),
		fmt.Sprintf("%s  %d posts, %d routes", mutedStyle.Render("site   "), info.Posts, info.Routes),
	}
	if info.Watch {
		lines = append(lines, fmt.Sprintf("%s  %s", mutedStyle.Render("reload "), successStyle.Render("watching")))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RouteTable renders routes in match order
func RouteTable(table *server.RouteTable) string {
	rows := [][]string{{"#", "PATH", "PAGE", "MATCH", "MIDDLEWARE"}}
	for i, r := range table.Routes {
		match := "prefix"
		if r.Exact {
			match = "exact"
		}
		mw := ""
		if r.Middleware > 0 {
			mw = fmt.Sprint(r.Middleware)
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			r.Path,
			r.Component,
			match,
			mw,
		})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	var b strings.Builder
	for n, row := range rows {
		style := cell
		if n == 0 {
			style = headerCell
		}
		cols := make([]string, len(row))
		for i, c := range row {
			cols[i] = style.Width(widths[i] + 2).Render(c)
		}
		b.WriteString(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cols...), " "))
		b.WriteString("\n")
	}
	return b.String()
}
