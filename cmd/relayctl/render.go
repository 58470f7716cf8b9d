package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/okian/relay/internal/domain/model"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
)

func renderReport(w io.Writer, report *model.Report, output string) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	var sb strings.Builder
	sb.WriteString(okStyle.Render(report.Message))
	sb.WriteString("\n")
	for _, warning := range report.Warnings {
		sb.WriteString(warnStyle.Render("warning: " + warning))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(teamTable(report.Rows))
	sb.WriteString("\n\n")
	sb.WriteString(summaryBlock(report))

	if len(report.Unassigned) > 0 {
		names := make([]string, len(report.Unassigned))
		for i, s := range report.Unassigned {
			names[i] = swimmerLabel(s)
		}
		sb.WriteString("\n")
		sb.WriteString(mutedStyle.Render("unassigned: " + strings.Join(names, ", ")))
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func teamTable(rows []model.Row) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Team", "Category", "Swimmer", "Gender", "Age", "Time", "Team age", "Team time")
	for _, r := range rows {
		t.Row(
			strconv.Itoa(r.Team),
			r.Category,
			swimmerLabel(r.Swimmer),
			string(r.Gender),
			num(r.Age),
			num(r.Time),
			num(r.TeamAgeSum),
			num(r.TeamTimeSum),
		)
	}
	return t.String()
}

func summaryBlock(report *model.Report) string {
	s := report.Summary
	lines := []string{
		titleStyle.Render("Summary"),
		fmt.Sprintf("mode        %s", report.Mode),
		fmt.Sprintf("teams       %d", s.Teams),
		fmt.Sprintf("assigned    %d", s.Assigned),
		fmt.Sprintf("unassigned  %d", s.Unassigned),
		fmt.Sprintf("total time  %s", num(s.TotalTime)),
	}
	if s.Teams > 1 {
		lines = append(lines, fmt.Sprintf("spread      %s (%s to %s)", num(s.Spread), num(s.FastestTeam), num(s.SlowestTeam)))
	}
	if len(s.Categories) > 0 {
		names := make([]string, 0, len(s.Categories))
		for name := range s.Categories {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s:%d", name, s.Categories[name])
		}
		lines = append(lines, "categories  "+strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

func swimmerLabel(s model.Swimmer) string {
	if s.Name == "" {
		return s.ID
	}
	return s.Name
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
