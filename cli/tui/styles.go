package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/codeguardian-hq/codeguardian/core/findings"
)

var (
	// Risk level colors.
	colorCritical = lipgloss.Color("#FF0000")
	colorHigh     = lipgloss.Color("#FF8C00")
	colorMedium   = lipgloss.Color("#FFD700")
	colorLow      = lipgloss.Color("#4169E1")
	colorInfo     = lipgloss.Color("#808080")

	// UI colors.
	colorTitle    = lipgloss.Color("#FFFFFF")
	colorSubtle   = lipgloss.Color("#666666")
	colorSelected = lipgloss.Color("#7D56F4")
	colorSnippet  = lipgloss.Color("#FF6B6B")

	// Styles.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTitle)

	subtleStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSelected)

	snippetStyle = lipgloss.NewStyle().
			Foreground(colorSnippet)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorSubtle)

	ruleIDStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#AAAAAA"))

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#88C0D0"))

	fixHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A3BE8C"))

	classificationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B48EAD"))
)

// riskStyle returns a styled risk level badge.
func riskStyle(level findings.RiskLevel) lipgloss.Style {
	var color lipgloss.Color
	switch level {
	case findings.RiskCritical:
		color = colorCritical
	case findings.RiskHigh:
		color = colorHigh
	case findings.RiskMedium:
		color = colorMedium
	case findings.RiskLow:
		color = colorLow
	default:
		color = colorInfo
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color)
}

// riskBadge returns a short risk level string for list display.
func riskBadge(level findings.RiskLevel) string {
	style := riskStyle(level)
	switch level {
	case findings.RiskCritical:
		return style.Render("CRIT")
	case findings.RiskHigh:
		return style.Render("HIGH")
	case findings.RiskMedium:
		return style.Render(" MED")
	case findings.RiskLow:
		return style.Render(" LOW")
	default:
		return style.Render("INFO")
	}
}
