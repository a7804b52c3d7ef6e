package tui

import (
	"fmt"
	"strings"
)

// renderDetail renders the detail view for a single finding.
func renderDetail(m *Model) string {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return "No finding selected."
	}

	f := m.filtered[m.cursor]

	var b strings.Builder

	// Header.
	badge := riskStyle(f.RiskLevel).Render(strings.ToUpper(string(f.RiskLevel)))
	b.WriteString(fmt.Sprintf(" %s · %s · %s\n",
		ruleIDStyle.Render(f.RuleID),
		f.Type,
		badge))
	b.WriteString(headerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	// File location.
	fileLoc := f.FilePath
	if f.Line > 0 {
		fileLoc = fmt.Sprintf("%s:%d", f.FilePath, f.Line)
	}
	b.WriteString(" " + fileStyle.Render(fileLoc))
	b.WriteString(subtleStyle.Render(fmt.Sprintf("  confidence: %s", f.Confidence)))
	b.WriteString("\n\n")

	// Matched code.
	if f.CodeSnippet != "" {
		lineNum := "     │ "
		if f.Line > 0 {
			lineNum = subtleStyle.Render(fmt.Sprintf("%4d │ ", f.Line))
		}
		b.WriteString("  " + lineNum + snippetStyle.Render(f.CodeSnippet) + "\n\n")
	}

	// Classification.
	if f.Classification != "" {
		b.WriteString(" " + classificationStyle.Render("Classification: "+f.Classification) + "\n\n")
	}

	// Suggested fix.
	if fix := f.SuggestedFix; fix != nil {
		b.WriteString(" " + fixHeaderStyle.Render("Suggested fix") +
			subtleStyle.Render(fmt.Sprintf("  (confidence: %s)", fix.Confidence)) + "\n")
		for _, line := range strings.Split(fix.FixedCode, "\n") {
			b.WriteString("   " + line + "\n")
		}
		if fix.Explanation != "" {
			b.WriteString(wrapText(fix.Explanation, m.width-4, "   "))
		}
		b.WriteString("\n")
	}

	// Help.
	b.WriteString(helpStyle.Render(" esc back  n/p next/prev  q quit"))
	b.WriteString("\n")

	return b.String()
}

// wrapText wraps text at the given width with the given indent prefix.
func wrapText(text string, width int, indent string) string {
	if width <= 0 {
		width = 78
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(indent)
	lineLen := len(indent)

	for i, word := range words {
		if i > 0 && lineLen+1+len(word) > width {
			b.WriteString("\n" + indent)
			lineLen = len(indent)
		} else if i > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	b.WriteString("\n")
	return b.String()
}
