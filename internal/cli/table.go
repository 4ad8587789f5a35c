package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mind-engage/neurocare/internal/scoring"
)

var (
	colorPrimary = lipgloss.Color("#64b5f6")
	colorHigh    = lipgloss.Color("#ef5350")
	colorMuted   = lipgloss.Color("#888888")

	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleHigh   = lipgloss.NewStyle().Bold(true).Foreground(colorHigh)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted)
)

// highScore marks percentages worth drawing attention to.
const highScore = 70.0

// renderScores writes the result as an aligned two-column table.
func renderScores(w io.Writer, res scoring.Result, color bool) {
	paint := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	width := len("CONDITION")
	for _, s := range res {
		if len(s.Condition) > width {
			width = len(s.Condition)
		}
	}

	fmt.Fprintf(w, "%s  %s\n", paint(styleHeader, pad("CONDITION", width)), paint(styleHeader, "MATCH"))
	fmt.Fprintf(w, "%s  %s\n", paint(styleMuted, strings.Repeat("─", width)), paint(styleMuted, strings.Repeat("─", 7)))
	for _, s := range res {
		pct := fmt.Sprintf("%6.1f%%", s.Percentage)
		if s.Percentage >= highScore {
			pct = paint(styleHigh, pct)
		}
		fmt.Fprintf(w, "%s  %s\n", pad(s.Condition, width), pct)
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
