package cli

import (
	"github.com/charmbracelet/lipgloss"

	"nsg-cli/internal/nsg"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

func stageIcon(stage string) string {
	switch stage {
	case nsg.StageCompleted:
		return okStyle.Render("✓")
	case nsg.StageRunning, "RUN":
		return warnStyle.Render("⟳")
	case nsg.StageQueue, nsg.StageSubmitted:
		return accentStyle.Render("⏳")
	case nsg.StageFailed:
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("?")
	}
}
