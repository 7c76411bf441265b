package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"llm-chat/internal/domain"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	optionStyle   = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(2).Bold(true).Foreground(lipgloss.Color("10"))
	userStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	assistStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

const emptyTranscript = "No messages yet. Type a question below."

// View stacks, top to bottom: the model button (row 0), the picker options
// when open, the transcript, the error line, the input and the key help.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteByte('\n')

	if m.state.PickerOpen {
		for i, name := range m.state.Models {
			line := fmt.Sprintf("%d. %s", i+1, name)
			if name == m.state.Model {
				b.WriteString(selectedStyle.Render(line + " ✓"))
			} else {
				b.WriteString(optionStyle.Render(line))
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString(m.viewport.View())
	b.WriteByte('\n')

	if m.state.Err != "" {
		b.WriteString(errorStyle.Render("error: " + m.state.Err))
		b.WriteByte('\n')
	}

	b.WriteString(m.input.View())
	b.WriteByte('\n')
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m Model) headerView() string {
	arrow := "▾"
	if m.state.PickerOpen {
		arrow = "▴"
	}
	header := headerStyle.Render("model: " + m.state.Model + " " + arrow)
	if m.state.Loading {
		header += "  " + m.spinner.View() + dimStyle.Render(" waiting for reply (esc to abort)")
	}
	return header
}

func (m Model) renderTranscript() string {
	if len(m.state.Transcript) == 0 {
		return dimStyle.Render(emptyTranscript)
	}

	var b strings.Builder
	for i, msg := range m.state.Transcript {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString(userStyle.Render("You"))
			b.WriteByte('\n')
			b.WriteString(msg.Content)
			b.WriteByte('\n')
		default:
			b.WriteString(assistStyle.Render("Assistant"))
			b.WriteByte('\n')
			b.WriteString(m.renderMarkdown(msg.Content))
		}
	}
	return b.String()
}

// renderMarkdown falls back to the raw text when glamour is unavailable or
// fails on the input.
func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return strings.TrimLeft(out, "\n")
}
