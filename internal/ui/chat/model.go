// Package chat is the terminal conversation view. It renders a
// conversation.State and turns key presses, mouse clicks and gateway results
// into conversation events.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"llm-chat/internal/conversation"
	"llm-chat/internal/domain"
)

const (
	inputHeight  = 3
	defaultWidth = 80
)

// Completer sends a completion request to the gateway.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (json.RawMessage, error)
}

type Options struct {
	Completer Completer
	Models    []string
	Model     string
	Logger    *slog.Logger
}

// completionMsg carries the outcome of one gateway call back into Update.
type completionMsg struct {
	id   uint64
	body json.RawMessage
	err  error
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	state     conversation.State
	completer Completer
	logger    *slog.Logger
	keys      KeyMap
	cancels   *cancelRegistry

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool
}

func New(opts Options) (Model, error) {
	if opts.Completer == nil {
		return Model{}, errors.New("chat: completer must not be nil")
	}
	if len(opts.Models) == 0 {
		return Model{}, errors.New("chat: models must not be empty")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ta := textarea.New()
	ta.Placeholder = "Ask me anything... (enter to send, alt+enter for a newline)"
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.SetWidth(defaultWidth)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := Model{
		state:     conversation.New(opts.Models, opts.Model),
		completer: opts.Completer,
		logger:    logger,
		keys:      DefaultKeyMap(),
		cancels:   newCancelRegistry(),
		input:     ta,
		viewport:  viewport.New(defaultWidth, 10),
		spinner:   sp,
		help:      help.New(),
		width:     defaultWidth,
	}
	m.renderer = newRenderer(defaultWidth)
	m.refreshTranscript()
	return m, nil
}

// State exposes the conversation state, mainly for tests.
func (m Model) State() conversation.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Shutdown cancels any outstanding gateway call.
func (m Model) Shutdown() {
	m.cancels.cancelAll()
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}

// layout sizes the viewport to whatever the header, picker, error line,
// input and help line leave over.
func (m *Model) layout() {
	if m.height == 0 {
		return
	}
	used := 1 + inputHeight + 1 + 1
	if m.state.PickerOpen {
		used += len(m.state.Models)
	}
	if m.state.Err != "" {
		used++
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-used, 1)
	m.input.SetWidth(max(m.width-2, 10))
	m.help.Width = m.width
}

func (m *Model) refreshTranscript() {
	m.viewport.SetContent(m.renderTranscript())
}

