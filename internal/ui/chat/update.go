package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"llm-chat/internal/conversation"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.renderer = newRenderer(m.width)
		m.layout()
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case completionMsg:
		return m.handleCompletion(msg)

	default:
		if m.state.Loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancels.cancelAll()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Abort):
		if m.state.PickerOpen {
			return m.dispatch(conversation.ClickedOutsidePicker{})
		}
		return m.dispatch(conversation.Aborted{})

	case key.Matches(msg, m.keys.Picker):
		return m.dispatch(conversation.PickerToggled{})

	case key.Matches(msg, m.keys.Cycle):
		return m.dispatch(conversation.ModelCycled{})

	case key.Matches(msg, m.keys.Newline):
		m.input.InsertString("\n")
		return m.dispatch(conversation.DraftChanged{Text: m.input.Value()})

	case key.Matches(msg, m.keys.Submit):
		next, cmd := m.dispatch(conversation.DraftChanged{Text: m.input.Value()})
		m = next.(Model)
		next, cmd2 := m.dispatch(conversation.EnterPressed{})
		return next, tea.Batch(cmd, cmd2)
	}

	if m.state.PickerOpen && msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		if i := int(msg.Runes[0] - '1'); i >= 0 && i < len(m.state.Models) {
			return m.dispatch(conversation.ModelSelected{Name: m.state.Models[i]})
		}
	}

	switch msg.Type {
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	next, cmd2 := m.dispatch(conversation.DraftChanged{Text: m.input.Value()})
	return next, tea.Batch(cmd, cmd2)
}

// handleMouse maps left clicks onto the header and picker rows. Row 0 is the
// model button, rows 1..n are the open picker's options, and a click
// anywhere else closes the picker.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.MouseLeft:
		switch {
		case msg.Y == 0:
			return m.dispatch(conversation.PickerToggled{})
		case m.state.PickerOpen && msg.Y >= 1 && msg.Y <= len(m.state.Models):
			return m.dispatch(conversation.ModelSelected{Name: m.state.Models[msg.Y-1]})
		default:
			return m.dispatch(conversation.ClickedOutsidePicker{})
		}
	case tea.MouseWheelUp, tea.MouseWheelDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleCompletion(msg completionMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			m.logger.Info("completion cancelled", "request_id", msg.id)
		} else {
			m.logger.Error("completion failed", "request_id", msg.id, "err", msg.err)
		}
		return m.dispatch(conversation.RequestFailed{ID: msg.id, Err: msg.err})
	}

	reply := conversation.ParseReply(msg.body)
	if _, ok := reply.(conversation.Unparseable); ok {
		m.logger.Warn("completion without reply text", "request_id", msg.id)
	}
	return m.dispatch(conversation.ResponseReceived{ID: msg.id, Reply: reply})
}

// dispatch runs ev through the state machine and turns the resulting effects
// into commands.
func (m Model) dispatch(ev conversation.Event) (tea.Model, tea.Cmd) {
	prev := m.state
	var effects []conversation.Effect
	m.state, effects = conversation.Reduce(m.state, ev)

	if m.state.Draft != m.input.Value() {
		m.input.SetValue(m.state.Draft)
	}
	if prev.PickerOpen != m.state.PickerOpen || prev.Err != m.state.Err {
		m.layout()
	}
	if len(prev.Transcript) != len(m.state.Transcript) || prev.Loading != m.state.Loading {
		m.refreshTranscript()
	}

	var cmds []tea.Cmd
	for _, eff := range effects {
		switch eff := eff.(type) {
		case conversation.SendRequest:
			m.logger.Info("sending completion", "request_id", eff.ID, "model", eff.Request.Model, "messages", len(eff.Request.Messages))
			cmds = append(cmds, m.send(eff), m.spinner.Tick)
		case conversation.CancelRequest:
			m.logger.Info("aborting completion", "request_id", eff.ID)
			m.cancels.cancel(eff.ID)
		case conversation.ScrollToBottom:
			m.viewport.GotoBottom()
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) send(eff conversation.SendRequest) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels.add(eff.ID, cancel)
	completer, cancels := m.completer, m.cancels
	return func() tea.Msg {
		defer cancels.done(eff.ID)
		body, err := completer.Complete(ctx, eff.Request)
		return completionMsg{id: eff.ID, body: body, err: err}
	}
}
