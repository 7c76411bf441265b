package conversation

import (
	"slices"
	"strings"

	"llm-chat/internal/domain"
)

// State is everything the conversation view knows. Values are treated as
// immutable: Reduce returns a new State and never writes to the transcript
// of the one it was given.
type State struct {
	Transcript []domain.Message
	Model      string
	Models     []string
	PickerOpen bool
	Loading    bool
	Err        string
	Draft      string

	inFlight uint64
	lastID   uint64
}

// New returns the empty conversation. model falls back to the first entry
// of models when it is not one of them.
func New(models []string, model string) State {
	models = slices.Clone(models)
	if len(models) > 0 && !slices.Contains(models, model) {
		model = models[0]
	}
	return State{
		Transcript: []domain.Message{},
		Model:      model,
		Models:     models,
	}
}

// InFlight reports the id of the outstanding request, if any.
func (s State) InFlight() (uint64, bool) {
	return s.inFlight, s.inFlight != 0
}

// Busy is true while a completion request is outstanding.
func (s State) Busy() bool {
	return s.inFlight != 0
}

// Event is an input to Reduce.
type Event interface{ isEvent() }

type (
	DraftChanged struct{ Text string }
	// EnterPressed with Shift inserts a newline; without it, submits.
	EnterPressed struct{ Shift bool }
	Submitted    struct{}

	ResponseReceived struct {
		ID    uint64
		Reply Reply
	}
	RequestFailed struct {
		ID  uint64
		Err error
	}
	// Aborted cancels the outstanding request.
	Aborted struct{}

	PickerToggled        struct{}
	ModelSelected        struct{ Name string }
	ModelCycled          struct{}
	ClickedOutsidePicker struct{}
)

func (DraftChanged) isEvent()         {}
func (EnterPressed) isEvent()         {}
func (Submitted) isEvent()            {}
func (ResponseReceived) isEvent()     {}
func (RequestFailed) isEvent()        {}
func (Aborted) isEvent()              {}
func (PickerToggled) isEvent()        {}
func (ModelSelected) isEvent()        {}
func (ModelCycled) isEvent()          {}
func (ClickedOutsidePicker) isEvent() {}

// Effect is work Reduce asks the caller to perform.
type Effect interface{ isEffect() }

type (
	SendRequest struct {
		ID      uint64
		Request domain.CompletionRequest
	}
	CancelRequest  struct{ ID uint64 }
	ScrollToBottom struct{}
)

func (SendRequest) isEffect()    {}
func (CancelRequest) isEffect()  {}
func (ScrollToBottom) isEffect() {}

// Reduce applies ev to s.
func Reduce(s State, ev Event) (State, []Effect) {
	switch ev := ev.(type) {
	case DraftChanged:
		s.Draft = ev.Text
		return s, nil

	case EnterPressed:
		if ev.Shift {
			s.Draft += "\n"
			return s, nil
		}
		return submit(s)

	case Submitted:
		return submit(s)

	case ResponseReceived:
		if ev.ID == 0 || ev.ID != s.inFlight {
			return s, nil
		}
		s.inFlight = 0
		s.Loading = false
		if ev.Reply == nil || ev.Reply.Content() == "" {
			return s, nil
		}
		s.Transcript = domain.AppendMessage(s.Transcript, domain.AssistantMessage(ev.Reply.Content()))
		return s, []Effect{ScrollToBottom{}}

	case RequestFailed:
		if ev.ID == 0 || ev.ID != s.inFlight {
			return s, nil
		}
		s.inFlight = 0
		s.Loading = false
		s.Err = errorText(ev.Err)
		return s, nil

	case Aborted:
		if s.inFlight == 0 {
			return s, nil
		}
		id := s.inFlight
		s.inFlight = 0
		s.Loading = false
		return s, []Effect{CancelRequest{ID: id}}

	case PickerToggled:
		s.PickerOpen = !s.PickerOpen
		return s, nil

	case ModelSelected:
		if slices.Contains(s.Models, ev.Name) {
			s.Model = ev.Name
		}
		s.PickerOpen = false
		return s, nil

	case ModelCycled:
		if len(s.Models) == 0 {
			return s, nil
		}
		i := slices.Index(s.Models, s.Model)
		s.Model = s.Models[(i+1)%len(s.Models)]
		return s, nil

	case ClickedOutsidePicker:
		s.PickerOpen = false
		return s, nil
	}
	return s, nil
}

// submit sends the draft. Blank drafts and submissions made while a request
// is outstanding are ignored; the draft is kept in the latter case.
func submit(s State) (State, []Effect) {
	if strings.TrimSpace(s.Draft) == "" || s.inFlight != 0 {
		return s, nil
	}

	s.Transcript = domain.AppendMessage(s.Transcript, domain.UserMessage(s.Draft))
	s.Draft = ""
	s.Err = ""
	s.Loading = true
	s.lastID++
	s.inFlight = s.lastID

	req := domain.CompletionRequest{
		Messages: slices.Clone(s.Transcript),
		Model:    s.Model,
	}
	return s, []Effect{SendRequest{ID: s.inFlight, Request: req}, ScrollToBottom{}}
}

func errorText(err error) string {
	if err == nil {
		return "request failed"
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "request failed"
}
