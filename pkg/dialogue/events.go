package dialogue

import (
	"sort"

	"github.com/aretw0/parley/pkg/domain"
)

// EventKind names a dialogue lifecycle event.
type EventKind string

const (
	KindStarting          EventKind = "starting"
	KindSpeakerLine       EventKind = "speaker_line"
	KindChoiceMade        EventKind = "choice_made"
	KindProceeding        EventKind = "proceeding"
	KindVariableChanged   EventKind = "variable_changed"
	KindVariableRequested EventKind = "variable_requested"
	KindFinished          EventKind = "finished"
	KindScriptEvent       EventKind = "script_event"
)

// Event is one of the concrete event structs below.
type Event interface {
	Kind() EventKind
}

// StartingEvent is raised when the dialogue (re)starts, before any line runs.
type StartingEvent struct {
	Label string `json:"label,omitempty"`
}

// SpeakerLineEvent is raised when the dialogue stops on a new speaker line.
type SpeakerLineEvent struct {
	SpeakerID string `json:"speaker_id"`
	TextID    string `json:"text_id"`
	Choices   int    `json:"choices"`
}

// ChoiceMadeEvent is raised when a real choice (not a plain continue) is picked.
type ChoiceMadeEvent struct {
	Index  int    `json:"index"`
	TextID string `json:"text_id"`
}

// ProceedingEvent is raised whenever the dialogue leaves the current line.
type ProceedingEvent struct{}

// VariableChangedEvent is raised when a variable takes a new value.
// FromScript is false when the host set it through the API.
type VariableChangedEvent struct {
	Name       string       `json:"name"`
	Value      domain.Value `json:"value"`
	FromScript bool         `json:"from_script"`
}

// VariableRequestedEvent is raised just before a variable is read, giving
// observers the chance to set it first.
type VariableRequestedEvent struct {
	Name string `json:"name"`
}

// FinishedEvent is raised when the dialogue reaches its end.
type FinishedEvent struct{}

// ScriptEvent carries an [event] line with its evaluated arguments.
type ScriptEvent struct {
	Name string         `json:"name"`
	Args []domain.Value `json:"args,omitempty"`
}

func (StartingEvent) Kind() EventKind          { return KindStarting }
func (SpeakerLineEvent) Kind() EventKind       { return KindSpeakerLine }
func (ChoiceMadeEvent) Kind() EventKind        { return KindChoiceMade }
func (ProceedingEvent) Kind() EventKind        { return KindProceeding }
func (VariableChangedEvent) Kind() EventKind   { return KindVariableChanged }
func (VariableRequestedEvent) Kind() EventKind { return KindVariableRequested }
func (FinishedEvent) Kind() EventKind          { return KindFinished }
func (ScriptEvent) Kind() EventKind            { return KindScriptEvent }

// Participant is an object taking part in the dialogue. Participants are
// notified in ascending priority order, so a higher priority participant
// runs later and has the last word on variables it sets.
type Participant interface {
	Priority() int
	OnDialogueEvent(d *Dialogue, e Event)
}

// Listener is a set of optional callbacks. Unlike participants, listeners
// are unordered observers notified after participants for every event
// except variable requests, where they run first.
type Listener struct {
	OnStarting          func(d *Dialogue, e StartingEvent)
	OnSpeakerLine       func(d *Dialogue, e SpeakerLineEvent)
	OnChoice            func(d *Dialogue, e ChoiceMadeEvent)
	OnProceeding        func(d *Dialogue, e ProceedingEvent)
	OnVariableChanged   func(d *Dialogue, e VariableChangedEvent)
	OnVariableRequested func(d *Dialogue, e VariableRequestedEvent)
	OnFinished          func(d *Dialogue, e FinishedEvent)
	OnEvent             func(d *Dialogue, e ScriptEvent)
}

func (l *Listener) dispatch(d *Dialogue, e Event) {
	switch e := e.(type) {
	case StartingEvent:
		if l.OnStarting != nil {
			l.OnStarting(d, e)
		}
	case SpeakerLineEvent:
		if l.OnSpeakerLine != nil {
			l.OnSpeakerLine(d, e)
		}
	case ChoiceMadeEvent:
		if l.OnChoice != nil {
			l.OnChoice(d, e)
		}
	case ProceedingEvent:
		if l.OnProceeding != nil {
			l.OnProceeding(d, e)
		}
	case VariableChangedEvent:
		if l.OnVariableChanged != nil {
			l.OnVariableChanged(d, e)
		}
	case VariableRequestedEvent:
		if l.OnVariableRequested != nil {
			l.OnVariableRequested(d, e)
		}
	case FinishedEvent:
		if l.OnFinished != nil {
			l.OnFinished(d, e)
		}
	case ScriptEvent:
		if l.OnEvent != nil {
			l.OnEvent(d, e)
		}
	}
}

// SetParticipants replaces every participant.
func (d *Dialogue) SetParticipants(ps ...Participant) {
	d.participants = append([]Participant(nil), ps...)
	d.sortParticipants()
}

// AddParticipant adds p, keeping priority order.
func (d *Dialogue) AddParticipant(p Participant) {
	d.participants = append(d.participants, p)
	d.sortParticipants()
}

// RemoveParticipant removes p if present.
func (d *Dialogue) RemoveParticipant(p Participant) {
	for i, existing := range d.participants {
		if existing == p {
			d.participants = append(d.participants[:i], d.participants[i+1:]...)
			return
		}
	}
}

// Participants returns the participants in notification order.
func (d *Dialogue) Participants() []Participant {
	return append([]Participant(nil), d.participants...)
}

// AddListener registers a set of callbacks.
func (d *Dialogue) AddListener(l Listener) {
	d.listeners = append(d.listeners, l)
}

// sortParticipants orders by ascending priority, keeping insertion order for ties.
func (d *Dialogue) sortParticipants() {
	sort.SliceStable(d.participants, func(i, j int) bool {
		return d.participants[i].Priority() < d.participants[j].Priority()
	})
}

func (d *Dialogue) raise(e Event) {
	if e.Kind() == KindVariableRequested {
		// Variables set by participants win, so they answer last.
		d.notifyListeners(e)
		d.notifyParticipants(e)
		return
	}
	d.notifyParticipants(e)
	d.notifyListeners(e)
}

func (d *Dialogue) notifyParticipants(e Event) {
	for _, p := range d.participants {
		p.OnDialogueEvent(d, e)
	}
}

func (d *Dialogue) notifyListeners(e Event) {
	for i := range d.listeners {
		d.listeners[i].dispatch(d, e)
	}
}

func (d *Dialogue) raiseVariablesRequested(names []string) {
	for _, name := range names {
		d.raise(VariableRequestedEvent{Name: name})
	}
}
