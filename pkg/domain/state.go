package domain

import (
	"sort"
	"time"
)

// State is the persistable snapshot of a running dialogue.
// The node position is stored by text id, never by node index,
// so a saved state survives recompiling an edited script.
type State struct {
	// TextNodeID identifies the speaker line the dialogue is paused on.
	// Empty means the dialogue has ended.
	TextNodeID string `json:"text_node_id"`

	// Variables holds every variable value, header ones included.
	Variables Variables `json:"variables"`

	// ChoicesTaken lists the text ids of every choice made so far, sorted.
	ChoicesTaken []string `json:"choices_taken"`
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		Variables:    make(Variables),
		ChoicesTaken: []string{},
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		TextNodeID:   s.TextNodeID,
		Variables:    s.Variables.Clone(),
		ChoicesTaken: append([]string(nil), s.ChoicesTaken...),
	}
	return out
}

// ChoiceSet converts the saved choice list into a lookup set.
func (s *State) ChoiceSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.ChoicesTaken))
	for _, id := range s.ChoicesTaken {
		set[id] = struct{}{}
	}
	return set
}

// SortedChoices flattens a choice set into the stable order used by State.
func SortedChoices(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Session binds a saved state to the script it runs.
type Session struct {
	ID        string    `json:"id"`
	Script    string    `json:"script"`
	State     *State    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a session at the beginning of a script.
func NewSession(id, script string) *Session {
	return &Session{
		ID:        id,
		Script:    script,
		State:     NewState(),
		UpdatedAt: time.Now().UTC(),
	}
}

// Ended reports whether the session's dialogue has finished.
func (s *Session) Ended() bool {
	return s.State == nil || s.State.TextNodeID == ""
}
