package dialogue

import (
	"github.com/aretw0/parley/pkg/domain"
)

// Variable returns the value of name, or Empty when unset.
func (d *Dialogue) Variable(name string) domain.Value {
	return d.vars[name]
}

// Variables returns a copy of every variable.
func (d *Dialogue) Variables() domain.Variables {
	return d.vars.Clone()
}

// SetVariable assigns name from the host side. Assigning the value a
// variable already holds is a no-op and raises nothing.
func (d *Dialogue) SetVariable(name string, v domain.Value) {
	d.setVariable(name, v, false)
}

func (d *Dialogue) setVariable(name string, v domain.Value, fromScript bool) {
	// An unset variable reads as Empty.
	old := d.vars[name]
	if old.Type() == v.Type() && old.Equal(v) {
		return
	}
	d.vars[name] = v
	d.raise(VariableChangedEvent{Name: name, Value: v, FromScript: fromScript})
}

// UnsetVariable removes name so it reads as Empty again.
func (d *Dialogue) UnsetVariable(name string) {
	delete(d.vars, name)
}

func (d *Dialogue) SetVariableInt(name string, v int64)     { d.SetVariable(name, domain.IntValue(v)) }
func (d *Dialogue) SetVariableFloat(name string, v float64) { d.SetVariable(name, domain.FloatValue(v)) }
func (d *Dialogue) SetVariableBool(name string, v bool)     { d.SetVariable(name, domain.BoolValue(v)) }
func (d *Dialogue) SetVariableText(name string, v string)   { d.SetVariable(name, domain.TextValue(v)) }
func (d *Dialogue) SetVariableGender(name string, v domain.Gender) {
	d.SetVariable(name, domain.GenderValue(v))
}

// VariableInt reads name as an int; unset or non-numeric reads as 0.
func (d *Dialogue) VariableInt(name string) int64 {
	v := d.vars[name]
	switch v.Type() {
	case domain.TypeInt:
		return v.Int()
	case domain.TypeFloat:
		return int64(v.Float())
	}
	return 0
}

// VariableFloat reads name as a float; unset or non-numeric reads as 0.
func (d *Dialogue) VariableFloat(name string) float64 {
	v := d.vars[name]
	if v.IsNumeric() {
		return v.Float()
	}
	return 0
}

// VariableBool reads name as a bool; anything but true reads as false.
func (d *Dialogue) VariableBool(name string) bool {
	return d.vars[name].Truthy()
}

// VariableText reads name as text; unset reads as "".
func (d *Dialogue) VariableText(name string) string {
	v := d.vars[name]
	if v.Type() == domain.TypeText {
		return v.Text()
	}
	return ""
}

// VariableGender reads name as a gender; unset reads as neuter.
func (d *Dialogue) VariableGender(name string) domain.Gender {
	v := d.vars[name]
	if v.Type() == domain.TypeGender {
		return v.Gender()
	}
	return domain.Neuter
}

// SavedState captures everything needed to resume the dialogue later.
func (d *Dialogue) SavedState() *domain.State {
	s := &domain.State{
		Variables:    d.vars.Clone(),
		ChoicesTaken: domain.SortedChoices(d.choicesTaken),
	}
	if d.current != nil {
		s.TextNodeID = d.current.TextID
	}
	return s
}

// RestoreSavedState resumes from a saved state. The header is re-run first so
// variables added to the header since the save get their defaults, then the
// saved variables are laid over it. Nothing is raised for the position change.
// A text id no longer present in the script leaves the dialogue ended.
func (d *Dialogue) RestoreSavedState(s *domain.State) {
	d.initVariables()
	if s == nil {
		d.choicesTaken = make(map[string]struct{})
		d.setCurrentSpeakerNode(nil, true)
		return
	}
	for k, v := range s.Variables {
		d.vars[k] = v
	}
	d.choicesTaken = s.ChoiceSet()

	if s.TextNodeID == "" {
		d.setCurrentSpeakerNode(nil, true)
		return
	}
	n := d.graph.NodeByTextID(s.TextNodeID)
	if n == nil {
		d.logger.Error("saved line no longer exists in script", "text_id", s.TextNodeID)
	}
	d.setCurrentSpeakerNode(n, true)
}
