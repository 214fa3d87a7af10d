package dialogue

// ChoiceView is one option of the current line as a frontend shows it.
type ChoiceView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Taken bool   `json:"taken,omitempty"`
}

// View is a presentation snapshot of the current line with parameters
// already substituted. A line with a single empty option (plain continue)
// has no Choices and Continue set.
type View struct {
	SpeakerID string       `json:"speaker_id,omitempty"`
	Speaker   string       `json:"speaker,omitempty"`
	Text      string       `json:"text,omitempty"`
	Choices   []ChoiceView `json:"choices,omitempty"`
	Continue  bool         `json:"continue,omitempty"`
	Ended     bool         `json:"ended"`
}

// View snapshots the current line for presentation.
func (d *Dialogue) View() View {
	if d.IsEnded() {
		return View{Ended: true}
	}
	v := View{
		SpeakerID: d.SpeakerID(),
		Speaker:   d.SpeakerDisplayName(),
		Text:      d.Text(),
	}
	if !d.current.HasChoices {
		v.Continue = len(d.choices) == 1
		return v
	}
	for i := range d.choices {
		v.Choices = append(v.Choices, ChoiceView{
			Index: i,
			Text:  d.ChoiceText(i),
			Taken: d.IsChoiceTaken(i),
		})
	}
	return v
}
