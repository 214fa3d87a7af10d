package dialogue_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	name     string
	priority int
	log      *[]string
	onEvent  func(d *dialogue.Dialogue, e dialogue.Event)
}

func (r *recorder) Priority() int { return r.priority }

func (r *recorder) OnDialogueEvent(d *dialogue.Dialogue, e dialogue.Event) {
	*r.log = append(*r.log, fmt.Sprintf("%s:%s", r.name, e.Kind()))
	if r.onEvent != nil {
		r.onEvent(d, e)
	}
}

func TestParticipants_PriorityOrder(t *testing.T) {
	var log []string
	g := compileGraph(t, "order", "NPC: Hi\n")
	d := dialogue.New(g,
		dialogue.WithParticipants(
			&recorder{name: "late", priority: 10, log: &log},
			&recorder{name: "early", priority: -1, log: &log},
			&recorder{name: "tie", priority: 10, log: &log},
		),
		dialogue.WithListener(dialogue.Listener{
			OnStarting: func(*dialogue.Dialogue, dialogue.StartingEvent) { log = append(log, "listener:starting") },
		}),
	)
	d.Start("")

	require.GreaterOrEqual(t, len(log), 4)
	assert.Equal(t, []string{"early:starting", "late:starting", "tie:starting", "listener:starting"}, log[:4])

	var priorities []int
	for _, p := range d.Participants() {
		priorities = append(priorities, p.Priority())
	}
	assert.Equal(t, []int{-1, 10, 10}, priorities)
}

func TestParticipants_AddRemove(t *testing.T) {
	var log []string
	d := dialogue.New(compileGraph(t, "addremove", "NPC: Hi\n"))
	a := &recorder{name: "a", priority: 5, log: &log}
	b := &recorder{name: "b", priority: 1, log: &log}
	d.AddParticipant(a)
	d.AddParticipant(b)
	assert.Equal(t, []dialogue.Participant{b, a}, d.Participants())

	d.RemoveParticipant(b)
	assert.Equal(t, []dialogue.Participant{a}, d.Participants())

	d.SetParticipants()
	assert.Empty(t, d.Participants())
}

func TestParticipants_VariableRequestedListenersFirst(t *testing.T) {
	g := compileGraph(t, "request", "NPC: You are {Name}\n")
	var order []string
	p := &recorder{name: "participant", log: &order, onEvent: func(d *dialogue.Dialogue, e dialogue.Event) {
		if r, ok := e.(dialogue.VariableRequestedEvent); ok && r.Name == "Name" {
			d.SetVariableText("Name", "from participant")
		}
	}}
	d := dialogue.New(g,
		dialogue.WithParticipants(p),
		dialogue.WithListener(dialogue.Listener{
			OnVariableRequested: func(d *dialogue.Dialogue, e dialogue.VariableRequestedEvent) {
				order = append(order, "listener:"+string(e.Kind()))
				d.SetVariableText(e.Name, "from listener")
			},
		}),
	)
	d.Start("")
	order = nil

	assert.Equal(t, "You are from participant", d.Text())
	var requested []string
	for _, entry := range order {
		if strings.HasSuffix(entry, string(dialogue.KindVariableRequested)) {
			requested = append(requested, entry)
		}
	}
	assert.Equal(t, []string{"listener:variable_requested", "participant:variable_requested"}, requested)
}

func TestParticipants_ChoiceLifecycle(t *testing.T) {
	g := loadGraph(t, "simple")
	var kinds []dialogue.EventKind
	var lines []dialogue.SpeakerLineEvent
	var chosen []dialogue.ChoiceMadeEvent
	finished := 0
	d := dialogue.New(g, dialogue.WithListener(dialogue.Listener{
		OnSpeakerLine: func(_ *dialogue.Dialogue, e dialogue.SpeakerLineEvent) {
			kinds = append(kinds, e.Kind())
			lines = append(lines, e)
		},
		OnChoice: func(_ *dialogue.Dialogue, e dialogue.ChoiceMadeEvent) {
			kinds = append(kinds, e.Kind())
			chosen = append(chosen, e)
		},
		OnProceeding: func(_ *dialogue.Dialogue, e dialogue.ProceedingEvent) { kinds = append(kinds, e.Kind()) },
		OnFinished:   func(*dialogue.Dialogue, dialogue.FinishedEvent) { finished++ },
	}))

	d.Start("")
	require.True(t, d.Continue())
	require.True(t, d.Choose(0))
	require.False(t, d.Continue())

	assert.Equal(t, []dialogue.EventKind{
		dialogue.KindSpeakerLine,
		dialogue.KindProceeding,
		dialogue.KindSpeakerLine,
		dialogue.KindChoiceMade,
		dialogue.KindProceeding,
		dialogue.KindSpeakerLine,
		dialogue.KindProceeding,
	}, kinds)
	require.Len(t, lines, 3)
	assert.Equal(t, "Player", lines[0].SpeakerID)
	assert.Equal(t, 3, lines[1].Choices)
	require.Len(t, chosen, 1)
	assert.Equal(t, 0, chosen[0].Index)
	assert.NotEmpty(t, chosen[0].TextID)
	assert.Equal(t, 1, finished)
}

func TestVariables_ChangedOnlyOnChange(t *testing.T) {
	g := compileGraph(t, "vars", "NPC: Hi\n[set Count 1]\nNPC: Again\n")
	var changes []dialogue.VariableChangedEvent
	d := dialogue.New(g, dialogue.WithListener(dialogue.Listener{
		OnVariableChanged: func(_ *dialogue.Dialogue, e dialogue.VariableChangedEvent) { changes = append(changes, e) },
	}))

	d.SetVariableInt("Count", 1)
	d.SetVariableInt("Count", 1)
	require.Len(t, changes, 1)
	assert.False(t, changes[0].FromScript)

	d.Start("")
	require.True(t, d.Continue())
	assert.Len(t, changes, 1, "script set to the same value raises nothing")

	d.SetVariableFloat("Count", 1)
	require.Len(t, changes, 2, "a type change is a change")
	assert.Equal(t, domain.TypeFloat, changes[1].Value.Type())

	d.SetVariableInt("Count", 2)
	d.Restart(false, "", false)
	require.True(t, d.Continue())
	require.Len(t, changes, 4)
	assert.True(t, changes[3].FromScript)
	assert.Equal(t, int64(1), changes[3].Value.Int())

	d.UnsetVariable("Count")
	assert.True(t, d.Variable("Count").IsEmpty())
}

func TestVariables_EmptyOnUnsetIsNoChange(t *testing.T) {
	g := compileGraph(t, "vars", "NPC: Hi\n")
	var changes []dialogue.VariableChangedEvent
	d := dialogue.New(g, dialogue.WithListener(dialogue.Listener{
		OnVariableChanged: func(_ *dialogue.Dialogue, e dialogue.VariableChangedEvent) { changes = append(changes, e) },
	}))

	d.SetVariable("Missing", domain.Value{})
	assert.Empty(t, changes)
	assert.NotContains(t, d.Variables(), "Missing")

	d.SetVariableText("Name", "Ada")
	d.SetVariable("Name", domain.Value{})
	require.Len(t, changes, 2, "clearing a set variable is a change")
	assert.True(t, changes[1].Value.IsEmpty())
	assert.True(t, d.Variable("Name").IsEmpty())
}
