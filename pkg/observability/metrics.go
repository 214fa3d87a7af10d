package observability

import (
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPriority places the metrics participant after gameplay participants,
// so it records the values they settle on.
const MetricsPriority = 1000

// Metrics is a dialogue participant that counts what happens in conversations.
// One Metrics value can observe any number of dialogues.
type Metrics struct {
	lines     *prometheus.CounterVec
	choices   *prometheus.CounterVec
	events    *prometheus.CounterVec
	variables *prometheus.CounterVec
	starts    *prometheus.CounterVec
	finished  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_speaker_lines_total",
			Help: "Speaker lines reached, by script and speaker",
		}, []string{"script", "speaker"}),
		choices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_choices_total",
			Help: "Choices made, by script",
		}, []string{"script"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_script_events_total",
			Help: "Script events raised, by script and event name",
		}, []string{"script", "event"}),
		variables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_variable_changes_total",
			Help: "Variable changes, by script and origin (script or host)",
		}, []string{"script", "origin"}),
		starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_dialogues_started_total",
			Help: "Dialogue starts and restarts, by script",
		}, []string{"script"}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_dialogues_finished_total",
			Help: "Dialogues that reached their end, by script",
		}, []string{"script"}),
	}
	for _, c := range []prometheus.Collector{m.lines, m.choices, m.events, m.variables, m.starts, m.finished} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Priority() int { return MetricsPriority }

func (m *Metrics) OnDialogueEvent(d *dialogue.Dialogue, e dialogue.Event) {
	name := d.Graph().Name()
	switch e := e.(type) {
	case dialogue.StartingEvent:
		m.starts.WithLabelValues(name).Inc()
	case dialogue.SpeakerLineEvent:
		m.lines.WithLabelValues(name, e.SpeakerID).Inc()
	case dialogue.ChoiceMadeEvent:
		m.choices.WithLabelValues(name).Inc()
	case dialogue.ScriptEvent:
		m.events.WithLabelValues(name, e.Name).Inc()
	case dialogue.VariableChangedEvent:
		origin := "host"
		if e.FromScript {
			origin = "script"
		}
		m.variables.WithLabelValues(name, origin).Inc()
	case dialogue.FinishedEvent:
		m.finished.WithLabelValues(name).Inc()
	}
}
