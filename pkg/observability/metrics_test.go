package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tavern = `NPC: Welcome
    * Drink
        [set Drunk true]
        [event Ordered "ale"]
        NPC: Cheers
    * Leave
Player: Bye
`

func TestMetrics_CountsDialogue(t *testing.T) {
	g, diags := compiler.Compile("tavern", []byte(tavern))
	require.False(t, diags.HasErrors(), "%v", diags.List)

	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	d := dialogue.New(g, dialogue.WithParticipants(m))
	d.Start("")
	require.True(t, d.Choose(0))
	require.True(t, d.Continue())
	require.False(t, d.Continue())

	expected := `
# HELP parley_speaker_lines_total Speaker lines reached, by script and speaker
# TYPE parley_speaker_lines_total counter
parley_speaker_lines_total{script="tavern",speaker="NPC"} 2
parley_speaker_lines_total{script="tavern",speaker="Player"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, bytes.NewBufferString(expected), "parley_speaker_lines_total"))
	for _, name := range []string{"parley_choices_total", "parley_script_events_total", "parley_dialogues_finished_total"} {
		n, err := testutil.GatherAndCount(reg, name)
		require.NoError(t, err)
		assert.Equal(t, 1, n, name)
	}
}

func TestMetrics_DoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestLogger_TracesEvents(t *testing.T) {
	g, diags := compiler.Compile("tavern", []byte(tavern))
	require.False(t, diags.HasErrors())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := dialogue.New(g, dialogue.WithParticipants(observability.NewLogger(logger)))
	d.Start("")

	assert.Contains(t, buf.String(), "kind=starting")
	assert.Contains(t, buf.String(), "kind=speaker_line")
}
