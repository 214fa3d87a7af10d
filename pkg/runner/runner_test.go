package runner_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleGraph(t *testing.T) *script.Graph {
	t.Helper()
	src, err := os.ReadFile("../dialogue/testdata/simple.sud")
	require.NoError(t, err)
	g, diags := compiler.Compile("simple", src)
	require.False(t, diags.HasErrors(), "%v", diags.List)
	return g
}

func TestRunner_PlaysToEnd(t *testing.T) {
	d := dialogue.New(simpleGraph(t))
	d.Start("")

	var out bytes.Buffer
	h := runner.NewTextHandler(strings.NewReader("\n1\n\n"), &out, runner.WithPrompt(""))
	r := runner.NewRunner(runner.WithInputHandler(h))

	require.NoError(t, r.Run(context.Background(), d))
	assert.True(t, d.IsEnded())
	assert.Equal(t, `Player: Hello there
NPC: Salutations fellow human
  1) Actually no
  2) Nested option
  3) Another option
NPC: How rude, bye then
[end]
`, out.String())
}

func TestRunner_RetriesInvalidChoice(t *testing.T) {
	d := dialogue.New(simpleGraph(t))
	d.Start("")

	var out bytes.Buffer
	h := runner.NewTextHandler(strings.NewReader("\n9\nabc\n2\n"), &out, runner.WithPrompt(""))
	r := runner.NewRunner(runner.WithInputHandler(h))

	require.NoError(t, r.Run(context.Background(), d), "EOF stops cleanly")
	assert.Equal(t, 2, strings.Count(out.String(), "[choose 1-3]"))
	assert.Equal(t, "Some nesting", d.Text())
}

func TestRunner_QuitKeepsPosition(t *testing.T) {
	d := dialogue.New(simpleGraph(t))
	d.Start("")

	store := memory.NewStore()
	h := runner.NewTextHandler(strings.NewReader("\nquit\n"), &bytes.Buffer{})
	r := runner.NewRunner(runner.WithInputHandler(h), runner.WithStore(store), runner.WithSessionID("p1"))

	require.NoError(t, r.Run(context.Background(), d))
	assert.False(t, d.IsEnded())

	s, err := store.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "simple", s.Script)
	assert.Equal(t, d.CurrentNode().TextID, s.State.TextNodeID)
}

func TestRunner_HeadlessJSON(t *testing.T) {
	d := dialogue.New(simpleGraph(t))
	d.Start("")

	var out bytes.Buffer
	h := runner.NewJSONHandler(strings.NewReader("1\n"), &out, 0)
	r := runner.NewRunner(runner.WithInputHandler(h), runner.WithHeadless(true))

	require.NoError(t, r.Run(context.Background(), d))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"speaker_id":"Player","speaker":"Player","text":"Hello there","continue":true,"ended":false}`, lines[0])
	assert.Contains(t, lines[1], `"Actually no"`)
	assert.Contains(t, lines[2], `"How rude, bye then"`)
	assert.JSONEq(t, `{"system":"end"}`, lines[3])
}

func TestRunner_MaxInputSize(t *testing.T) {
	t.Run("Text Retries", func(t *testing.T) {
		d := dialogue.New(simpleGraph(t))
		d.Start("")

		var out bytes.Buffer
		h := runner.NewTextHandler(strings.NewReader("\n0002\n2\x00\n"), &out,
			runner.WithPrompt(""), runner.WithMaxInputSize(3))
		r := runner.NewRunner(runner.WithInputHandler(h))

		require.NoError(t, r.Run(context.Background(), d))
		assert.Contains(t, out.String(), "Error: input exceeds maximum allowed size: size=4 limit=3")
		assert.Equal(t, "Some nesting", d.Text(), "control characters are stripped before the choice is parsed")
	})

	t.Run("JSON Fails", func(t *testing.T) {
		d := dialogue.New(simpleGraph(t))
		d.Start("")

		h := runner.NewJSONHandler(strings.NewReader("12\n"), &bytes.Buffer{}, 1)
		r := runner.NewRunner(runner.WithInputHandler(h), runner.WithHeadless(true))

		assert.ErrorIs(t, r.Run(context.Background(), d), runner.ErrInputTooLarge)
		assert.Equal(t, "Salutations fellow human", d.Text())
	})
}

func TestRunner_ContextCanceled(t *testing.T) {
	d := dialogue.New(simpleGraph(t))
	d.Start("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{})))
	assert.ErrorIs(t, r.Run(ctx, d), context.Canceled)
}

func TestTextHandler_Formatting(t *testing.T) {
	var out bytes.Buffer
	h := runner.NewTextHandler(strings.NewReader(""), &out,
		runner.WithSpeakerFormat(strings.ToUpper),
		runner.WithTextHandlerRenderer(func(s string) (string, error) { return "  <" + s + ">\n", nil }),
	)

	err := h.Output(context.Background(), dialogue.View{
		Speaker: "Npc",
		Text:    "Hi",
		Choices: []dialogue.ChoiceView{{Index: 0, Text: "Wave", Taken: true}, {Index: 1, Text: "Leave"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "NPC: <Hi>\n  1) Wave (taken)\n  2) Leave\n", out.String())
}
