package parley_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tavern = "===\n" +
	"[set Gold 10]\n" +
	"===\n" +
	":start\n" +
	"NPC: Welcome, {Name}.\n" +
	"NPC: What will it be?\n" +
	"\t* Buy a drink\n" +
	"\t\t[set Gold {Gold} - 2]\n" +
	"\t\tNPC: Cheers.\n" +
	"\t* Leave\n" +
	"\t\t[goto end]\n" +
	"NPC: Come again.\n"

func newEngine(t *testing.T, opts ...parley.Option) *parley.Engine {
	t.Helper()
	eng, err := parley.New(opts...)
	require.NoError(t, err)
	require.NoError(t, eng.Register("tavern", tavern))
	return eng
}

func TestEngine_SessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	view, err := eng.StartSession(ctx, "s1", "tavern", "")
	require.NoError(t, err)
	assert.Equal(t, "s1", view.SessionID)
	assert.Equal(t, "tavern", view.Script)
	assert.Equal(t, "Welcome, {Name}.", view.Text)
	assert.True(t, view.Continue)
	assert.Equal(t, domain.IntValue(10), view.Variables["Gold"])

	_, err = eng.Choose(ctx, "s1", 1)
	require.ErrorIs(t, err, domain.ErrInvalidChoice, "a plain line has a single option")

	view, err = eng.Continue(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "What will it be?", view.Text)
	require.Len(t, view.Choices, 2)
	assert.Equal(t, "Buy a drink", view.Choices[0].Text)

	_, err = eng.Continue(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrChoiceRequired)
	_, err = eng.Choose(ctx, "s1", 5)
	require.ErrorIs(t, err, domain.ErrInvalidChoice)

	view, err = eng.Choose(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, "Cheers.", view.Text)
	assert.Equal(t, domain.IntValue(8), view.Variables["Gold"])

	view, err = eng.Continue(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Come again.", view.Text)

	view, err = eng.Continue(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, view.Ended)

	_, err = eng.Continue(ctx, "s1")
	require.ErrorIs(t, err, domain.ErrSessionEnded)
}

func TestEngine_SetVariableResolvesParameters(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	_, err := eng.StartSession(ctx, "s1", "tavern", "")
	require.NoError(t, err)

	view, err := eng.SetVariable(ctx, "s1", "Name", domain.TextValue("Ada"))
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Ada.", view.Text)

	view, err = eng.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Ada.", view.Text, "host variables persist with the session")
}

func TestEngine_StartSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Generates ID", func(t *testing.T) {
		eng := newEngine(t)
		view, err := eng.StartSession(ctx, "", "tavern", "")
		require.NoError(t, err)
		assert.NotEmpty(t, view.SessionID)

		ids, err := eng.Sessions(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{view.SessionID}, ids)
	})

	t.Run("Existing Session Is Kept", func(t *testing.T) {
		eng := newEngine(t)
		_, err := eng.StartSession(ctx, "s1", "tavern", "")
		require.NoError(t, err)
		_, err = eng.Continue(ctx, "s1")
		require.NoError(t, err)

		view, err := eng.StartSession(ctx, "s1", "tavern", "")
		require.NoError(t, err)
		assert.Equal(t, "What will it be?", view.Text)
	})

	t.Run("Unknown Script", func(t *testing.T) {
		eng := newEngine(t)
		_, err := eng.StartSession(ctx, "s1", "missing", "")
		assert.ErrorIs(t, err, domain.ErrScriptNotFound)
	})

	t.Run("Unknown Session", func(t *testing.T) {
		eng := newEngine(t)
		_, err := eng.Session(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		_, err = eng.Continue(ctx, "nope")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestEngine_ResumesFromSharedStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	first := newEngine(t, parley.WithStore(store))
	_, err := first.StartSession(ctx, "s1", "tavern", "")
	require.NoError(t, err)
	_, err = first.Continue(ctx, "s1")
	require.NoError(t, err)

	second := newEngine(t, parley.WithStore(store))
	view, err := second.Choose(ctx, "s1", 1)
	require.NoError(t, err)
	assert.True(t, view.Ended)

	require.NoError(t, second.EndSession(ctx, "s1"))
	_, err = first.Session(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_Register(t *testing.T) {
	eng, err := parley.New()
	require.NoError(t, err)

	err = eng.Register("broken", "NPC: Hi\n[goto nowhere]\n")
	require.ErrorIs(t, err, domain.ErrCompileFailed)
	var compileErr *domain.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.NotEmpty(t, compileErr.Diagnostics)

	names, err := eng.Scripts()
	require.NoError(t, err)
	assert.Empty(t, names, "a script that fails to compile is not registered")

	lib := library.New(memory.NewSource(map[string]string{"tavern": tavern}))
	eng, err = parley.New(parley.WithLibrary(lib))
	require.NoError(t, err)
	assert.Error(t, eng.Register("other", tavern))
	_, err = eng.Load("tavern")
	assert.NoError(t, err)
}

func TestEngine_ObserversSeeOnlyNewEvents(t *testing.T) {
	ctx := context.Background()
	var lines []string
	eng := newEngine(t, parley.WithListener(dialogue.Listener{
		OnSpeakerLine: func(d *dialogue.Dialogue, e dialogue.SpeakerLineEvent) {
			lines = append(lines, d.Text())
		},
	}))

	_, err := eng.StartSession(ctx, "s1", "tavern", "")
	require.NoError(t, err)
	_, err = eng.Continue(ctx, "s1")
	require.NoError(t, err)
	_, err = eng.Session(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Welcome, {Name}.", "What will it be?"}, lines,
		"restoring a session does not replay its lines")
}

func TestEngine_ParticipantsArePerDialogue(t *testing.T) {
	ctx := context.Background()
	calls := 0
	eng := newEngine(t, parley.WithParticipants(func() []dialogue.Participant {
		calls++
		return nil
	}))

	_, err := eng.StartSession(ctx, "s1", "tavern", "")
	require.NoError(t, err)
	_, err = eng.Continue(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
