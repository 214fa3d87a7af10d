package library_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_CachesByContent(t *testing.T) {
	src := memory.NewSource(map[string]string{"tavern": "NPC: Welcome\n"})
	lib := library.New(src)

	g1, err := lib.Get("tavern")
	require.NoError(t, err)
	g2, err := lib.Get("tavern")
	require.NoError(t, err)
	assert.Same(t, g1, g2, "unchanged content returns the cached graph")

	src.Put("tavern", "NPC: Welcome back\n")
	g3, err := lib.Get("tavern")
	require.NoError(t, err)
	assert.NotSame(t, g1, g3, "edited content recompiles")
	assert.Equal(t, "Welcome back", g3.FirstNode().Text)

	lib.Invalidate("tavern")
	assert.Equal(t, 0, lib.Len())
}

func TestLibrary_CompileError(t *testing.T) {
	src := memory.NewSource(map[string]string{"broken": "NPC: Hi\n[goto nowhere]\n"})
	lib := library.New(src)

	_, err := lib.Get("broken")
	assert.ErrorIs(t, err, domain.ErrCompileFailed)
	var ce *domain.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "broken", ce.Source)

	diags, err := lib.Diagnostics("broken")
	require.NoError(t, err)
	assert.True(t, diags.HasErrors())
}

func TestLibrary_NotFound(t *testing.T) {
	lib := library.New(memory.NewSource(nil))
	_, err := lib.Get("nope")
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}

func TestLibrary_Eviction(t *testing.T) {
	src := memory.NewSource(map[string]string{
		"a": "NPC: A\n",
		"b": "NPC: B\n",
		"c": "NPC: C\n",
	})
	lib := library.New(src, library.WithCacheSize(2))
	for _, name := range []string{"a", "b", "c"} {
		_, err := lib.Get(name)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, lib.Len())
}

func TestLibrary_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tavern.sud"), []byte("NPC: Hi\n"), 0o644))

	lib := library.NewDir(dir)
	names, err := lib.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"tavern"}, names)

	g, err := lib.Get("tavern")
	require.NoError(t, err)
	assert.Equal(t, "tavern", g.Name())
}
