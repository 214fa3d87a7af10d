package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	contract "github.com/aretw0/parley/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_Contract(t *testing.T) {
	dir := t.TempDir()
	data := map[string][]byte{
		"tavern":     []byte("NPC: Welcome\n"),
		"inn/keeper": []byte("Keeper: Rooms are two gold.\n"),
	}
	for name, body := range data {
		path := filepath.Join(dir, filepath.FromSlash(name)+file.ScriptExt)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, body, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# scripts"), 0o644))

	contract.ScriptSourceContractTest(t, file.NewSource(dir), data)
}

func TestFileSource_RejectsEscapes(t *testing.T) {
	src := file.NewSource(t.TempDir())
	for _, name := range []string{"", "../secret", "/etc/passwd"} {
		_, err := src.Read(name)
		assert.ErrorIs(t, err, domain.ErrScriptNotFound, name)
	}
}
