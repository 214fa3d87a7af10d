package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)

	tests := []struct {
		name string
		body string
	}{
		{"truncated", `{"id": "s1", "script": "tav`},
		{"missing state", `{"id": "s1", "script": "tavern"}`},
		{"bad value tag", `{"id": "s1", "script": "tavern", "state": {"text_node_id": "", "variables": {"Gold": {"type": "int", "value": "lots"}}}}`},
		{"unknown type", `{"id": "s1", "script": "tavern", "state": {"text_node_id": "", "variables": {"Gold": {"type": "money", "value": 1}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "s1.json"), []byte(tt.body), 0o644))
			_, err := store.Load(context.Background(), "s1")
			assert.ErrorIs(t, err, file.ErrInvalidSession)
		})
	}
}

func TestFileStore_ListIgnoresTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	require.NoError(t, store.Save(context.Background(), domain.NewSession("s1", "tavern")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-s2-123.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.NewStore(t.TempDir())
	assert.Error(t, store.Save(context.Background(), domain.NewSession("../escape", "tavern")))
	_, err := store.Load(context.Background(), "")
	assert.Error(t, err)
}
