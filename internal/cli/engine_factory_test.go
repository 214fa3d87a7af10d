package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greeting = "NPC: Hello {Name}\n" +
	"\t* Wave\n" +
	"\t\tNPC: Bye\n" +
	"\t* Stay\n" +
	"\t\tNPC: Suit yourself\n"

func writeScript(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name+".sud")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))

	tests := []struct {
		name      string
		cfg       config.StoreConfig
		hasLocker bool
		wantErr   bool
	}{
		{name: "Memory", cfg: config.StoreConfig{Driver: "memory"}},
		{name: "Default", cfg: config.StoreConfig{}},
		{name: "File", cfg: config.StoreConfig{Driver: "file", Path: t.TempDir()}},
		{name: "SQLite", cfg: config.StoreConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "s.db")}},
		{name: "Redis", cfg: config.StoreConfig{Driver: "redis", Addr: mr.Addr(), Prefix: "test", TTL: "1h"}, hasLocker: true},
		{name: "Redis URL", cfg: config.StoreConfig{Driver: "redis", Addr: "redis://" + mr.Addr() + "/0", Prefix: "test"}, hasLocker: true},
		{name: "Bad TTL", cfg: config.StoreConfig{Driver: "redis", Addr: mr.Addr(), TTL: "soon"}, wantErr: true},
		{name: "Postgres Without DSN", cfg: config.StoreConfig{Driver: "postgres"}, wantErr: true},
		{name: "Unknown", cfg: config.StoreConfig{Driver: "etcd"}, wantErr: true},
		{name: "Encrypted And Redacted", cfg: config.StoreConfig{Driver: "file", Path: t.TempDir(), EncryptionKey: key, FallbackKeys: []string{key}, Redact: []string{"(?i)password"}}},
		{name: "Short Key", cfg: config.StoreConfig{EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short"))}, wantErr: true},
		{name: "Key Not Base64", cfg: config.StoreConfig{EncryptionKey: "%%%"}, wantErr: true},
		{name: "Bad Redact Pattern", cfg: config.StoreConfig{Redact: []string{"("}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be, err := OpenBackend(ctx, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer be.Close()
			assert.Equal(t, tt.hasLocker, be.Locker != nil)

			s := domain.NewSession("s1", "greeting")
			require.NoError(t, be.Store.Save(ctx, s))
			ids, err := be.Store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"s1"}, ids)
		})
	}
}

func TestResolveScript(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "inn/keeper", greeting)

	gotDir, name := resolveScript(path, "scripts")
	assert.Equal(t, filepath.Join(dir, "inn"), gotDir)
	assert.Equal(t, "keeper", name)

	gotDir, name = resolveScript("inn/keeper.sud", "scripts")
	assert.Equal(t, "scripts", gotDir)
	assert.Equal(t, "inn/keeper", name)
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"Gold=10", "Rate=0.5", "Brave=true", `Name="Ada"`, "Title=Sir Knight"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntValue(10), vars["Gold"])
	assert.Equal(t, domain.FloatValue(0.5), vars["Rate"])
	assert.Equal(t, domain.BoolValue(true), vars["Brave"])
	assert.Equal(t, domain.TextValue("Ada"), vars["Name"])
	assert.Equal(t, domain.TextValue("Sir Knight"), vars["Title"])

	_, err = parseVars([]string{"novalue"})
	assert.Error(t, err)
}

func TestRunSession_Headless(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "greeting", greeting)
	t.Chdir(dir)

	var out bytes.Buffer
	err := RunSession(RunOptions{
		Script:   path,
		Headless: true,
		Vars:     []string{`Name="Ada"`},
		In:       strings.NewReader("2\n"),
		Out:      &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "NPC: Hello Ada\n  1) Wave\n  2) Stay\nNPC: Suit yourself\n[end]\n", out.String())
}

func TestRunSession_ResumesSession(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "greeting", greeting)
	t.Chdir(dir)

	run := func(input string) string {
		var out bytes.Buffer
		err := RunSession(RunOptions{
			Script:    "greeting",
			SessionID: "player",
			Headless:  true,
			In:        strings.NewReader(input),
			Out:       &out,
		})
		require.NoError(t, err)
		return out.String()
	}

	first := run("")
	assert.Contains(t, first, "Session 'player' active.")
	assert.NotContains(t, first, "[end]", "input ran out on the choice")

	second := run("1\n")
	assert.Contains(t, second, "Resuming session 'player'.")
	assert.Contains(t, second, "NPC: Bye")
	assert.Contains(t, second, "[end]")

	cfg := config.Default()
	cfg.Store.Driver = "file"
	s, err := InspectSession(context.Background(), &cfg, "player")
	require.NoError(t, err)
	assert.True(t, s.Ended())
	assert.Equal(t, "greeting", s.Script)
}
