package tests

import (
	"errors"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// ScriptSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.ScriptSource.
func ScriptSourceContractTest(t *testing.T, source ports.ScriptSource, setupData map[string][]byte) {
	t.Helper()

	t.Run("Read_Success", func(t *testing.T) {
		for name, expectedContent := range setupData {
			content, err := source.Read(name)
			if err != nil {
				t.Fatalf("unexpected error reading script %s: %v", name, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", name, content, expectedContent)
			}
		}
	})

	t.Run("Read_NotFound", func(t *testing.T) {
		_, err := source.Read("non-existent-script")
		if !errors.Is(err, domain.ErrScriptNotFound) {
			t.Errorf("expected ErrScriptNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		names, err := source.List()
		if err != nil {
			t.Fatalf("unexpected error listing scripts: %v", err)
		}

		if len(names) != len(setupData) {
			t.Errorf("expected %d scripts, got %d", len(setupData), len(names))
		}

		lookup := make(map[string]bool)
		for _, name := range names {
			lookup[name] = true
		}

		for name := range setupData {
			if !lookup[name] {
				t.Errorf("script %s missing from list", name)
			}
		}
	})
}
