package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// ScriptExt is the file extension of dialogue scripts.
const ScriptExt = ".sud"

// Source implements ports.ScriptSource over a directory of .sud files.
// Script names are paths relative to Dir without the extension, using
// forward slashes, so "inn/keeper" reads Dir/inn/keeper.sud.
type Source struct {
	Dir string
}

// NewSource creates a Source rooted at dir.
func NewSource(dir string) *Source {
	if dir == "" {
		dir = "."
	}
	return &Source{Dir: dir}
}

// Read returns the text of the named script.
func (s *Source) Read(name string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%w: invalid name %q", domain.ErrScriptNotFound, name)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, clean+ScriptExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrScriptNotFound, name)
		}
		return nil, fmt.Errorf("failed to read script %s: %w", name, err)
	}
	return data, nil
}

// List walks Dir and returns every script name, sorted.
func (s *Source) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ScriptExt {
			return nil
		}
		rel, err := filepath.Rel(s.Dir, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(strings.TrimSuffix(rel, ScriptExt)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
