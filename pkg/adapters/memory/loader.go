package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Source implements ports.ScriptSource using an in-memory map.
// Safe for concurrent use.
type Source struct {
	mu      sync.RWMutex
	scripts map[string][]byte
}

// NewSource creates a new Source with the provided script texts.
func NewSource(data map[string]string) *Source {
	scripts := make(map[string][]byte, len(data))
	for k, v := range data {
		scripts[k] = []byte(v)
	}
	return &Source{scripts: scripts}
}

// Put adds or replaces a script.
func (s *Source) Put(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scripts[name] = []byte(text)
}

// Read returns the script text for name.
func (s *Source) Read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.scripts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrScriptNotFound, name)
	}
	return append([]byte(nil), content...), nil
}

// List returns all available script names.
func (s *Source) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.scripts))
	for k := range s.scripts {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order
	return keys, nil
}
