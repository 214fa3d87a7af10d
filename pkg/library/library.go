// Package library compiles scripts on demand and caches the resulting graphs.
//
// Graphs are immutable, so one compiled graph is shared by every dialogue
// running that script. The cache is keyed by name and content hash: editing a
// script on disk yields a fresh compile on the next Get, while unchanged
// content returns the very same *script.Graph.
package library

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/script"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled scripts kept by default.
const DefaultCacheSize = 128

type entry struct {
	hash  [sha256.Size]byte
	graph *script.Graph
	diags domain.Diagnostics
}

// Library resolves script names to compiled graphs.
// Safe for concurrent use.
type Library struct {
	source   ports.ScriptSource
	logger   *slog.Logger
	tabWidth int
	size     int

	mu    sync.Mutex
	cache *lru.Cache[string, entry]
}

type Option func(*Library)

// WithCacheSize bounds how many compiled scripts are kept.
func WithCacheSize(n int) Option {
	return func(l *Library) {
		if n > 0 {
			l.size = n
		}
	}
}

// WithTabWidth is passed on to the compiler.
func WithTabWidth(n int) Option {
	return func(l *Library) {
		l.tabWidth = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// New creates a library reading scripts from source.
func New(source ports.ScriptSource, opts ...Option) *Library {
	l := &Library{
		source:   source,
		logger:   logging.NewNop(),
		tabWidth: compiler.DefaultTabWidth,
		size:     DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	cache, err := lru.New[string, entry](l.size)
	if err != nil {
		// Only possible with a non-positive size, which WithCacheSize rejects.
		panic(err)
	}
	l.cache = cache
	return l
}

// NewDir creates a library over a directory of .sud files.
func NewDir(dir string, opts ...Option) *Library {
	return New(file.NewSource(dir), opts...)
}

// Get returns the compiled graph for name. A script with compile errors
// yields a *domain.CompileError; warnings are logged.
func (l *Library) Get(name string) (*script.Graph, error) {
	e, err := l.load(name)
	if err != nil {
		return nil, err
	}
	if err := e.diags.Err(); err != nil {
		return nil, err
	}
	return e.graph, nil
}

// Diagnostics compiles name (or reuses the cached compile) and returns every
// diagnostic without failing on errors.
func (l *Library) Diagnostics(name string) (domain.Diagnostics, error) {
	e, err := l.load(name)
	if err != nil {
		return domain.Diagnostics{}, err
	}
	return e.diags, nil
}

func (l *Library) load(name string) (entry, error) {
	src, err := l.source.Read(name)
	if err != nil {
		return entry{}, err
	}
	hash := sha256.Sum256(src)

	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.cache.Get(name); ok && e.hash == hash {
		return e, nil
	}

	g, diags := compiler.Compile(name, src, compiler.WithTabWidth(l.tabWidth), compiler.WithLogger(l.logger))
	for _, w := range diags.Warnings() {
		l.logger.Warn("script warning", "script", name, "line", w.Line, "msg", w.Message)
	}
	e := entry{hash: hash, graph: g, diags: diags}
	l.cache.Add(name, e)
	return e, nil
}

// List returns the names of every script in the source.
func (l *Library) List() ([]string, error) {
	names, err := l.source.List()
	if err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	return names, nil
}

// Invalidate drops the cached compile of name.
func (l *Library) Invalidate(name string) {
	l.cache.Remove(name)
}

// Len returns the number of cached scripts.
func (l *Library) Len() int {
	return l.cache.Len()
}
