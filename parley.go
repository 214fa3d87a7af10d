package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/library"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/script"
	"github.com/aretw0/parley/pkg/session"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the Parley library.
// It ties together script compilation, the compiled-graph library and
// persisted sessions, so hosts only deal in session IDs and views.
type Engine struct {
	library      *library.Library
	source       *memory.Source
	store        ports.StateStore
	locker       ports.DistributedLocker
	sessions     *session.Manager
	participants func() []dialogue.Participant
	listeners    []dialogue.Listener
	tabWidth     int
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLibrary injects the script library. Without it the engine keeps
// scripts in memory and Register is the only way to add them.
func WithLibrary(l *library.Library) Option {
	return func(e *Engine) {
		e.library = l
	}
}

// WithStore sets where sessions are persisted (default: in memory).
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of sessions across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithParticipants sets a factory called once per dialogue built by the
// engine. Participants that keep per-dialogue state must be new each call.
func WithParticipants(factory func() []dialogue.Participant) Option {
	return func(e *Engine) {
		e.participants = factory
	}
}

// WithListener adds a listener attached to every dialogue built by the engine.
func WithListener(l dialogue.Listener) Option {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l)
	}
}

// WithTabWidth sets the indent a tab counts for in Compile and Register.
func WithTabWidth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.tabWidth = n
		}
	}
}

// New initializes a new Parley Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		tabWidth: compiler.DefaultTabWidth,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.library == nil {
		e.source = memory.NewSource(nil)
		e.library = library.New(e.source,
			library.WithTabWidth(e.tabWidth),
			library.WithLogger(e.logger),
		)
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)
	return e, nil
}

// Library returns the script library the engine resolves names with.
func (e *Engine) Library() *library.Library { return e.library }

// Store returns the session store.
func (e *Engine) Store() ports.StateStore { return e.store }

// Compile compiles script text without registering it.
func (e *Engine) Compile(name string, text []byte) (*script.Graph, domain.Diagnostics) {
	return compiler.Compile(name, text,
		compiler.WithTabWidth(e.tabWidth),
		compiler.WithLogger(e.logger),
	)
}

// Register adds script text to the engine's in-memory library under name.
// The text must compile. It fails when the engine was given its own library.
func (e *Engine) Register(name, text string) error {
	if e.source == nil {
		return errors.New("engine library is read-only: scripts come from the configured source")
	}
	if _, diags := e.Compile(name, []byte(text)); diags.HasErrors() {
		return diags.Err()
	}
	e.source.Put(name, text)
	e.library.Invalidate(name)
	return nil
}

// Load returns the compiled graph for a script name.
func (e *Engine) Load(name string) (*script.Graph, error) {
	return e.library.Get(name)
}

// Scripts lists the script names available to the engine.
func (e *Engine) Scripts() ([]string, error) {
	return e.library.List()
}

// NewDialogue creates a dialogue over g with the engine's participants
// and listeners attached. The dialogue is idle until Start.
func (e *Engine) NewDialogue(g *script.Graph) *dialogue.Dialogue {
	opts := []dialogue.Option{
		dialogue.WithLogger(e.logger),
		dialogue.WithParticipants(e.newParticipants()...),
	}
	for _, l := range e.listeners {
		opts = append(opts, dialogue.WithListener(l))
	}
	return dialogue.New(g, opts...)
}

func (e *Engine) newParticipants() []dialogue.Participant {
	if e.participants == nil {
		return nil
	}
	return e.participants()
}

// resume rebuilds the dialogue of a stored session. Observers are attached
// after the restore, so re-running the header is not reported to them.
func (e *Engine) resume(s *domain.Session) (*dialogue.Dialogue, error) {
	g, err := e.Load(s.Script)
	if err != nil {
		return nil, fmt.Errorf("failed to load script %q of session %s: %w", s.Script, s.ID, err)
	}
	d := dialogue.New(g, dialogue.WithLogger(e.logger))
	d.RestoreSavedState(s.State)
	d.SetParticipants(e.newParticipants()...)
	for _, l := range e.listeners {
		d.AddListener(l)
	}
	return d, nil
}

// View is a presentation snapshot of a persisted session.
type View struct {
	SessionID string `json:"session_id"`
	Script    string `json:"script"`
	dialogue.View
	Variables domain.Variables `json:"variables,omitempty"`
}

func newView(s *domain.Session, d *dialogue.Dialogue) *View {
	return &View{
		SessionID: s.ID,
		Script:    s.Script,
		View:      d.View(),
		Variables: d.Variables(),
	}
}

// StartSession starts scriptName at label (or the top) under sessionID and
// persists it. An empty sessionID gets a generated one. Starting an ID that
// already exists returns that session unchanged.
func (e *Engine) StartSession(ctx context.Context, sessionID, scriptName, label string) (*View, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	g, err := e.Load(scriptName)
	if err != nil {
		return nil, err
	}

	var view *View
	s, created, err := e.sessions.Create(ctx, sessionID, func() (*domain.Session, error) {
		d := e.NewDialogue(g)
		d.Start(label)
		s := domain.NewSession(sessionID, scriptName)
		s.State = d.SavedState()
		view = newView(s, d)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		e.logger.Info("session started", "session_id", sessionID, "script", scriptName, "label", label)
		return view, nil
	}

	e.logger.Debug("session already exists", "session_id", sessionID, "script", s.Script)
	d, err := e.resume(s)
	if err != nil {
		return nil, err
	}
	return newView(s, d), nil
}

// Session returns the current view of a stored session.
func (e *Engine) Session(ctx context.Context, sessionID string) (*View, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	d, err := e.resume(s)
	if err != nil {
		return nil, err
	}
	return newView(s, d), nil
}

// Inspect returns the raw stored session.
func (e *Engine) Inspect(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Sessions lists stored session IDs.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// Choose takes option index on the current line of a session.
func (e *Engine) Choose(ctx context.Context, sessionID string, index int) (*View, error) {
	return e.act(ctx, sessionID, func(d *dialogue.Dialogue) error {
		if d.IsEnded() {
			return domain.ErrSessionEnded
		}
		if index < 0 || index >= d.NumberOfChoices() {
			return fmt.Errorf("%w: %d (have %d)", domain.ErrInvalidChoice, index, d.NumberOfChoices())
		}
		d.Choose(index)
		return nil
	})
}

// Continue advances a session past a line without several choices.
func (e *Engine) Continue(ctx context.Context, sessionID string) (*View, error) {
	return e.act(ctx, sessionID, func(d *dialogue.Dialogue) error {
		if d.IsEnded() {
			return domain.ErrSessionEnded
		}
		if d.NumberOfChoices() > 1 {
			return domain.ErrChoiceRequired
		}
		d.Continue()
		return nil
	})
}

// SetVariable changes a variable of a session.
func (e *Engine) SetVariable(ctx context.Context, sessionID, name string, v domain.Value) (*View, error) {
	return e.act(ctx, sessionID, func(d *dialogue.Dialogue) error {
		d.SetVariable(name, v)
		return nil
	})
}

// EndSession deletes a stored session.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.logger.Info("session ended", "session_id", sessionID)
	return nil
}

// act runs fn on the session's dialogue and saves the result, all under
// the session lock. Nothing is saved when fn fails.
func (e *Engine) act(ctx context.Context, sessionID string, fn func(*dialogue.Dialogue) error) (*View, error) {
	var view *View
	_, err := e.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		d, err := e.resume(s)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		s.State = d.SavedState()
		view = newView(s, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
