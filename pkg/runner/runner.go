package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// quitCommands stop the loop without ending the dialogue, so a persisted
// session can be resumed later.
var quitCommands = map[string]bool{"q": true, "quit": true, "exit": true}

// Runner drives a dialogue from an IOHandler until it ends.
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// Store is the persistence adapter for resumable play.
	// If nil, the dialogue is ephemeral.
	Store     ports.StateStore
	SessionID string

	// Headless advances plain lines without reading input.
	Headless bool
}

// NewRunner creates a Runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run plays d until it ends, the input is exhausted, the player quits or
// ctx is canceled. d must already be started (or restored).
// Exhausted input and quitting are not errors.
func (r *Runner) Run(ctx context.Context, d *dialogue.Dialogue) error {
	// Persist the starting point so quitting on the first line can resume.
	if err := r.save(ctx, d); err != nil {
		return fmt.Errorf("critical persistence error: %w", err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsEnded() {
			if err := r.save(ctx, d); err != nil {
				return err
			}
			return r.Handler.SystemOutput(ctx, "end")
		}

		view := d.View()
		if err := r.Handler.Output(ctx, view); err != nil {
			return fmt.Errorf("output error: %w", err)
		}

		if len(view.Choices) == 0 && r.Headless {
			d.Continue()
			if err := r.save(ctx, d); err != nil {
				return err
			}
			continue
		}

		index, stop, err := r.readChoice(ctx, view)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}

		if len(view.Choices) == 0 {
			d.Continue()
		} else if !d.Choose(index) {
			continue
		}
		if err := r.save(ctx, d); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
	}
}

// readChoice reads until it gets a usable answer. Plain lines accept any
// input (usually just Enter); choice lines need a number in range.
func (r *Runner) readChoice(ctx context.Context, view dialogue.View) (index int, stop bool, err error) {
	for {
		text, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, true, nil
			}
			return 0, false, err
		}
		text = strings.TrimSpace(text)
		if quitCommands[strings.ToLower(text)] {
			return 0, true, nil
		}
		if len(view.Choices) == 0 {
			return 0, false, nil
		}
		if i, ok := choiceIndex(text, len(view.Choices)); ok {
			return i, false, nil
		}
		if err := r.Handler.SystemOutput(ctx, fmt.Sprintf("choose 1-%d", len(view.Choices))); err != nil {
			return 0, false, err
		}
	}
}

func (r *Runner) save(ctx context.Context, d *dialogue.Dialogue) error {
	if r.Store == nil || r.SessionID == "" {
		return nil
	}
	s := &domain.Session{
		ID:        r.SessionID,
		Script:    d.Graph().Name(),
		State:     d.SavedState(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.Store.Save(ctx, s); err != nil {
		return err
	}
	r.Logger.Debug("state saved", "session_id", r.SessionID, "text_id", s.State.TextNodeID)
	return nil
}
