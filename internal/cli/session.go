package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/runner"
)

// RunSession plays a script in the terminal until it ends or the player quits.
// With a session ID the position is saved after every step and resumed on
// the next run.
func RunSession(opts RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	vars, err := parseVars(opts.Vars)
	if err != nil {
		return err
	}

	logger := createLogger(cfg.Log, opts.Debug, true)

	// Sessions need to outlive the process.
	if opts.SessionID != "" && (cfg.Store.Driver == "" || cfg.Store.Driver == "memory") {
		cfg.Store.Driver = "file"
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	dir, name := resolveScript(opts.Script, cfg.Scripts.Dir)
	engine, be, err := createEngine(sigCtx, cfg, EngineOptions{ScriptsDir: dir}, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	g, err := engine.Load(name)
	if err != nil {
		return err
	}
	d := engine.NewDialogue(g)

	resumed := false
	if opts.SessionID != "" {
		if opts.Fresh {
			if err := engine.EndSession(sigCtx, opts.SessionID); err != nil {
				return fmt.Errorf("failed to reset session: %w", err)
			}
		}
		s, err := engine.Inspect(sigCtx, opts.SessionID)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
		case err != nil:
			return fmt.Errorf("failed to load session: %w", err)
		case s.Script != name:
			return fmt.Errorf("session %q belongs to script %q, not %q", opts.SessionID, s.Script, name)
		case !s.Ended():
			d.RestoreSavedState(s.State)
			resumed = true
		}
	}

	applyVars(d, vars)
	if !resumed {
		d.Start(opts.Label)
	}

	interactive := !opts.JSON && !opts.Headless && !opts.Plain && opts.Out == os.Stdout && IsTerminal(os.Stdout)
	if interactive {
		tui.PrintBanner(opts.Out)
	}
	if !opts.JSON && opts.SessionID != "" {
		if resumed {
			printSystemMessage(opts.Out, "Resuming session '%s'.", opts.SessionID)
		} else {
			printSystemMessage(opts.Out, "Session '%s' active.", opts.SessionID)
		}
	}

	var handler runner.IOHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(opts.In, opts.Out, cfg.Runner.MaxInputSize)
	} else {
		textOpts := []runner.TextHandlerOption{runner.WithMaxInputSize(cfg.Runner.MaxInputSize)}
		if interactive {
			textOpts = append(textOpts,
				runner.WithTextHandlerRenderer(tui.NewRenderer()),
				runner.WithSpeakerFormat(tui.NewSpeakerFormat()),
			)
		}
		if opts.Headless {
			textOpts = append(textOpts, runner.WithPrompt(""))
		}
		handler = runner.NewTextHandler(opts.In, opts.Out, textOpts...)
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.Headless),
		runner.WithInputHandler(handler),
	}
	if opts.SessionID != "" {
		runnerOpts = append(runnerOpts, runner.WithStore(engine.Store()), runner.WithSessionID(opts.SessionID))
	}

	runErr := runner.NewRunner(runnerOpts...).Run(sigCtx, d)
	if sigCtx.Signal() != nil && !opts.JSON {
		fmt.Fprintln(opts.Out)
		printSystemMessage(opts.Out, "Interrupted.")
	}
	return handleExecutionError(runErr)
}

func applyVars(d *dialogue.Dialogue, vars map[string]domain.Value) {
	for name, v := range vars {
		d.SetVariable(name, v)
	}
}

// ListSessions returns the IDs held by the configured store.
func ListSessions(ctx context.Context, cfg *config.Config) ([]string, error) {
	be, err := OpenBackend(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	defer be.Close()
	return be.Store.List(ctx)
}

// InspectSession loads one stored session.
func InspectSession(ctx context.Context, cfg *config.Config, id string) (*domain.Session, error) {
	be, err := OpenBackend(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	defer be.Close()
	return be.Store.Load(ctx, id)
}

// RemoveSessions deletes sessions, reporting each one to report.
// It keeps going after a failure and returns the first error.
func RemoveSessions(ctx context.Context, cfg *config.Config, ids []string, report func(id string, err error)) error {
	be, err := OpenBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer be.Close()

	var first error
	for _, id := range ids {
		err := be.Store.Delete(ctx, id)
		report(id, err)
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}
