package runner

import (
	"context"

	"github.com/aretw0/parley/pkg/dialogue"
)

// IOHandler defines the strategy for interacting with the player.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the current line and its options.
	Output(ctx context.Context, view dialogue.View) error

	// Input reads a response from the player.
	// It returns io.EOF when there is nothing more to read.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (e.g. invalid input, end of dialogue).
	// This is distinct from dialogue rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms a line before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
