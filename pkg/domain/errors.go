package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrScriptNotFound is returned when a named script does not exist in the library.
var ErrScriptNotFound = errors.New("script not found")

// ErrCompileFailed is wrapped by CompileError so callers can test with errors.Is.
var ErrCompileFailed = errors.New("script failed to compile")

// ErrInvalidChoice is returned by session operations given an out-of-range choice.
var ErrInvalidChoice = errors.New("invalid choice index")

// ErrSessionEnded is returned when acting on a session whose dialogue has finished.
var ErrSessionEnded = errors.New("dialogue has ended")

// ErrChoiceRequired is returned when continuing past a line that offers several choices.
var ErrChoiceRequired = errors.New("line requires a choice")
