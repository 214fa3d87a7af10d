package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/expr"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	ConfigPath string
	Script     string
	Label      string
	SessionID  string
	Fresh      bool
	Plain      bool
	JSON       bool
	Headless   bool
	Debug      bool
	// Vars are Name=value assignments applied before the dialogue starts.
	Vars []string

	// In and Out default to Stdin and Stdout.
	In  io.Reader
	Out io.Writer
}

// parseVars turns Name=value pairs into typed values. Values are read as
// script literals (numbers, true/false, quoted text, genders); anything
// else is taken as plain text.
func parseVars(pairs []string) (map[string]domain.Value, error) {
	out := make(map[string]domain.Value, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, expected Name=value", p)
		}
		out[name] = parseLiteral(raw)
	}
	return out, nil
}

func parseLiteral(raw string) domain.Value {
	e, err := expr.Parse(raw)
	if err != nil || len(e.VariableNames()) > 0 {
		return domain.TextValue(raw)
	}
	v, err := e.Evaluate(nil)
	if err != nil || v.IsEmpty() {
		return domain.TextValue(raw)
	}
	return v
}
