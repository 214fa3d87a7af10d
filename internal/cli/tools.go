package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/internal/config"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/library"
	"gopkg.in/yaml.v3"
)

// CompileScript compiles a single script file, prints its diagnostics to
// diagOut and, when format is json or yaml, dumps the graph to out.
func CompileScript(path, format string, tabWidth int, out, diagOut io.Writer) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), file.ScriptExt)
	g, diags := compiler.Compile(name, src, compiler.WithTabWidth(tabWidth))
	diags.Source = path
	printDiagnostics(diagOut, path, diags)
	if err := diags.Err(); err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "":
		fmt.Fprintf(out, "%s: %d nodes, %d labels, %d warnings\n", name, g.Len(), len(g.Labels()), len(diags.Warnings()))
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(g.Dump())
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(g.Dump())
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}

// ValidateScripts compiles every script named by paths. A directory checks
// every script inside it. All diagnostics are written to out; the error
// reports how many scripts failed.
func ValidateScripts(paths []string, tabWidth int, out io.Writer) error {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	checked, failed := 0, 0
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		dir, names := filepath.Dir(p), []string{strings.TrimSuffix(filepath.Base(p), file.ScriptExt)}
		if info.IsDir() {
			dir = p
		}
		lib := library.NewDir(dir, library.WithTabWidth(tabWidth))
		if info.IsDir() {
			if names, err = lib.List(); err != nil {
				return err
			}
		}
		for _, name := range names {
			diags, err := lib.Diagnostics(name)
			if err != nil {
				return err
			}
			checked++
			label := filepath.Join(dir, filepath.FromSlash(name)+file.ScriptExt)
			printDiagnostics(out, label, diags)
			if diags.HasErrors() {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d script(s) failed to compile", failed, checked)
	}
	fmt.Fprintf(out, "%d script(s) OK\n", checked)
	return nil
}

func printDiagnostics(w io.Writer, source string, diags domain.Diagnostics) {
	for _, d := range diags.List {
		d.Source = source
		fmt.Fprintln(w, d.String())
	}
}

// GraphOptions selects the script to draw and an optional session overlay.
type GraphOptions struct {
	ConfigPath string
	Script     string
	SessionID  string
}

// RenderGraph writes the Mermaid flowchart of a script to out.
func RenderGraph(ctx context.Context, opts GraphOptions, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	dir, name := resolveScript(opts.Script, cfg.Scripts.Dir)
	lib := library.NewDir(dir, library.WithTabWidth(cfg.Scripts.TabWidth))
	g, err := lib.Get(name)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if opts.SessionID != "" {
		if cfg.Store.Driver == "" || cfg.Store.Driver == "memory" {
			cfg.Store.Driver = "file"
		}
		s, err := InspectSession(ctx, cfg, opts.SessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		overlay = &graph.Overlay{CurrentTextID: s.State.TextNodeID, ChoicesTaken: s.State.ChoicesTaken}
	}
	_, err = io.WriteString(out, graph.GenerateMermaid(g, overlay))
	return err
}
