package observability

import (
	"log/slog"

	"github.com/aretw0/parley/pkg/dialogue"
)

// LogPriority runs the log participant last, after metrics.
const LogPriority = MetricsPriority + 1

// Logger is a participant writing one debug record per dialogue event.
type Logger struct {
	log *slog.Logger
}

func NewLogger(log *slog.Logger) *Logger {
	return &Logger{log: log}
}

func (l *Logger) Priority() int { return LogPriority }

func (l *Logger) OnDialogueEvent(d *dialogue.Dialogue, e dialogue.Event) {
	l.log.Debug("dialogue event", "script", d.Graph().Name(), "kind", string(e.Kind()), "event", e)
}
