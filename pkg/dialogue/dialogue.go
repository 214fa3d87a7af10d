package dialogue

import (
	"log/slog"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/expr"
	"github.com/aretw0/parley/pkg/script"
)

// speakerNamePrefix is the variable namespace holding speaker display names.
const speakerNamePrefix = "SpeakerName."

// Option configures a Dialogue.
type Option func(*Dialogue)

// WithLogger sets the logger used for runtime script errors.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dialogue) {
		d.logger = logger
	}
}

// WithParticipants attaches participants before the header runs.
func WithParticipants(ps ...Participant) Option {
	return func(d *Dialogue) {
		d.participants = append(d.participants, ps...)
	}
}

// WithListener attaches a listener before the header runs.
func WithListener(l Listener) Option {
	return func(d *Dialogue) {
		d.listeners = append(d.listeners, l)
	}
}

// Dialogue is one running conversation over a shared, read-only graph.
// It is not safe for concurrent use; callers serialize access.
type Dialogue struct {
	graph  *script.Graph
	logger *slog.Logger

	current      *script.Node
	choices      []script.Edge
	vars         domain.Variables
	choicesTaken map[string]struct{}

	participants []Participant
	listeners    []Listener
}

// New creates a dialogue over g and runs the script header.
// The dialogue is idle until Start is called.
func New(g *script.Graph, opts ...Option) *Dialogue {
	d := &Dialogue{
		graph:        g,
		logger:       logging.NewNop(),
		vars:         make(domain.Variables),
		choicesTaken: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("script", g.Name())
	d.sortParticipants()
	d.initVariables()
	return d
}

// Graph returns the script this dialogue runs.
func (d *Dialogue) Graph() *script.Graph { return d.graph }

func (d *Dialogue) initVariables() {
	d.vars = make(domain.Variables)
	d.runHeader()
}

func (d *Dialogue) runHeader() {
	d.runUntilNextSpeakerNodeOrEnd(d.graph.HeaderNode(), false)
}

// Start begins the dialogue at label, or at the top when label is empty.
// It does nothing while the dialogue is on a speaker line, so hosts can call
// it unconditionally after restoring a saved state. Variables are neither
// reset nor re-initialised, so values set before Start override the header.
func (d *Dialogue) Start(label string) {
	if d.current != nil {
		return
	}
	d.Restart(false, label, false)
}

// Restart jumps to label (or the top). With resetState every variable and
// remembered choice is cleared and the header re-run; otherwise the header
// is re-run only when rerunHeader is set.
func (d *Dialogue) Restart(resetState bool, label string, rerunHeader bool) {
	if resetState {
		d.ResetState(true, true, true)
	}
	d.raise(StartingEvent{Label: label})
	if !resetState && rerunHeader {
		d.runHeader()
	}

	start := d.graph.FirstNode()
	if label != "" {
		switch n := d.graph.NodeByLabel(label); {
		case n == nil:
			d.logger.Error("no start label in dialogue", "label", label)
		case n.Type == script.NodeChoice:
			d.logger.Error("label cannot be used as a start point, it points to a choice", "label", label)
		default:
			start = n
		}
	}
	d.runUntilNextSpeakerNodeOrEnd(start, true)
}

// ResetState clears the selected parts of the runtime state.
// Resetting variables re-runs the header.
func (d *Dialogue) ResetState(variables, position, choicesTaken bool) {
	if variables {
		d.initVariables()
	}
	if position {
		d.setCurrentSpeakerNode(nil, true)
	}
	if choicesTaken {
		d.choicesTaken = make(map[string]struct{})
	}
}

func stopsAt(t script.NodeType) bool {
	return t != script.NodeSetVariable && t != script.NodeSelect && t != script.NodeEvent
}

// runUntilNextSpeakerNodeOrEnd runs auto nodes from next until a speaker line
// or the end is reached.
func (d *Dialogue) runUntilNextSpeakerNodeOrEnd(next *script.Node, raiseAtEnd bool) {
	for next != nil && !stopsAt(next.Type) {
		next = d.runNode(next)
	}
	switch {
	case next == nil:
		d.setCurrentSpeakerNode(nil, !raiseAtEnd)
	case next.Type == script.NodeText:
		d.setCurrentSpeakerNode(next, false)
	default:
		d.logger.Error("expected a speaker line but reached another node", "line", next.Line, "type", next.Type)
		d.setCurrentSpeakerNode(nil, true)
	}
}

func (d *Dialogue) runNode(n *script.Node) *script.Node {
	switch n.Type {
	case script.NodeSelect:
		return d.runSelectNode(n)
	case script.NodeSetVariable:
		return d.runSetVariableNode(n)
	case script.NodeEvent:
		return d.runEventNode(n)
	}
	d.logger.Error("attempted to run a non-runnable node", "line", n.Line, "type", n.Type)
	return nil
}

func (d *Dialogue) runSelectNode(n *script.Node) *script.Node {
	for _, e := range n.Edges {
		if e.Condition == nil {
			continue
		}
		if d.evaluateCondition(e.Condition, e.Line) {
			return d.graph.Target(e)
		}
	}
	// No satisfied branch ends this path.
	return nil
}

func (d *Dialogue) runSetVariableNode(n *script.Node) *script.Node {
	if n.Expr != nil {
		d.raiseVariablesRequested(n.Expr.VariableNames())
		v, err := n.Expr.Evaluate(d.vars)
		if err != nil {
			d.logger.Error("set failed", "line", n.Line, "variable", n.Identifier, "error", err)
		} else {
			d.setVariable(n.Identifier, v, true)
		}
	}
	return d.graph.NextNode(n)
}

func (d *Dialogue) runEventNode(n *script.Node) *script.Node {
	args := make([]domain.Value, 0, len(n.Args))
	for _, a := range n.Args {
		d.raiseVariablesRequested(a.VariableNames())
		v, err := a.Evaluate(d.vars)
		if err != nil {
			d.logger.Error("event argument failed", "line", n.Line, "event", n.EventName, "error", err)
		}
		args = append(args, v)
	}
	d.raise(ScriptEvent{Name: n.EventName, Args: args})
	return d.graph.NextNode(n)
}

func (d *Dialogue) evaluateCondition(cond *expr.Expr, line int) bool {
	d.raiseVariablesRequested(cond.VariableNames())
	ok, err := cond.EvaluateBool(d.vars)
	if err != nil {
		d.logger.Error("condition failed", "line", line, "error", err)
		return false
	}
	return ok
}

func (d *Dialogue) setCurrentSpeakerNode(n *script.Node, quietly bool) {
	d.current = n
	d.updateChoices()
	if quietly {
		return
	}
	if n != nil {
		d.raise(SpeakerLineEvent{SpeakerID: n.Speaker, TextID: n.TextID, Choices: len(d.choices)})
	} else {
		d.raise(FinishedEvent{})
	}
}

func (d *Dialogue) updateChoices() {
	d.choices = d.choices[:0]
	if d.current == nil {
		return
	}
	if d.current.HasChoices {
		d.appendChoices(d.graph.NextChoiceNode(d.current))
		return
	}
	if len(d.current.Edges) > 0 {
		// Plain progression is a single choice with no text.
		d.choices = append(d.choices, d.current.Edges[0])
	}
}

// appendChoices collects the options under a choice or select node. Only the
// first satisfied condition of a select contributes; chained nodes always do.
func (d *Dialogue) appendChoices(n *script.Node) {
	if n == nil {
		return
	}
	for _, e := range n.Edges {
		switch e.Type {
		case script.EdgeDecision:
			d.choices = append(d.choices, e)
		case script.EdgeCondition:
			if e.Condition != nil && d.evaluateCondition(e.Condition, e.Line) {
				d.appendChoices(d.graph.Target(e))
				return
			}
		case script.EdgeChained:
			d.appendChoices(d.graph.Target(e))
		default:
			d.logger.Error("unexpected edge among choices", "line", n.Line, "type", e.Type)
		}
	}
}

// runUntilNextChoiceNode runs the set and event nodes between the current
// line and its choice node.
func (d *Dialogue) runUntilNextChoiceNode(from *script.Node) *script.Node {
	if from == nil || len(from.Edges) != 1 {
		return nil
	}
	next := d.graph.NextNode(from)
	for next != nil && !stopsAt(next.Type) {
		next = d.runNode(next)
	}
	return next
}

// Continue advances past a line with at most one option. It returns false
// once the dialogue has ended. With several choices available it does
// nothing, since the player must Choose.
func (d *Dialogue) Continue() bool {
	if len(d.choices) == 1 {
		return d.Choose(0)
	}
	return !d.IsEnded()
}

// Choose takes option index of the current line and runs to the next line.
// It returns false when the index is invalid or the dialogue has ended.
func (d *Dialogue) Choose(index int) bool {
	if index < 0 || index >= len(d.choices) {
		d.logger.Error("invalid choice index", "index", index, "choices", len(d.choices))
		return false
	}
	choice := d.choices[index]
	if d.current.HasChoices {
		d.choicesTaken[choice.TextID] = struct{}{}
		d.raise(ChoiceMadeEvent{Index: index, TextID: choice.TextID})
		d.raise(ProceedingEvent{})
		d.runUntilNextChoiceNode(d.current)
	} else {
		d.raise(ProceedingEvent{})
	}
	d.runUntilNextSpeakerNodeOrEnd(d.graph.Target(choice), true)
	return !d.IsEnded()
}

// IsEnded reports whether the dialogue is not on any speaker line.
func (d *Dialogue) IsEnded() bool { return d.current == nil }

// CurrentNode returns the speaker line node, or nil once ended.
func (d *Dialogue) CurrentNode() *script.Node { return d.current }

// SpeakerID returns the speaker of the current line.
func (d *Dialogue) SpeakerID() string {
	if d.current == nil {
		return ""
	}
	return d.current.Speaker
}

// SpeakerDisplayName returns the text variable SpeakerName.<id> when set,
// otherwise the speaker id.
func (d *Dialogue) SpeakerDisplayName() string {
	id := d.SpeakerID()
	if v, ok := d.vars[speakerNamePrefix+id]; ok {
		if v.Type() == domain.TypeText && v.Text() != "" {
			return v.Text()
		}
		if v.Type() != domain.TypeText {
			d.logger.Error("speaker name variable is not text", "variable", speakerNamePrefix+id, "type", v.Type())
		}
	}
	return id
}

// Text returns the current line with its {Name} parameters filled in.
func (d *Dialogue) Text() string {
	if d.current == nil {
		return ""
	}
	return d.resolveText(d.current.Text, d.current.Params)
}

// NumberOfChoices counts the options of the current line. A line without
// real choices has one option with empty text, taken by Continue.
func (d *Dialogue) NumberOfChoices() int { return len(d.choices) }

// Choices returns the options of the current line.
func (d *Dialogue) Choices() []script.Edge {
	return append([]script.Edge(nil), d.choices...)
}

// ChoiceText returns the text of option index with parameters filled in.
func (d *Dialogue) ChoiceText(index int) string {
	if index < 0 || index >= len(d.choices) {
		d.logger.Error("invalid choice index", "index", index, "choices", len(d.choices))
		return ""
	}
	c := d.choices[index]
	return d.resolveText(c.Text, c.Params)
}

// IsChoiceTaken reports whether option index was picked at any point before.
func (d *Dialogue) IsChoiceTaken(index int) bool {
	if index < 0 || index >= len(d.choices) {
		return false
	}
	_, ok := d.choicesTaken[d.choices[index].TextID]
	return ok
}

// ParametersInUse lists the parameters of the current line and its options.
func (d *Dialogue) ParametersInUse() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(names []string) {
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	if d.current != nil {
		add(d.current.Params)
	}
	for _, c := range d.choices {
		add(c.Params)
	}
	return out
}

// resolveText substitutes {Name} with variable values. Unset parameters are
// left as written.
func (d *Dialogue) resolveText(text string, params []string) string {
	if len(params) == 0 {
		return text
	}
	d.raiseVariablesRequested(params)
	pairs := make([]string, 0, len(params)*2)
	for _, p := range params {
		if v, ok := d.vars[p]; ok {
			pairs = append(pairs, "{"+p+"}", v.String())
		}
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
