package compiler

import (
	"bufio"
	"bytes"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/expr"
	"github.com/aretw0/parley/pkg/script"
)

// DefaultTabWidth is the indent a tab character counts for.
const DefaultTabWidth = 4

// pending marks an edge whose target is not known yet.
const pending = -2

// Option configures a Compiler.
type Option func(*Compiler)

// WithTabWidth sets how many columns a tab counts for when measuring indentation.
func WithTabWidth(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.tabWidth = n
		}
	}
}

// WithLogger sets the logger used for compile summaries.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// Compiler turns script source into a graph. A Compiler holds the state of
// a single compile and must not be reused; use Compile.
type Compiler struct {
	tabWidth int
	logger   *slog.Logger

	name  string
	lines []string
	diags domain.Diagnostics

	nodes  []pnode
	stack  []*frame
	header struct {
		open, done bool
		first      int
		last       int
	}
	bodyStarted   bool
	firstBody     int
	pendingLabels []string
	labels        map[string]int
	labelLines    map[string]int
	textIDs       map[string]int
}

// pnode is a node under construction. Goto nodes only exist here.
type pnode struct {
	typ        script.NodeType
	isGoto     bool
	gotoLabel  string
	header     bool
	choiceSel  bool
	line       int
	indent     int
	fallIndent int

	speaker, text, textID string
	params                []string
	identifier            string
	expr                  *expr.Expr
	eventName             string
	args                  []*expr.Expr
	labels                []string
	edges                 []pedge
}

type pedge struct {
	script.Edge
	fallFrom   int
	fallIndent int
}

type frameKind int

const (
	frameRoot frameKind = iota
	frameChoice
	frameCond
)

type edgeRef struct{ node, edge int }

// join is a branch tail waiting for the next node of the enclosing block.
// edge < 0 means the node itself needs a continue edge.
type join struct{ node, edge int }

type frame struct {
	kind       frameKind
	threshold  int
	fallIndent int
	last       int
	edge       *edgeRef
	joins      []join
	cond       *condState
}

type condState struct {
	sel     int
	choice  int
	hasElse bool
	tails   []join
	line    int
}

// Compile parses src and returns the compiled graph together with every
// diagnostic found. The graph is nil when any error diagnostic was reported.
func Compile(name string, src []byte, opts ...Option) (*script.Graph, domain.Diagnostics) {
	c := &Compiler{
		tabWidth:   DefaultTabWidth,
		logger:     logging.NewNop(),
		name:       name,
		firstBody:  script.NoTarget,
		labels:     make(map[string]int),
		labelLines: make(map[string]int),
		textIDs:    make(map[string]int),
	}
	c.header.first, c.header.last = script.NoTarget, script.NoTarget
	for _, opt := range opts {
		opt(c)
	}
	c.diags.Source = name
	c.stack = []*frame{{kind: frameRoot, threshold: 0, fallIndent: -1, last: -1}}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		c.lines = append(c.lines, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		c.diags.Errorf(len(c.lines), "reading script: %v", err)
		return nil, c.diags
	}

	for i := range c.lines {
		c.parseLine(i)
	}
	c.finish()

	g := c.build()
	if g == nil {
		c.logger.Debug("script failed to compile", "script", name, "errors", len(c.diags.Errors()))
		return nil, c.diags
	}
	c.logger.Debug("script compiled", "script", name, "nodes", g.Len(), "warnings", len(c.diags.Warnings()))
	return g, c.diags
}

func (c *Compiler) top() *frame { return c.stack[len(c.stack)-1] }

func (c *Compiler) parseLine(i int) {
	lineNo := i + 1
	indent, trimmed := measureIndent(c.lines[i], c.tabWidth)
	if trimmed == "" || isComment(trimmed) {
		return
	}

	if trimmed == "===" {
		c.headerDelimiter(lineNo)
		return
	}
	if c.header.open {
		c.parseHeaderLine(lineNo, trimmed)
		return
	}
	c.bodyStarted = true

	kind, guard := classifyCond(trimmed)
	if kind == condNone || kind == condIf {
		c.popTo(indent, lineNo)
	}

	switch {
	case isChoice(trimmed):
		c.parseChoice(lineNo, indent, trimmed)
	case kind == condIf:
		c.parseIf(i, indent, guard)
	case kind == condElseIf, kind == condElse:
		c.parseElse(lineNo, kind == condElse, guard)
	case kind == condEndIf:
		c.parseEndIf(lineNo)
	case reLabel.MatchString(trimmed):
		c.parseLabel(lineNo, reLabel.FindStringSubmatch(trimmed)[1])
	case reGoto.MatchString(trimmed):
		c.parseGoto(lineNo, indent, reGoto.FindStringSubmatch(trimmed)[1])
	case strings.HasPrefix(strings.ToLower(trimmed), "[set"):
		if n, ok := c.parseSet(lineNo, trimmed); ok {
			n.indent = indent
			c.appendNode(n)
		}
	case strings.HasPrefix(strings.ToLower(trimmed), "[event"):
		c.parseEvent(lineNo, indent, trimmed)
	case reSpeaker.MatchString(trimmed):
		m := reSpeaker.FindStringSubmatch(trimmed)
		c.parseText(lineNo, indent, m[1], m[2])
	default:
		c.parseContinuation(lineNo, indent, trimmed)
	}
}

func (c *Compiler) headerDelimiter(lineNo int) {
	switch {
	case c.header.open:
		c.header.open = false
		c.header.done = true
	case c.header.done:
		c.diags.Errorf(lineNo, "only one header block is allowed")
	case c.bodyStarted:
		c.diags.Errorf(lineNo, "header block must come before any dialogue")
	default:
		c.header.open = true
	}
}

func (c *Compiler) parseHeaderLine(lineNo int, trimmed string) {
	if !strings.HasPrefix(strings.ToLower(trimmed), "[set") {
		c.diags.Errorf(lineNo, "only [set] lines are allowed in the header, got %q", trimmed)
		return
	}
	n, ok := c.parseSet(lineNo, trimmed)
	if !ok {
		return
	}
	n.header = true
	n.fallIndent = -1
	idx := c.addNode(n)
	if c.header.last >= 0 {
		c.link(c.header.last, script.EdgeContinue, idx)
	} else {
		c.header.first = idx
	}
	c.header.last = idx
}

// popTo closes every block the given indent has left.
func (c *Compiler) popTo(indent, lineNo int) {
	for len(c.stack) > 1 && indent < c.top().threshold {
		if c.top().kind == frameCond {
			c.diags.Warnf(c.top().cond.line, "[if] is never closed with [endif]; closing it at line %d", lineNo)
			c.closeCond(c.top())
			continue
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
}

func (c *Compiler) addNode(n pnode) int {
	c.nodes = append(c.nodes, n)
	return len(c.nodes) - 1
}

func (c *Compiler) link(from int, typ script.EdgeType, to int) {
	c.nodes[from].edges = append(c.nodes[from].edges, pedge{Edge: script.Edge{Type: typ, Target: to}})
}

// continues reports whether a node flows into whatever is appended after it.
func continues(n *pnode) bool {
	if n.isGoto {
		return false
	}
	switch n.typ {
	case script.NodeText, script.NodeSetVariable, script.NodeEvent:
		return true
	}
	return false
}

// appendNode adds n to the current block and wires it from whatever precedes it.
func (c *Compiler) appendNode(n pnode) int {
	f := c.top()
	n.fallIndent = f.fallIndent
	idx := c.addNode(n)

	switch {
	case f.edge != nil:
		c.nodes[f.edge.node].edges[f.edge.edge].Target = idx
		f.edge = nil
	case len(f.joins) > 0:
		c.connect(f.joins, idx)
		f.joins = nil
	case f.last >= 0 && continues(&c.nodes[f.last]):
		c.link(f.last, script.EdgeContinue, idx)
	case f.last >= 0 && c.nodes[f.last].typ == script.NodeChoice && !c.nodes[f.last].isGoto &&
		n.indent == c.nodes[f.last].indent && len(c.pendingLabels) == 0:
		c.diags.Warnf(n.line, "line after the choices at the same indent is unreachable")
	}

	for _, l := range c.pendingLabels {
		c.nodes[idx].labels = append(c.nodes[idx].labels, l)
		c.labels[l] = idx
	}
	c.pendingLabels = nil

	if c.firstBody == script.NoTarget && !n.header {
		c.firstBody = idx
	}
	f.last = idx
	return idx
}

func (c *Compiler) connect(joins []join, target int) {
	for _, j := range joins {
		if j.edge < 0 {
			c.link(j.node, script.EdgeContinue, target)
			continue
		}
		c.nodes[j.node].edges[j.edge].Target = target
	}
}

func (c *Compiler) parseText(lineNo, indent int, speaker, rest string) {
	text, id := splitTextID(rest)
	c.appendNode(pnode{
		typ:     script.NodeText,
		line:    lineNo,
		indent:  indent,
		speaker: speaker,
		text:    text,
		textID:  c.textID(id, speaker, text),
		params:  parameterNames(text),
	})
}

// parseContinuation treats an unmarked line after a speaker line as another
// line by the same speaker.
func (c *Compiler) parseContinuation(lineNo, indent int, trimmed string) {
	f := c.top()
	if f.last < 0 || c.nodes[f.last].typ != script.NodeText || c.nodes[f.last].isGoto ||
		indent < c.nodes[f.last].indent {
		c.diags.Errorf(lineNo, "unrecognised line %q", trimmed)
		return
	}
	c.parseText(lineNo, indent, c.nodes[f.last].speaker, trimmed)
}

func (c *Compiler) parseChoice(lineNo, indent int, trimmed string) {
	text, id := splitTextID(strings.TrimSpace(trimmed[1:]))
	if text == "" {
		c.diags.Errorf(lineNo, "choice has no text")
		return
	}
	f := c.top()
	choice := f.last
	if choice < 0 || c.nodes[choice].typ != script.NodeChoice || c.nodes[choice].isGoto || c.nodes[choice].indent != indent {
		choice = c.appendNode(pnode{typ: script.NodeChoice, line: lineNo, indent: indent})
	} else {
		c.attachPendingLabels(choice)
	}

	c.nodes[choice].edges = append(c.nodes[choice].edges, pedge{
		Edge: script.Edge{
			Type:   script.EdgeDecision,
			Target: pending,
			Text:   text,
			TextID: c.textID(id, "*", text),
			Params: parameterNames(text),
			Line:   lineNo,
		},
		fallFrom:   choice,
		fallIndent: indent,
	})
	c.stack = append(c.stack, &frame{
		kind:       frameChoice,
		threshold:  indent + 1,
		fallIndent: indent,
		last:       -1,
		edge:       &edgeRef{node: choice, edge: len(c.nodes[choice].edges) - 1},
	})
}

func (c *Compiler) attachPendingLabels(idx int) {
	for _, l := range c.pendingLabels {
		c.nodes[idx].labels = append(c.nodes[idx].labels, l)
		c.labels[l] = idx
	}
	c.pendingLabels = nil
}

func (c *Compiler) parseGuard(lineNo int, src string) *expr.Expr {
	e, err := expr.Parse(src)
	if err != nil {
		c.diags.Errorf(lineNo, "%v", err)
		return expr.Literal(domain.BoolValue(false))
	}
	return e
}

func (c *Compiler) parseIf(i, indent int, guard string) {
	lineNo := i + 1
	cond := &condState{choice: -1, line: lineNo}
	f := c.top()

	if c.branchesStartWithChoices(i) {
		choice := f.last
		if choice < 0 || c.nodes[choice].typ != script.NodeChoice || c.nodes[choice].isGoto {
			choice = c.appendNode(pnode{typ: script.NodeChoice, line: lineNo, indent: indent})
		} else {
			c.attachPendingLabels(choice)
		}
		cond.choice = choice
		cond.sel = c.addNode(pnode{
			typ:        script.NodeSelect,
			choiceSel:  true,
			line:       lineNo,
			indent:     indent,
			fallIndent: f.fallIndent,
		})
		c.link(choice, script.EdgeChained, cond.sel)
	} else {
		cond.sel = c.appendNode(pnode{typ: script.NodeSelect, line: lineNo, indent: indent})
	}

	c.stack = append(c.stack, &frame{
		kind:       frameCond,
		threshold:  indent,
		fallIndent: f.fallIndent,
		last:       -1,
		cond:       cond,
	})
	c.addBranch(c.top(), lineNo, c.parseGuard(lineNo, guard))
}

// addBranch starts a new guarded branch on the frame's select node.
func (c *Compiler) addBranch(f *frame, lineNo int, guard *expr.Expr) {
	sel := f.cond.sel
	c.nodes[sel].edges = append(c.nodes[sel].edges, pedge{
		Edge:       script.Edge{Type: script.EdgeCondition, Target: pending, Condition: guard, Line: lineNo},
		fallFrom:   sel,
		fallIndent: f.fallIndent,
	})
	f.edge = &edgeRef{node: sel, edge: len(c.nodes[sel].edges) - 1}
	f.last = -1
	f.joins = nil
}

// closeBranch records the loose ends of the branch being built.
func (c *Compiler) closeBranch(f *frame) {
	if f.edge != nil {
		f.cond.tails = append(f.cond.tails, join{node: f.edge.node, edge: f.edge.edge})
		f.edge = nil
	}
	f.cond.tails = append(f.cond.tails, f.joins...)
	f.joins = nil
	if f.last >= 0 && continues(&c.nodes[f.last]) && len(c.nodes[f.last].edges) == 0 {
		f.cond.tails = append(f.cond.tails, join{node: f.last, edge: -1})
	}
}

// condFrame pops blocks until the innermost open [if] is on top.
func (c *Compiler) condFrame() *frame {
	for i := len(c.stack) - 1; i > 0; i-- {
		if c.stack[i].kind == frameCond {
			c.stack = c.stack[:i+1]
			return c.stack[i]
		}
	}
	return nil
}

func (c *Compiler) parseElse(lineNo int, isElse bool, guard string) {
	f := c.condFrame()
	if f == nil {
		c.diags.Errorf(lineNo, "[else] or [elseif] without [if]")
		return
	}
	if f.cond.hasElse {
		c.diags.Errorf(lineNo, "branch after [else]")
		return
	}
	c.closeBranch(f)
	if isElse {
		f.cond.hasElse = true
		c.addBranch(f, lineNo, expr.Literal(domain.BoolValue(true)))
		return
	}
	c.addBranch(f, lineNo, c.parseGuard(lineNo, guard))
}

func (c *Compiler) parseEndIf(lineNo int) {
	f := c.condFrame()
	if f == nil {
		c.diags.Errorf(lineNo, "[endif] without [if]")
		return
	}
	c.closeCond(f)
}

// closeCond ends the [if] block on top of the stack and hands its loose
// ends to the enclosing block.
func (c *Compiler) closeCond(f *frame) {
	c.closeBranch(f)
	cond := f.cond
	c.stack = c.stack[:len(c.stack)-1]
	parent := c.top()

	if cond.choice >= 0 {
		// Empty branches of a choice select contribute no options.
		for _, t := range cond.tails {
			if t.edge >= 0 && c.nodes[t.node].edges[t.edge].Target == pending {
				c.nodes[t.node].edges[t.edge].Target = script.NoTarget
			}
		}
		parent.last = cond.choice
		return
	}

	if !cond.hasElse {
		sel := cond.sel
		c.nodes[sel].edges = append(c.nodes[sel].edges, pedge{
			Edge: script.Edge{
				Type:      script.EdgeCondition,
				Target:    pending,
				Condition: expr.Literal(domain.BoolValue(true)),
				Line:      cond.line,
			},
			fallFrom:   sel,
			fallIndent: parent.fallIndent,
		})
		cond.tails = append(cond.tails, join{node: sel, edge: len(c.nodes[sel].edges) - 1})
	}
	parent.joins = cond.tails
	parent.last = cond.sel
}

// branchesStartWithChoices looks ahead from an [if] line and reports whether
// any branch at this nesting level opens with a choice line.
func (c *Compiler) branchesStartWithChoices(i int) bool {
	depth := 0
	expectFirst := true
	for j := i + 1; j < len(c.lines); j++ {
		_, t := measureIndent(c.lines[j], c.tabWidth)
		if t == "" || isComment(t) || reLabel.MatchString(t) {
			continue
		}
		switch kind, _ := classifyCond(t); kind {
		case condIf:
			if depth == 0 && expectFirst {
				expectFirst = false
			}
			depth++
			continue
		case condEndIf:
			if depth == 0 {
				return false
			}
			depth--
			continue
		case condElseIf, condElse:
			if depth == 0 {
				expectFirst = true
			}
			continue
		}
		if depth == 0 && expectFirst {
			if isChoice(t) {
				return true
			}
			expectFirst = false
		}
	}
	return false
}

func (c *Compiler) parseLabel(lineNo int, label string) {
	label = strings.ToLower(label)
	if label == script.EndLabel {
		c.diags.Errorf(lineNo, "label %q is reserved", label)
		return
	}
	if prev, ok := c.labelLines[label]; ok {
		c.diags.Errorf(lineNo, "label %q already declared on line %d", label, prev)
		return
	}
	c.labelLines[label] = lineNo
	c.pendingLabels = append(c.pendingLabels, label)
}

func (c *Compiler) parseGoto(lineNo, indent int, label string) {
	c.appendNode(pnode{
		isGoto:    true,
		gotoLabel: strings.ToLower(label),
		line:      lineNo,
		indent:    indent,
	})
}

func (c *Compiler) parseSet(lineNo int, trimmed string) (pnode, bool) {
	body, _ := splitTextID(trimmed)
	m := reSet.FindStringSubmatch(body)
	if m == nil {
		c.diags.Errorf(lineNo, "malformed set, expected [set Name expression]")
		return pnode{}, false
	}
	e, err := expr.Parse(m[2])
	if err != nil {
		c.diags.Errorf(lineNo, "%v", err)
		return pnode{}, false
	}
	return pnode{
		typ:        script.NodeSetVariable,
		line:       lineNo,
		identifier: m[1],
		expr:       e,
	}, true
}

func (c *Compiler) parseEvent(lineNo, indent int, trimmed string) {
	m := reEvent.FindStringSubmatch(trimmed)
	if m == nil {
		c.diags.Errorf(lineNo, "malformed event, expected [event Name args...]")
		return
	}
	n := pnode{typ: script.NodeEvent, line: lineNo, indent: indent, eventName: m[1]}
	for _, arg := range splitArgs(m[2]) {
		if arg == "" {
			c.diags.Errorf(lineNo, "empty event argument")
			return
		}
		e, err := expr.Parse(arg)
		if err != nil {
			c.diags.Errorf(lineNo, "%v", err)
			return
		}
		n.args = append(n.args, e)
	}
	c.appendNode(n)
}

// textID returns the explicit id when given, otherwise a content hash made
// unique within the script.
func (c *Compiler) textID(explicit, speaker, text string) string {
	if explicit != "" {
		c.textIDs[explicit]++
		return explicit
	}
	h := fnv.New32a()
	h.Write([]byte(speaker))
	h.Write([]byte{0})
	h.Write([]byte(text))
	id := fmt.Sprintf("%08x", h.Sum32())
	c.textIDs[id]++
	if n := c.textIDs[id]; n > 1 {
		return fmt.Sprintf("%s-%d", id, n)
	}
	return id
}

// finish closes open blocks at end of input.
func (c *Compiler) finish() {
	if c.header.open {
		c.diags.Errorf(len(c.lines), "header block is never closed with ===")
	}
	for len(c.stack) > 1 {
		if c.top().kind == frameCond {
			c.diags.Warnf(c.top().cond.line, "[if] is never closed with [endif]")
			c.closeCond(c.top())
			continue
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	// Labels at the very end of the script point at the end of the dialogue.
	for _, l := range c.pendingLabels {
		c.labels[l] = script.NoTarget
	}
	c.pendingLabels = nil
}
