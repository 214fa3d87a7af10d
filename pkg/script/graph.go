package script

import (
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/expr"
)

// NodeType identifies what a node does when the dialogue reaches it.
type NodeType int

const (
	NodeText NodeType = iota
	NodeChoice
	NodeSelect
	NodeSetVariable
	NodeEvent
)

var nodeTypeNames = [...]string{"text", "choice", "select", "set", "event"}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "unknown"
}

func (t NodeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// EdgeType identifies how an edge is followed.
type EdgeType int

const (
	// EdgeContinue is the single successor of a text, set or event node.
	EdgeContinue EdgeType = iota
	// EdgeDecision is a player option leaving a choice node.
	EdgeDecision
	// EdgeCondition is a guarded branch leaving a select node.
	EdgeCondition
	// EdgeChained links a choice node to a select node contributing more options.
	EdgeChained
)

var edgeTypeNames = [...]string{"continue", "decision", "condition", "chained"}

func (t EdgeType) String() string {
	if int(t) < len(edgeTypeNames) {
		return edgeTypeNames[t]
	}
	return "unknown"
}

func (t EdgeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// NoTarget marks an edge that ends the dialogue.
const NoTarget = -1

// EndLabel is the reserved goto label meaning "end the dialogue".
const EndLabel = "end"

// Edge connects a node to its successor.
type Edge struct {
	Type   EdgeType `json:"type" yaml:"type"`
	Target int      `json:"target" yaml:"target"`

	// Condition guards EdgeCondition edges.
	Condition *expr.Expr `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Text, TextID and Params describe the option of an EdgeDecision edge.
	Text   string   `json:"text,omitempty" yaml:"text,omitempty"`
	TextID string   `json:"text_id,omitempty" yaml:"text_id,omitempty"`
	Params []string `json:"params,omitempty" yaml:"params,omitempty"`

	// Line is where the edge was declared in the source.
	Line int `json:"line,omitempty" yaml:"line,omitempty"`
}

// ConditionSource returns the guard expression as written, or "".
func (e Edge) ConditionSource() string {
	if e.Condition == nil {
		return ""
	}
	return e.Condition.String()
}

// Node is one vertex of a compiled script.
type Node struct {
	Index int      `json:"index" yaml:"index"`
	Type  NodeType `json:"type" yaml:"type"`
	Line  int      `json:"line" yaml:"line"`

	// Text nodes.
	Speaker    string   `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	TextID     string   `json:"text_id,omitempty" yaml:"text_id,omitempty"`
	Text       string   `json:"text,omitempty" yaml:"text,omitempty"`
	Params     []string `json:"params,omitempty" yaml:"params,omitempty"`
	HasChoices bool     `json:"has_choices,omitempty" yaml:"has_choices,omitempty"`

	// Set nodes.
	Identifier string     `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Expr       *expr.Expr `json:"expr,omitempty" yaml:"expr,omitempty"`

	// Event nodes.
	EventName string       `json:"event,omitempty" yaml:"event,omitempty"`
	Args      []*expr.Expr `json:"args,omitempty" yaml:"args,omitempty"`

	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Edges  []Edge   `json:"edges,omitempty" yaml:"edges,omitempty"`
}

// Graph is a compiled script. It is immutable once built and may be
// shared by any number of concurrent dialogues.
type Graph struct {
	name     string
	nodes    []Node
	header   int
	first    int
	labels   map[string]int
	textIDs  map[string]int
	strings  map[string]string
	speakers []string
}

// Build assembles a graph from a fully resolved node arena. Node indexes must be dense.
// header and first are node indexes or NoTarget.
func Build(name string, nodes []Node, header, first int) *Graph {
	g := &Graph{
		name:    name,
		nodes:   nodes,
		header:  header,
		first:   first,
		labels:  make(map[string]int),
		textIDs: make(map[string]int),
		strings: make(map[string]string),
	}
	speakers := make(map[string]struct{})
	for i := range g.nodes {
		n := &g.nodes[i]
		for _, l := range n.Labels {
			g.labels[normalizeLabel(l)] = i
		}
		if n.Type == NodeText {
			g.textIDs[n.TextID] = i
			g.strings[n.TextID] = n.Text
			if n.Speaker != "" {
				speakers[n.Speaker] = struct{}{}
			}
		}
		for _, e := range n.Edges {
			if e.Type == EdgeDecision && e.TextID != "" {
				g.strings[e.TextID] = e.Text
			}
		}
	}
	for s := range speakers {
		g.speakers = append(g.speakers, s)
	}
	sort.Strings(g.speakers)
	return g
}

func normalizeLabel(l string) string { return strings.ToLower(strings.TrimSpace(l)) }

func (g *Graph) Name() string { return g.name }
func (g *Graph) Len() int     { return len(g.nodes) }

// Node returns the node at index i, or nil when i is out of range. The
// pointer refers into the graph's shared arena, which every dialogue running
// this graph reads concurrently: treat it as read-only.
func (g *Graph) Node(i int) *Node {
	if i < 0 || i >= len(g.nodes) {
		return nil
	}
	return &g.nodes[i]
}

// Nodes returns a copy of the nodes in index order. Edge, label and param
// slices are copied too; expressions are shared and immutable.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		n.Params = append([]string(nil), n.Params...)
		n.Args = append([]*expr.Expr(nil), n.Args...)
		n.Labels = append([]string(nil), n.Labels...)
		n.Edges = append([]Edge(nil), n.Edges...)
		out[i] = n
	}
	return out
}

// FirstNode returns the first body node, or nil for an empty script.
func (g *Graph) FirstNode() *Node { return g.Node(g.first) }

// HeaderNode returns the first header node, or nil when the script has no header.
func (g *Graph) HeaderNode() *Node { return g.Node(g.header) }

// NodeByLabel looks up a label case-insensitively.
func (g *Graph) NodeByLabel(label string) *Node {
	i, ok := g.labels[normalizeLabel(label)]
	if !ok {
		return nil
	}
	return g.Node(i)
}

// NodeByTextID finds the text node with the given id.
func (g *Graph) NodeByTextID(id string) *Node {
	i, ok := g.textIDs[id]
	if !ok {
		return nil
	}
	return g.Node(i)
}

// Target resolves an edge's destination; nil means end of dialogue.
func (g *Graph) Target(e Edge) *Node { return g.Node(e.Target) }

// NextNode follows the single outgoing edge of n. It returns nil when n
// has no edges, ends the dialogue, or branches.
func (g *Graph) NextNode(n *Node) *Node {
	if n == nil || len(n.Edges) != 1 {
		return nil
	}
	return g.Target(n.Edges[0])
}

// NextChoiceNode walks from a text node through intermediate set and event
// nodes to the choice node holding its options. It returns nil when the
// text node has no choices.
func (g *Graph) NextChoiceNode(n *Node) *Node {
	if n == nil || !n.HasChoices {
		return nil
	}
	for cur := g.NextNode(n); cur != nil; cur = g.NextNode(cur) {
		switch cur.Type {
		case NodeChoice:
			return cur
		case NodeSetVariable, NodeEvent:
			continue
		}
		return nil
	}
	return nil
}

// Labels lists every declared label, sorted.
func (g *Graph) Labels() []string {
	out := make([]string, 0, len(g.labels))
	for l := range g.labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Strings returns a copy of the text-id to text table.
func (g *Graph) Strings() map[string]string {
	out := make(map[string]string, len(g.strings))
	for k, v := range g.strings {
		out[k] = v
	}
	return out
}

// Speakers lists every speaker id used by a text node, sorted.
func (g *Graph) Speakers() []string { return append([]string(nil), g.speakers...) }

// Dump is a serializable view of the graph for tooling output.
type Dump struct {
	Name     string   `json:"name" yaml:"name"`
	Header   int      `json:"header" yaml:"header"`
	First    int      `json:"first" yaml:"first"`
	Speakers []string `json:"speakers,omitempty" yaml:"speakers,omitempty"`
	Nodes    []Node   `json:"nodes" yaml:"nodes"`
}

// Dump exposes the graph's structure for JSON/YAML export.
func (g *Graph) Dump() Dump {
	return Dump{
		Name:     g.name,
		Header:   g.header,
		First:    g.first,
		Speakers: g.Speakers(),
		Nodes:    g.Nodes(),
	}
}
