package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/script"
)

const maxLabelRunes = 40

// Overlay contains session state to highlight on the graph.
type Overlay struct {
	// CurrentTextID is the line the session is paused on.
	CurrentTextID string
	// ChoicesTaken are text ids of options already picked.
	ChoicesTaken []string
}

// GenerateMermaid produces a Mermaid flowchart for a compiled script.
// Node shapes follow the node type:
// - Text: [Rectangle]
// - Choice: {{Hexagon}}
// - Select: {Rhombus}
// - Set: [/Parallelogram/]
// - Event: [[Subroutine]]
// Edges are labelled with the option text or the guard condition, and an
// edge with no target points at a shared end node.
func GenerateMermaid(g *script.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	if h := g.HeaderNode(); h != nil {
		fmt.Fprintf(&sb, "    header((\"header\")) -.-> %s\n", nodeID(h.Index))
	}
	if f := g.FirstNode(); f != nil {
		fmt.Fprintf(&sb, "    start((\"start\")) --> %s\n", nodeID(f.Index))
	} else {
		sb.WriteString("    start((\"start\")) --> end_((\"end\"))\n")
	}

	// Link indexes count every arrow in declaration order; linkStyle needs them.
	link := 0
	if g.HeaderNode() != nil {
		link++
	}
	link++

	taken := make(map[string]bool)
	var current string
	if overlay != nil {
		for _, id := range overlay.ChoicesTaken {
			taken[id] = true
		}
		current = overlay.CurrentTextID
	}

	var takenLinks []int
	hasEnd := g.FirstNode() == nil
	currentNode := ""

	for _, n := range g.Nodes() {
		id := nodeID(n.Index)
		opener, closer := shape(n.Type)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, nodeLabel(n), closer)
		if n.Type == script.NodeText && n.TextID == current && current != "" {
			currentNode = id
		}

		for _, e := range n.Edges {
			to := "end_"
			if e.Target == script.NoTarget {
				hasEnd = true
			} else {
				to = nodeID(e.Target)
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow(e), to)
			if e.Type == script.EdgeDecision && taken[e.TextID] {
				takenLinks = append(takenLinks, link)
			}
			link++
		}
	}
	if hasEnd && g.FirstNode() != nil {
		sb.WriteString("    end_((\"end\"))\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		if currentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", currentNode)
		}
		for _, l := range takenLinks {
			fmt.Fprintf(&sb, "    linkStyle %d stroke:#01579b,stroke-width:3px;\n", l)
		}
	}

	return sb.String()
}

func nodeID(i int) string { return fmt.Sprintf("n%d", i) }

func shape(t script.NodeType) (string, string) {
	switch t {
	case script.NodeChoice:
		return "{{", "}}"
	case script.NodeSelect:
		return "{", "}"
	case script.NodeSetVariable:
		return "[/", "/]"
	case script.NodeEvent:
		return "[[", "]]"
	}
	return "[", "]"
}

func nodeLabel(n script.Node) string {
	var label string
	switch n.Type {
	case script.NodeText:
		label = n.Speaker + ": " + truncate(n.Text)
	case script.NodeChoice:
		label = "choice"
	case script.NodeSelect:
		label = "select"
	case script.NodeSetVariable:
		label = "set " + n.Identifier
		if n.Expr != nil {
			label += " = " + n.Expr.String()
		}
	case script.NodeEvent:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = a.String()
		}
		label = strings.TrimSpace("event " + n.EventName + " " + strings.Join(args, ", "))
	}
	if len(n.Labels) > 0 {
		label += " <br/> :" + strings.Join(n.Labels, " :")
	}
	return escape(label)
}

func arrow(e script.Edge) string {
	switch e.Type {
	case script.EdgeDecision:
		return fmt.Sprintf("-- \"%s\" -->", escape(truncate(e.Text)))
	case script.EdgeCondition:
		cond := e.ConditionSource()
		if cond == "" || cond == "true" {
			cond = "else"
		}
		return fmt.Sprintf("-- \"%s\" -->", escape(cond))
	case script.EdgeChained:
		return "-.->"
	}
	return "-->"
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxLabelRunes {
		return s
	}
	return string(r[:maxLabelRunes-1]) + "…"
}

// escape keeps labels inside Mermaid's quoted strings.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
