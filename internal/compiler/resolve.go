package compiler

import (
	"github.com/aretw0/parley/pkg/script"
)

// build runs the reconciliation passes over the arena and freezes it into a graph.
func (c *Compiler) build() *script.Graph {
	c.resolveFallthrough()
	resolved := c.resolveGotos()
	if c.diags.HasErrors() {
		return nil
	}
	return c.compact(resolved)
}

// fallTarget finds the first node after from whose indent is below fallIndent.
func (c *Compiler) fallTarget(from, fallIndent int) int {
	if fallIndent < 0 {
		return script.NoTarget
	}
	for j := from; j < len(c.nodes); j++ {
		n := &c.nodes[j]
		if n.header || n.choiceSel {
			continue
		}
		if n.indent < fallIndent {
			return j
		}
	}
	return script.NoTarget
}

// resolveFallthrough gives every dangling node and edge its implicit successor.
func (c *Compiler) resolveFallthrough() {
	for i := range c.nodes {
		n := &c.nodes[i]
		if continues(n) && len(n.edges) == 0 {
			n.edges = append(n.edges, pedge{Edge: script.Edge{
				Type:   script.EdgeContinue,
				Target: c.fallTarget(i+1, n.fallIndent),
			}})
		}
		for k := range n.edges {
			e := &n.edges[k]
			if e.Target == pending {
				e.Target = c.fallTarget(e.fallFrom+1, e.fallIndent)
			}
		}
	}
}

// resolveGotos maps every goto node to its final destination, following
// labels that alias other gotos. The result is indexed by node.
func (c *Compiler) resolveGotos() map[int]int {
	resolved := make(map[int]int)
	var resolve func(i int, seen map[int]bool) int
	resolve = func(i int, seen map[int]bool) int {
		if t, ok := resolved[i]; ok {
			return t
		}
		n := &c.nodes[i]
		if seen[i] {
			c.diags.Errorf(n.line, "goto %q loops back on itself without reaching a line", n.gotoLabel)
			return script.NoTarget
		}
		seen[i] = true

		target := script.NoTarget
		if n.gotoLabel != script.EndLabel {
			t, ok := c.labels[n.gotoLabel]
			switch {
			case !ok:
				c.diags.Errorf(n.line, "goto references undeclared label %q", n.gotoLabel)
			case t >= 0 && c.nodes[t].isGoto:
				target = resolve(t, seen)
			default:
				target = t
			}
		}
		resolved[i] = target
		return target
	}

	for i := range c.nodes {
		if c.nodes[i].isGoto {
			resolve(i, make(map[int]bool))
		}
	}
	return resolved
}

// compact removes goto nodes and renumbers the arena densely.
func (c *Compiler) compact(resolved map[int]int) *script.Graph {
	through := func(i int) int {
		if i >= 0 && c.nodes[i].isGoto {
			return resolved[i]
		}
		return i
	}

	remap := make([]int, len(c.nodes))
	next := 0
	for i := range c.nodes {
		if c.nodes[i].isGoto {
			remap[i] = script.NoTarget
			continue
		}
		remap[i] = next
		next++
	}
	final := func(i int) int {
		i = through(i)
		if i < 0 {
			return script.NoTarget
		}
		return remap[i]
	}

	nodes := make([]script.Node, 0, next)
	for i := range c.nodes {
		p := &c.nodes[i]
		if p.isGoto {
			continue
		}
		n := script.Node{
			Index:      remap[i],
			Type:       p.typ,
			Line:       p.line,
			Speaker:    p.speaker,
			TextID:     p.textID,
			Text:       p.text,
			Params:     p.params,
			Identifier: p.identifier,
			Expr:       p.expr,
			EventName:  p.eventName,
			Args:       p.args,
			Labels:     p.labels,
		}
		for _, e := range p.edges {
			edge := e.Edge
			edge.Target = final(edge.Target)
			n.Edges = append(n.Edges, edge)
		}
		nodes = append(nodes, n)
	}

	// Labels sitting on goto nodes alias their destination.
	for label, i := range c.labels {
		if i < 0 || !c.nodes[i].isGoto {
			continue
		}
		if t := final(i); t >= 0 {
			nodes[t].Labels = append(nodes[t].Labels, label)
		}
	}

	markChoices(nodes)
	return script.Build(c.name, nodes, final(c.header.first), final(c.firstBody))
}

// markChoices flags text nodes whose successor chain reaches a choice node.
func markChoices(nodes []script.Node) {
	for i := range nodes {
		if nodes[i].Type != script.NodeText {
			continue
		}
		cur := &nodes[i]
		for steps := 0; steps < len(nodes); steps++ {
			if len(cur.Edges) != 1 || cur.Edges[0].Target < 0 {
				break
			}
			cur = &nodes[cur.Edges[0].Target]
			if cur.Type == script.NodeChoice {
				nodes[i].HasChoices = true
				break
			}
			if cur.Type != script.NodeSetVariable && cur.Type != script.NodeEvent {
				break
			}
		}
	}
}
