package script_test

import (
	"testing"

	"github.com/aretw0/parley/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *script.Graph {
	nodes := []script.Node{
		{Index: 0, Type: script.NodeText, Speaker: "NPC", TextID: "t0", Text: "Hello", HasChoices: true,
			Labels: []string{"Start"}, Edges: []script.Edge{{Type: script.EdgeContinue, Target: 1}}},
		{Index: 1, Type: script.NodeSetVariable, Identifier: "Met",
			Edges: []script.Edge{{Type: script.EdgeContinue, Target: 2}}},
		{Index: 2, Type: script.NodeChoice, Edges: []script.Edge{
			{Type: script.EdgeDecision, Target: 3, Text: "Wave", TextID: "c0"},
			{Type: script.EdgeDecision, Target: script.NoTarget, Text: "Leave", TextID: "c1"},
		}},
		{Index: 3, Type: script.NodeText, Speaker: "Bard", TextID: "t1", Text: "Bye"},
	}
	return script.Build("sample", nodes, script.NoTarget, 0)
}

func TestGraph_Lookups(t *testing.T) {
	g := sample()

	assert.Equal(t, "sample", g.Name())
	assert.Equal(t, 4, g.Len())
	assert.Nil(t, g.HeaderNode())
	require.NotNil(t, g.FirstNode())
	assert.Equal(t, "Hello", g.FirstNode().Text)

	assert.Equal(t, g.FirstNode(), g.NodeByLabel("  start "), "labels are case-insensitive")
	assert.Nil(t, g.NodeByLabel("missing"))
	assert.Equal(t, []string{"start"}, g.Labels())

	assert.Equal(t, "Bye", g.NodeByTextID("t1").Text)
	assert.Nil(t, g.NodeByTextID("nope"))
	assert.Nil(t, g.Node(-1))
	assert.Nil(t, g.Node(4))

	assert.Equal(t, []string{"Bard", "NPC"}, g.Speakers())
	assert.Equal(t, map[string]string{"t0": "Hello", "t1": "Bye", "c0": "Wave", "c1": "Leave"}, g.Strings())
}

func TestGraph_Walking(t *testing.T) {
	g := sample()
	first := g.FirstNode()

	choice := g.NextChoiceNode(first)
	require.NotNil(t, choice, "set nodes are skipped on the way to the options")
	assert.Equal(t, script.NodeChoice, choice.Type)

	assert.Nil(t, g.NextNode(choice), "a branching node has no single successor")
	assert.Nil(t, g.Target(choice.Edges[1]), "NoTarget ends the dialogue")
	assert.Nil(t, g.NextChoiceNode(g.NodeByTextID("t1")))
}

func TestGraph_NodesReturnsCopy(t *testing.T) {
	g := sample()
	nodes := g.Nodes()
	require.Len(t, nodes, 4)

	nodes[0].Text = "Changed"
	nodes[0].Labels[0] = "changed"
	nodes[2].Edges[0].Text = "Changed"
	nodes[2].Edges = nodes[2].Edges[:1]

	assert.Equal(t, "Hello", g.FirstNode().Text)
	assert.Equal(t, []string{"Start"}, g.FirstNode().Labels)
	choice := g.Node(2)
	require.Len(t, choice.Edges, 2)
	assert.Equal(t, "Wave", choice.Edges[0].Text)
	assert.Equal(t, g.FirstNode(), g.NodeByLabel("start"))
}

func TestGraph_Dump(t *testing.T) {
	d := sample().Dump()
	assert.Equal(t, "sample", d.Name)
	assert.Equal(t, script.NoTarget, d.Header)
	assert.Len(t, d.Nodes, 4)

	text, err := script.NodeText.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, script.NodeText.String(), string(text))
}
