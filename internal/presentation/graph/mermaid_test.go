package graph_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shop = "===\n" +
	"[set Gold 1]\n" +
	"===\n" +
	":top\n" +
	"NPC: Hello \"friend\"\n" +
	"\t* Buy\n" +
	"\t\t[event Bought]\n" +
	"\t\tNPC: Done\n" +
	"\t* Leave\n" +
	"\t\t[goto end]\n" +
	"[if {Gold} > 0]\n" +
	"\tNPC: Rich\n" +
	"[endif]\n"

func TestGenerateMermaid(t *testing.T) {
	g, diags := compiler.Compile("shop", []byte(shop))
	require.False(t, diags.HasErrors(), "%v", diags.List)

	tests := []struct {
		name     string
		contains []string
	}{
		{
			name:     "Entry Points",
			contains: []string{"graph TD\n", `header(("header")) -.->`, `start(("start")) -->`},
		},
		{
			name: "Node Shapes",
			contains: []string{
				`["NPC: Hello 'friend' <br/> :top"]`,
				`{{"choice"}}`,
				`{"select"}`,
				`[/"set Gold = 1"/]`,
				`[["event Bought"]]`,
			},
		},
		{
			name: "Edge Labels",
			contains: []string{
				`-- "Buy" -->`,
				`-- "Leave" --> end_`,
				`-- "{Gold} > 0" -->`,
				`-- "else" -->`,
				`end_(("end"))`,
			},
		},
	}

	got := graph.GenerateMermaid(g, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}

	t.Run("Every Node Rendered", func(t *testing.T) {
		for _, n := range g.Nodes() {
			assert.Contains(t, got, "\n    n"+strconv.Itoa(n.Index))
		}
	})

	t.Run("No Overlay Styles", func(t *testing.T) {
		assert.NotContains(t, got, "classDef")
	})
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	g, diags := compiler.Compile("shop", []byte(shop))
	require.False(t, diags.HasErrors())

	line := g.NodeByLabel("top")
	require.NotNil(t, line)
	buy := g.NextChoiceNode(line).Edges[0]

	got := graph.GenerateMermaid(g, &graph.Overlay{
		CurrentTextID: line.TextID,
		ChoicesTaken:  []string{buy.TextID},
	})
	assert.Contains(t, got, "classDef current")
	assert.Contains(t, got, "class n"+strconv.Itoa(line.Index)+" current;")
	assert.Equal(t, 1, strings.Count(got, "linkStyle"))
}

func TestGenerateMermaid_EmptyScript(t *testing.T) {
	g, diags := compiler.Compile("empty", nil)
	require.False(t, diags.HasErrors())
	got := graph.GenerateMermaid(g, nil)
	assert.Contains(t, got, `start(("start")) --> end_(("end"))`)
}
