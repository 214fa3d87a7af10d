package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeakerColor_Stable(t *testing.T) {
	assert.Equal(t, tui.SpeakerColor("NPC"), tui.SpeakerColor("NPC"))
	assert.True(t, strings.HasPrefix(tui.SpeakerColor("Player"), "#"))
}

func TestSpeakerFormat_KeepsName(t *testing.T) {
	format := tui.NewSpeakerFormat()
	assert.Contains(t, format("Innkeeper"), "Innkeeper")
}

func TestRenderer_KeepsText(t *testing.T) {
	render := tui.NewRenderer()
	out, err := render("Hello *there*")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "there")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.GreaterOrEqual(t, strings.Count(buf.String(), "\n"), 8)
}
