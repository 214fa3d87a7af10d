package tui

import (
	"hash/fnv"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

// speakerPalette gives each speaker a stable colour.
var speakerPalette = []string{
	"#60a5fa", "#f472b6", "#34d399", "#fbbf24", "#a78bfa", "#f87171", "#22d3ee", "#fb923c",
}

// NewRenderer returns a function that renders markdown using glamour.
// It detects light and dark backgrounds; when glamour cannot be set up the
// text is passed through unchanged.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SpeakerColor returns the palette colour a speaker is shown in.
// The same name always gets the same colour.
func SpeakerColor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return speakerPalette[h.Sum32()%uint32(len(speakerPalette))]
}

// NewSpeakerFormat returns a formatter printing speaker names bold in their
// palette colour, degraded to the terminal's colour profile.
func NewSpeakerFormat() func(string) string {
	p := termenv.ColorProfile()
	return func(name string) string {
		return termenv.String(name).Foreground(p.Color(SpeakerColor(name))).Bold().String()
	}
}
