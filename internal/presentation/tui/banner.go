package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"                   _            ", "#818cf8"},
	{"  _ __   __ _ _ __| | ___ _   _ ", "#a78bfa"},
	{" | '_ \\ / _` | '__| |/ _ \\ | | |", "#c084fc"},
	{" | |_) | (_| | |  | |  __/ |_| |", "#e879f9"},
	{" | .__/ \\__,_|_|  |_|\\___|\\__, |", "#f472b6"},
	{" |_|                      |___/ ", "#fb7185"},
}

// PrintBanner writes the Parley banner to w, coloured for the terminal's profile.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
