package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`   ___ _                  __                 _   `,
	`  / __| |_ ___ _ _ ___   / _|_ _ ___ _ _  | |_ `,
	`  \__ \  _/ _ \ '_/ -_) |  _| '_/ _ \ ' \ |  _|`,
	`  |___/\__\___/_| \___| |_| |_| \___/_||_| \__|`,
}

var bannerColors = []string{"#38bdf8", "#22d3ee", "#2dd4bf", "#34d399"}

// PrintBanner writes the console banner followed by the version to w.
// Colors degrade to plain text when w is not a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i%len(bannerColors)])))
	}
	fmt.Fprintln(w, out.String("  version "+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
