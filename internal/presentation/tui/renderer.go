package tui

import (
	"github.com/charmbracelet/glamour"

	"github.com/aretw0/storefront/pkg/runner"
)

// NewRenderer returns a markdown renderer for console replies.
// Product descriptions and cart summaries are rendered with glamour using
// the style matching the terminal background.
func NewRenderer() (runner.ContentRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(72),
	)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}
