package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, " 1.2.3\n")

	out := buf.String()
	assert.Contains(t, out, "version 1.2.3")
	assert.Contains(t, out, bannerLines[0])
	assert.NotContains(t, out, "\x1b[", "a buffer is not a terminal")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer()
	require.NoError(t, err)

	out, err := render("Cart total: **62.50 $**")
	require.NoError(t, err)
	assert.Contains(t, out, "62.50 $")
}
