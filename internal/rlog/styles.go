package rlog

import "github.com/charmbracelet/lipgloss"

// Color palette for CLI diagnostics, grounded on the teacher's
// internal/output/styles.go (a named palette rather than inline
// lipgloss.Color literals scattered through the CLI).
var (
	// ColorCyan styles identifiable nouns: node and class names.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen styles a fully successful render.
	ColorGreen = lipgloss.Color("82")

	// ColorRed styles a node that failed to render.
	ColorRed = lipgloss.Color("196")

	// ColorDimGray styles structural chrome (counts, separators).
	ColorDimGray = lipgloss.Color("240")
)

// StyleNode styles a node or class name.
var StyleNode = lipgloss.NewStyle().Foreground(ColorCyan)

// StyleSuccess styles a summary line reporting zero failures.
var StyleSuccess = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)

// StyleFailure styles a summary line reporting one or more failures.
var StyleFailure = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)

// StyleDim styles structural chrome.
var StyleDim = lipgloss.NewStyle().Faint(true)
