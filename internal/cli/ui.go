package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/liquid-labs/plugable-express-sub000/pkg/install"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleImplied = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	styleLocal   = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Plugin Output
// =============================================================================

// formatPlugin renders one installed plugin with its source and whether it
// was pulled in by another plugin.
func formatPlugin(p install.Plugin) string {
	line := StyleDim.Render(iconArrow) + " " + StyleValue.Render(p.Spec)
	if p.FromLocalSource {
		line += " " + styleLocal.Render("local")
	}
	if p.IsImplied {
		line += " " + styleImplied.Render("implied")
	}
	return "  " + line
}

// formatWave renders one install wave, e.g. "wave 1  auth, cache".
func formatWave(i int, names []string) string {
	label := lipgloss.NewStyle().Foreground(colorGray).Width(8).Render(fmt.Sprintf("wave %d", i))
	return "  " + label + StyleValue.Render(strings.Join(names, ", "))
}

// formatCounts renders the counts of an installation on one line.
func formatCounts(r *install.Result) string {
	parts := []string{
		StyleNumber.Render(fmt.Sprint(r.Total)) + " installed",
		StyleNumber.Render(fmt.Sprint(r.Implied)) + " implied",
		StyleNumber.Render(fmt.Sprint(r.Local)) + " local",
		StyleNumber.Render(fmt.Sprint(r.Production)) + " registry",
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}
