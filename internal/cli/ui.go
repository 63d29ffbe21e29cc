package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/regionsync/pkg/pipeline"
)

// Terminal colors (256-color codes).
var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorLink   = lipgloss.Color("75")
	colorBright = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

// Styles shared by the commands.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleDim       = lipgloss.NewStyle().Foreground(colorFaint)
	StyleValue     = lipgloss.NewStyle().Foreground(colorBright)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorAccent)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorWarn)
)

var (
	styleIconSuccess  = lipgloss.NewStyle().Foreground(colorOK)
	styleIconWarning  = lipgloss.NewStyle().Foreground(colorWarn)
	styleIconInfo     = lipgloss.NewStyle().Foreground(colorMuted)
	styleIconProgress = lipgloss.NewStyle().Foreground(colorAccent)
	styleKey          = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
	styleCached       = lipgloss.NewStyle().Foreground(colorOK)
	styleComputed     = lipgloss.NewStyle().Foreground(colorMuted)
	styleCommand      = lipgloss.NewStyle().Foreground(colorLink)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"

	separator = " · "
)

// status prints one line led by a styled icon.
func status(icon lipgloss.Style, glyph, msg string) {
	fmt.Println(icon.Render(glyph) + " " + msg)
}

func printSuccess(format string, args ...any) {
	status(styleIconSuccess, iconSuccess, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status(styleIconWarning, iconWarning, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(styleIconInfo, iconInfo, fmt.Sprintf(format, args...))
}

// printDetail prints a muted line indented under the previous status line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the path of a written file.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints the size of the written layout, the elapsed time and
// whether the result came from the cache.
func printStats(nodes, links int, d time.Duration, cached bool) {
	origin := styleComputed.Render(iconFresh)
	if cached {
		origin = styleCached.Render(iconCached)
	}
	fields := []string{
		fmt.Sprintf("%d nodes", nodes),
		fmt.Sprintf("%d links", links),
		d.Round(time.Millisecond).String(),
	}
	dim := StyleDim.Render(strings.Join(fields, separator) + separator)
	fmt.Println("  " + dim + origin)
}

// printReport prints the outcome of a layout operation. Routing failures and
// color collisions are warnings; the operation itself succeeded.
func printReport(r pipeline.Report) {
	if r.Strategy != "" {
		printKeyValue("strategy", r.Strategy)
	}
	if r.Passes > 0 {
		printKeyValue("passes", StyleNumber.Render(fmt.Sprint(r.Passes)))
	}
	if d := r.Delta; d != nil && !d.Empty() {
		printKeyValue("changes", fmt.Sprintf("%d nodes added, %d moved, %d links rerouted",
			len(d.AddedNodes), len(d.MovedNodes), len(d.AddedLinks)+len(d.ReroutedLinks)))
	}
	warnLinks := func(ids []string, what string) {
		if len(ids) == 0 {
			return
		}
		printWarning("%d links %s", len(ids), what)
		printDetail("%s", strings.Join(ids, ", "))
	}
	warnLinks(r.FailedLinks, "could not be routed")
	warnLinks(r.PadFailedLinks, "could not reach a free pad")
	if r.Collision != nil {
		printWarning("color collision between %s and %s", r.Collision[0], r.Collision[1])
	}
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
