package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// Colors for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// Printer formats and writes resolution diagnostics.
type Printer struct {
	Writer io.Writer
	Color  bool
}

// NewPrinter creates a printer writing to stderr with color auto-detection.
func NewPrinter() *Printer {
	return &Printer{
		Writer: os.Stderr,
		Color:  UseColor(),
	}
}

// Print outputs diagnostics grouped by layer, returns true if any warnings exist.
func (p *Printer) Print(diags []ruleset.Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}

	grouped := make(map[string][]ruleset.Diagnostic)
	for _, d := range diags {
		grouped[layerLabel(d)] = append(grouped[layerLabel(d)], d)
	}

	layers := make([]string, 0, len(grouped))
	for l := range grouped {
		layers = append(layers, l)
	}
	sort.Strings(layers)

	hasWarning := false

	for _, layer := range layers {
		dd := grouped[layer]
		ruleset.SortDiagnostics(dd)

		fmt.Fprintf(p.Writer, "\n%s\n", p.colorize(layer, colorBold))

		for _, d := range dd {
			if d.Level == ruleset.LevelWarning {
				hasWarning = true
			}
			fmt.Fprintf(p.Writer, "  %s %s %s\n",
				p.severityStr(d.Level),
				p.colorize(string(d.Kind), colorCyan),
				d.Message,
			)
		}
	}

	return hasWarning
}

// Summary prints a final summary line.
func (p *Printer) Summary(diags []ruleset.Diagnostic, layers int) {
	warning, info := CountLevels(diags)
	fmt.Fprintf(p.Writer, "\n%s\n", DiagnosticsSummaryLine(len(diags), warning, info, layers, p.Color))
}

// CountLevels counts diagnostics per level.
func CountLevels(diags []ruleset.Diagnostic) (warning, info int) {
	for _, d := range diags {
		switch d.Level {
		case ruleset.LevelWarning:
			warning++
		case ruleset.LevelInfo:
			info++
		}
	}
	return warning, info
}

// DiagnosticsSummaryLine returns a one-line diagnostics summary, optionally colored.
func DiagnosticsSummaryLine(total, warning, info, layers int, color bool) string {
	parts := []string{}
	if warning > 0 {
		s := fmt.Sprintf("%d warning", warning)
		if color {
			s = colorYellow + s + colorReset
		}
		parts = append(parts, s)
	}
	if info > 0 {
		parts = append(parts, fmt.Sprintf("%d info", info))
	}

	summary := "no diagnostics"
	if len(parts) > 0 {
		summary = strings.Join(parts, ", ")
	}

	totalStr := fmt.Sprintf("%d", total)
	if color {
		totalStr = colorBold + totalStr + colorReset
	}
	return fmt.Sprintf("%s diagnostics across %d layers: %s", totalStr, layers, summary)
}

// PrintError writes a resolution failure.
func (p *Printer) PrintError(err error) {
	fmt.Fprintf(p.Writer, "%s %s\n", p.colorize("ERROR", colorRed), err)
}

func (p *Printer) severityStr(l ruleset.Level) string {
	return levelTag(l, p.Color)
}

// levelTag returns a short level label, optionally colored.
func levelTag(l ruleset.Level, color bool) string {
	switch l {
	case ruleset.LevelWarning:
		if color {
			return colorYellow + "WARN" + colorReset
		}
		return "WARN"
	case ruleset.LevelInfo:
		if color {
			return colorGray + "INFO" + colorReset
		}
		return "INFO"
	default:
		return strings.ToUpper(l.String())
	}
}

// layerLabel is the heading a diagnostic is grouped under.
func layerLabel(d ruleset.Diagnostic) string {
	if d.Layer == "" {
		return "(effective config)"
	}
	return d.Layer
}

func (p *Printer) colorize(text, color string) string {
	if !p.Color {
		return text
	}
	return color + text + colorReset
}

func isTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}
