package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sofmeright/rulestack/src/ruleset"
)

const sectionWidth = 61 // inner width between │ and line end

// Section renders a box-drawing framed output section.
type Section struct {
	w     io.Writer
	name  string
	color bool
}

// NewSection creates a section and writes its header.
// If elapsed is non-zero, it appears right-aligned in the header.
func NewSection(w io.Writer, name string, elapsed time.Duration, color bool) *Section {
	s := &Section{w: w, name: name, color: color}
	s.writeHeader(elapsed)
	return s
}

// Row writes a content line inside the section frame.
func (s *Section) Row(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	fmt.Fprintf(s.w, "    │ %s\n", line)
}

// Separator writes a mid-section divider.
func (s *Section) Separator() {
	fmt.Fprintf(s.w, "    ├%s\n", strings.Repeat("─", sectionWidth))
}

// Close writes the section footer.
func (s *Section) Close() {
	fmt.Fprintf(s.w, "    └%s\n", strings.Repeat("─", sectionWidth))
}

// writeHeader renders: ── Name ──────────────────── elapsed ──
func (s *Section) writeHeader(elapsed time.Duration) {
	label := fmt.Sprintf("── %s ", s.name)

	var suffix string
	if elapsed > 0 {
		suffix = fmt.Sprintf(" %s ──", formatElapsed(elapsed))
	} else {
		suffix = "──"
	}

	fill := sectionWidth + 4 - len(label) - len(suffix)
	if fill < 1 {
		fill = 1
	}

	if s.color {
		// dim cyan for header
		fmt.Fprintf(s.w, "\n    \033[2;36m%s%s%s\033[0m\n", label, strings.Repeat("─", fill), suffix)
	} else {
		fmt.Fprintf(s.w, "\n    %s%s%s\n", label, strings.Repeat("─", fill), suffix)
	}
}

// LayersSection writes the merge order of an effective config, lowest
// precedence first, followed by per-severity rule counts.
func LayersSection(w io.Writer, eff *ruleset.EffectiveConfig, locations map[string]string, elapsed time.Duration, color bool) {
	sec := NewSection(w, "Layers", elapsed, color)
	for i, layer := range eff.Layers() {
		where := locations[layer]
		if where == "" {
			sec.Row("%2d  %s", i+1, layer)
			continue
		}
		sec.Row("%2d  %-28s %s", i+1, layer, Dimmed(where, color))
	}
	sec.Separator()

	counts := map[ruleset.Severity]int{}
	for _, s := range eff.Rules() {
		counts[s.Severity]++
	}
	sec.Row("%-8s%5d", "error", counts[ruleset.SeverityError])
	sec.Row("%-8s%5d", "warn", counts[ruleset.SeverityWarn])
	sec.Row("%-8s%5d", "off", counts[ruleset.SeverityOff])
	if plugins := eff.Plugins(); len(plugins) > 0 {
		sec.Row("%-8s%s", "plugins", strings.Join(plugins, ", "))
	}
	sec.Close()
}

// Dimmed returns dimmed text if color is enabled.
func Dimmed(text string, color bool) string {
	if !color {
		return text
	}
	return colorGray + text + colorReset
}

// formatElapsed formats a duration for display in section headers.
func formatElapsed(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := d.Seconds() - float64(mins*60)
	return fmt.Sprintf("%dm%.1fs", mins, secs)
}
