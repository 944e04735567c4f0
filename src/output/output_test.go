package output

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sofmeright/rulestack/src/ruleset"
)

var testDiags = []ruleset.Diagnostic{
	{Level: ruleset.LevelWarning, Kind: ruleset.KindSeverityDemoted, Rule: "no-undef", Layer: "prettier", Message: `rule "no-undef" demoted from error to off`},
	{Level: ruleset.LevelInfo, Kind: ruleset.KindUnusedPlugin, Plugin: "promise", Message: `plugin "promise" has no configured rules`},
	{Level: ruleset.LevelWarning, Kind: ruleset.KindUnknownNamespace, Rule: "react/jsx", Message: `rule "react/jsx" has no declared plugin "react"`},
}

func TestPrinter_Print(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Writer: &buf}

	if p.Print(nil) {
		t.Error("no diagnostics should not report warnings")
	}
	if !p.Print(testDiags) {
		t.Error("expected warnings to be reported")
	}

	out := buf.String()
	for _, want := range []string{"(effective config)", "prettier", "WARN severity-demoted", "INFO unused-plugin"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("uncolored printer emitted escape codes")
	}
	// Layers are printed in sorted order.
	if strings.Index(out, "(effective config)") > strings.Index(out, "prettier") {
		t.Errorf("layers out of order:\n%s", out)
	}
}

func TestDiagnosticsSummaryLine(t *testing.T) {
	tests := []struct {
		name                        string
		total, warning, info, layer int
		want                        string
	}{
		{"none", 0, 0, 0, 3, "0 diagnostics across 3 layers: no diagnostics"},
		{"mixed", 3, 2, 1, 5, "3 diagnostics across 5 layers: 2 warning, 1 info"},
		{"info only", 1, 0, 1, 1, "1 diagnostics across 1 layers: 1 info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DiagnosticsSummaryLine(tt.total, tt.warning, tt.info, tt.layer, false); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if w, i := CountLevels(testDiags); w != 2 || i != 1 {
		t.Errorf("CountLevels = %d, %d", w, i)
	}
}

func TestBuildJUnit(t *testing.T) {
	r := BuildJUnit(Report{
		Layers:      []string{"eslint:recommended", "prettier", ruleset.LocalLayer},
		Diagnostics: testDiags,
		Elapsed:     1500 * time.Millisecond,
	})

	if r.Tests != 6 || r.Failures != 2 {
		t.Fatalf("tests=%d failures=%d, want 6/2", r.Tests, r.Failures)
	}
	if len(r.Suites) != 4 {
		t.Fatalf("suites = %d, want 4", len(r.Suites))
	}
	if r.Suites[0].Name != "rulestack/layers" || r.Suites[0].Tests != 3 {
		t.Errorf("layers suite = %+v", r.Suites[0])
	}
	if r.Time != "1.500" {
		t.Errorf("time = %q", r.Time)
	}
	for _, s := range r.Suites[1:] {
		if s.Name == "rulestack/unused-plugin" {
			if s.Failures != 0 || s.Cases[0].Name != "promise" {
				t.Errorf("info diagnostics must pass: %+v", s)
			}
		}
	}

	failed := BuildJUnit(Report{Err: errors.New("cyclic preset reference: a -> a")})
	if failed.Tests != 1 || failed.Failures != 1 {
		t.Fatalf("error report tests=%d failures=%d", failed.Tests, failed.Failures)
	}
	if !strings.Contains(failed.Suites[0].Cases[0].Failure.Body, "cyclic") {
		t.Errorf("failure body = %q", failed.Suites[0].Cases[0].Failure.Body)
	}
}

func TestWriteJUnit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "rulestack.xml")
	if err := WriteJUnit(path, Report{Layers: []string{"a"}, Diagnostics: testDiags}); err != nil {
		t.Fatalf("WriteJUnit: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte(xml.Header)) {
		t.Error("missing xml header")
	}
	var got JUnitTestSuites
	if err := xml.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != "rulestack" || got.Failures != 2 {
		t.Errorf("decoded = %+v", got)
	}
}

func TestLayersSection(t *testing.T) {
	local := &ruleset.Config{
		Plugins: []string{"promise"},
		Rules: map[string]ruleset.Setting{
			"semi":                  ruleset.Bare(ruleset.SeverityError),
			"quotes":                ruleset.Bare(ruleset.SeverityWarn),
			"promise/always-return": ruleset.Bare(ruleset.SeverityOff),
		},
	}
	res, err := ruleset.NewResolver(ruleset.MapLoader{"base": {}}, nil).Resolve(context.Background(), []string{"base"}, local, ruleset.Options{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	LayersSection(&buf, res.Config, map[string]string{"base": "presets:configs/base.yml"}, 0, false)
	out := buf.String()

	for _, want := range []string{"── Layers", " 1  base", "presets:configs/base.yml", " 2  <local>", "error       1", "plugins promise"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "json", "debug").Debug("preset located", "ref", "prettier")
	if !strings.Contains(buf.String(), `"ref":"prettier"`) {
		t.Errorf("json log = %q", buf.String())
	}

	buf.Reset()
	logger := NewLogger(&buf, "text", "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "msg=shown") {
		t.Errorf("text log = %q", buf.String())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "<1ms"},
		{250 * time.Millisecond, "250ms"},
		{2500 * time.Millisecond, "2.5s"},
		{90 * time.Second, "1m30.0s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
