package output

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// CI environment detection.

func IsCI() bool {
	return os.Getenv("CI") == "true"
}

// JUnit XML types for CI test reporting.

type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// Report is the outcome of one resolution, as written to JUnit.
type Report struct {
	Layers      []string
	Diagnostics []ruleset.Diagnostic
	Err         error
	Elapsed     time.Duration
}

// BuildJUnit converts a report to JUnit suites. Every merged layer is a
// passing case in the "layers" suite. Diagnostics form one suite per kind;
// warnings are failures, info diagnostics pass. A resolution error is a
// single failing case.
func BuildJUnit(r Report) JUnitTestSuites {
	var suites []JUnitTestSuite
	totalTests, totalFailures := 0, 0

	if r.Err != nil {
		suites = append(suites, JUnitTestSuite{
			Name:     "rulestack/resolve",
			Tests:    1,
			Failures: 1,
			Time:     fmt.Sprintf("%.3f", r.Elapsed.Seconds()),
			Cases: []JUnitTestCase{{
				Name:      "resolve",
				Classname: "rulestack.resolve",
				Time:      fmt.Sprintf("%.3f", r.Elapsed.Seconds()),
				Failure: &JUnitFailure{
					Message: "resolution failed",
					Type:    fmt.Sprintf("%T", r.Err),
					Body:    r.Err.Error(),
				},
			}},
		})
		totalTests, totalFailures = 1, 1
	} else {
		layers := JUnitTestSuite{Name: "rulestack/layers", Time: fmt.Sprintf("%.3f", r.Elapsed.Seconds())}
		for _, l := range r.Layers {
			layers.Cases = append(layers.Cases, JUnitTestCase{Name: l, Classname: "rulestack.layers", Time: "0.000"})
			layers.Tests++
		}
		totalTests += layers.Tests
		suites = append(suites, layers)
	}

	byKind := map[ruleset.DiagnosticKind]*JUnitTestSuite{}
	var kinds []ruleset.DiagnosticKind
	for _, d := range r.Diagnostics {
		suite, ok := byKind[d.Kind]
		if !ok {
			suite = &JUnitTestSuite{Name: "rulestack/" + string(d.Kind), Time: "0.000"}
			byKind[d.Kind] = suite
			kinds = append(kinds, d.Kind)
		}

		name := d.Rule
		if name == "" {
			name = d.Plugin
		}
		tc := JUnitTestCase{Name: name, Classname: "rulestack." + string(d.Kind), Time: "0.000"}
		if d.Level == ruleset.LevelWarning {
			tc.Failure = &JUnitFailure{
				Message: d.Message,
				Type:    d.Level.String(),
				Body:    d.String(),
			}
			suite.Failures++
			totalFailures++
		}
		suite.Cases = append(suite.Cases, tc)
		suite.Tests++
		totalTests++
	}
	for _, k := range kinds {
		suites = append(suites, *byKind[k])
	}

	return JUnitTestSuites{
		Name:     "rulestack",
		Tests:    totalTests,
		Failures: totalFailures,
		Time:     fmt.Sprintf("%.3f", r.Elapsed.Seconds()),
		Suites:   suites,
	}
}

// WriteJUnit writes a report as JUnit XML to path, creating parent
// directories as needed.
func WriteJUnit(path string, r Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if err := enc.Encode(BuildJUnit(r)); err != nil {
		return fmt.Errorf("encoding junit xml: %w", err)
	}
	_, err = f.WriteString("\n")
	return err
}
