package ruleset

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

// countingLoader wraps a MapLoader and records how often each ref is loaded.
type countingLoader struct {
	MapLoader
	mu    sync.Mutex
	calls map[string]int
}

func newCountingLoader(m MapLoader) *countingLoader {
	return &countingLoader{MapLoader: m, calls: map[string]int{}}
}

func (l *countingLoader) Load(ctx context.Context, ref string) (*Config, error) {
	l.mu.Lock()
	l.calls[ref]++
	l.mu.Unlock()
	return l.MapLoader.Load(ctx, ref)
}

func mustResolve(t *testing.T, loader Loader, refs []string, local *Config, opts Options) *Result {
	t.Helper()
	res, err := NewResolver(loader, nil).Resolve(context.Background(), refs, local, opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return res
}

func ruleSeverity(t *testing.T, eff *EffectiveConfig, rule string) Severity {
	t.Helper()
	s, ok := eff.Rule(rule)
	if !ok {
		t.Fatalf("rule %q missing from effective config", rule)
	}
	return s.Severity
}

func TestResolve_LastWriteWins(t *testing.T) {
	loader := MapLoader{
		"A": {Rules: map[string]Setting{"r": Bare(SeverityError)}},
		"B": {Rules: map[string]Setting{"r": Bare(SeverityOff)}},
	}

	tests := []struct {
		name string
		refs []string
		want Severity
	}{
		{name: "A then B", refs: []string{"A", "B"}, want: SeverityOff},
		{name: "B then A", refs: []string{"B", "A"}, want: SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustResolve(t, loader, tt.refs, nil, Options{})
			if got := ruleSeverity(t, res.Config, "r"); got != tt.want {
				t.Errorf("r = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolve_PluginsAndEnvAreUnioned(t *testing.T) {
	loader := MapLoader{
		"A": {Plugins: []string{"p1"}, Env: map[string]bool{"node": true}},
		"B": {Plugins: []string{"p2"}, Env: map[string]bool{"jest": true}},
	}

	for _, refs := range [][]string{{"A", "B"}, {"B", "A"}} {
		res := mustResolve(t, loader, refs, nil, Options{})

		plugins := res.Config.Plugins()
		if len(plugins) != 2 || !contains(plugins, "p1") || !contains(plugins, "p2") {
			t.Errorf("refs %v: plugins = %v, want p1 and p2", refs, plugins)
		}
		want := map[string]bool{"node": true, "jest": true}
		if got := res.Config.Env(); !reflect.DeepEqual(got, want) {
			t.Errorf("refs %v: env = %v, want %v", refs, got, want)
		}
	}
}

func TestResolve_LocalOverridesAlwaysWin(t *testing.T) {
	loader := MapLoader{
		"A": {Rules: map[string]Setting{"r": Bare(SeverityError)}, Parser: "a-parser"},
		"B": {
			Extends: []string{"A"},
			Rules:   map[string]Setting{"r": WithOptions(SeverityWarn, "always")},
		},
	}
	local := &Config{
		Rules:  map[string]Setting{"r": Bare(SeverityOff)},
		Parser: "local-parser",
	}

	res := mustResolve(t, loader, []string{"B", "A"}, local, Options{})
	s, _ := res.Config.Rule("r")
	if s.Severity != SeverityOff || s.Kind() != SettingBare {
		t.Errorf("r = %v, want bare off", s)
	}
	if got := res.Config.Parser(); got != "local-parser" {
		t.Errorf("parser = %q, want local-parser", got)
	}
	layers := res.Config.Layers()
	if layers[len(layers)-1] != LocalLayer {
		t.Errorf("layers = %v, want local layer last", layers)
	}
}

func TestResolve_DepthFirstOrder(t *testing.T) {
	// C extends [A, B]; C's own rules apply after both parents.
	loader := MapLoader{
		"A": {Rules: map[string]Setting{"x": Bare(SeverityError), "y": Bare(SeverityError)}},
		"B": {Rules: map[string]Setting{"x": Bare(SeverityWarn)}},
		"C": {Extends: []string{"A", "B"}, Rules: map[string]Setting{"y": Bare(SeverityWarn)}},
		"D": {Rules: map[string]Setting{"x": Bare(SeverityOff)}},
	}

	res := mustResolve(t, loader, []string{"C", "D"}, nil, Options{})
	if got := ruleSeverity(t, res.Config, "x"); got != SeverityOff {
		t.Errorf("x = %s, want off", got)
	}
	if got := ruleSeverity(t, res.Config, "y"); got != SeverityWarn {
		t.Errorf("y = %s, want warn", got)
	}
	want := []string{"A", "B", "C", "D"}
	if got := res.Config.Layers(); !reflect.DeepEqual(got, want) {
		t.Errorf("layers = %v, want %v", got, want)
	}
}

func TestResolve_CycleDetection(t *testing.T) {
	loader := MapLoader{
		"A": {Extends: []string{"B"}},
		"B": {Extends: []string{"A"}},
	}

	_, err := NewResolver(loader, nil).Resolve(context.Background(), []string{"A"}, nil, Options{})
	var cyc *CyclicPresetError
	if !errors.As(err, &cyc) {
		t.Fatalf("err = %v, want CyclicPresetError", err)
	}
	want := []string{"A", "B", "A"}
	if !reflect.DeepEqual(cyc.Cycle, want) {
		t.Errorf("cycle = %v, want %v", cyc.Cycle, want)
	}
	if !strings.Contains(err.Error(), "A -> B -> A") {
		t.Errorf("error %q does not name the cycle", err)
	}
}

func TestResolve_SelfCycle(t *testing.T) {
	loader := MapLoader{"A": {Extends: []string{"A"}}}

	_, err := NewResolver(loader, nil).Resolve(context.Background(), []string{"A"}, nil, Options{})
	var cyc *CyclicPresetError
	if !errors.As(err, &cyc) {
		t.Fatalf("err = %v, want CyclicPresetError", err)
	}
}

func TestResolve_DiamondLoadsOnce(t *testing.T) {
	loader := newCountingLoader(MapLoader{
		"base": {Rules: map[string]Setting{"r": Bare(SeverityWarn)}},
		"L":    {Extends: []string{"base"}},
		"R":    {Extends: []string{"base"}},
	})

	mustResolve(t, loader, []string{"L", "R"}, nil, Options{})
	if n := loader.calls["base"]; n != 1 {
		t.Errorf("base loaded %d times, want 1", n)
	}

	// The expansion cache is per call.
	mustResolve(t, loader, []string{"L"}, nil, Options{})
	if n := loader.calls["base"]; n != 2 {
		t.Errorf("base loaded %d times after second call, want 2", n)
	}
}

func TestResolve_UnresolvedPreset(t *testing.T) {
	loader := MapLoader{"A": {Extends: []string{"missing"}}}

	_, err := NewResolver(loader, nil).Resolve(context.Background(), []string{"A"}, nil, Options{})
	var unresolved *UnresolvedPresetError
	if !errors.As(err, &unresolved) {
		t.Fatalf("err = %v, want UnresolvedPresetError", err)
	}
	if unresolved.Ref != "missing" {
		t.Errorf("ref = %q, want missing", unresolved.Ref)
	}
	if !reflect.DeepEqual(unresolved.Chain, []string{"A"}) {
		t.Errorf("chain = %v, want [A]", unresolved.Chain)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err does not wrap ErrNotFound")
	}
}

func TestResolve_LoaderFailureIsWrapped(t *testing.T) {
	boom := errors.New("disk on fire")
	loader := LoaderFunc(func(ctx context.Context, ref string) (*Config, error) {
		return nil, boom
	})

	_, err := NewResolver(loader, nil).Resolve(context.Background(), []string{"A"}, nil, Options{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped loader error", err)
	}
	var unresolved *UnresolvedPresetError
	if errors.As(err, &unresolved) {
		t.Errorf("loader failure reported as unresolved preset")
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(MapLoader{"A": {}}, nil).Resolve(ctx, []string{"A"}, nil, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestResolve_NamespaceValidation(t *testing.T) {
	local := &Config{Rules: map[string]Setting{"myplugin/foo": Bare(SeverityError)}}

	t.Run("strict", func(t *testing.T) {
		_, err := NewResolver(MapLoader{}, nil).Resolve(context.Background(), nil, local, Options{Strict: true})
		var unknown *UnknownPluginNamespaceError
		if !errors.As(err, &unknown) {
			t.Fatalf("err = %v, want UnknownPluginNamespaceError", err)
		}
		if unknown.Namespace != "myplugin" || unknown.Rule != "myplugin/foo" {
			t.Errorf("got namespace %q rule %q", unknown.Namespace, unknown.Rule)
		}
	})

	t.Run("lenient", func(t *testing.T) {
		res := mustResolve(t, MapLoader{}, nil, local, Options{})
		if !hasDiagnostic(res.Diagnostics, KindUnknownNamespace, "myplugin/foo") {
			t.Errorf("diagnostics = %v, want unknown-namespace for myplugin/foo", res.Diagnostics)
		}
		if !res.Config.Enabled("myplugin/foo") {
			t.Errorf("myplugin/foo should stay configured")
		}
	})

	t.Run("declared by preset", func(t *testing.T) {
		loader := MapLoader{"P": {Plugins: []string{"eslint-plugin-myplugin"}}}
		res := mustResolve(t, loader, []string{"P"}, local, Options{Strict: true})
		if len(res.Diagnostics) != 0 {
			t.Errorf("unexpected diagnostics: %v", res.Diagnostics)
		}
	})

	t.Run("scoped plugin", func(t *testing.T) {
		cfg := &Config{
			Plugins: []string{"@typescript-eslint/eslint-plugin"},
			Rules:   map[string]Setting{"@typescript-eslint/no-explicit-any": Bare(SeverityOff)},
		}
		mustResolve(t, MapLoader{}, nil, cfg, Options{Strict: true})
	})
}

func TestResolve_MalformedSetting(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "empty sequence", value: []any{}},
		{name: "unknown word", value: "fatal"},
		{name: "out of range", value: 3},
		{name: "negative", value: []any{-1, "x"}},
		{name: "mapping", value: map[string]any{"severity": "error"}},
		{name: "null", value: nil},
		{name: "long form", value: "warning"},
		{name: "numeric string", value: "2"},
		{name: "float", value: 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap(map[string]any{"rules": map[string]any{"bad-rule": tt.value}})
			var malformed *MalformedSettingError
			if !errors.As(err, &malformed) {
				t.Fatalf("err = %v, want MalformedSettingError", err)
			}
			if malformed.Rule != "bad-rule" {
				t.Errorf("rule = %q, want bad-rule", malformed.Rule)
			}
		})
	}

	t.Run("through loader", func(t *testing.T) {
		loader := LoaderFunc(func(ctx context.Context, ref string) (*Config, error) {
			return FromMap(map[string]any{"rules": map[string]any{"bad-rule": []any{}}})
		})
		_, err := NewResolver(loader, nil).Resolve(context.Background(), []string{"preset"}, nil, Options{})
		var malformed *MalformedSettingError
		if !errors.As(err, &malformed) {
			t.Fatalf("err = %v, want MalformedSettingError", err)
		}
		if malformed.Layer != "preset" {
			t.Errorf("layer = %q, want preset", malformed.Layer)
		}
	})

	t.Run("invalid severity value", func(t *testing.T) {
		local := &Config{Rules: map[string]Setting{"r": {Severity: Severity(7)}}}
		_, err := NewResolver(MapLoader{}, nil).Resolve(context.Background(), nil, local, Options{})
		var malformed *MalformedSettingError
		if !errors.As(err, &malformed) || malformed.Rule != "r" {
			t.Fatalf("err = %v, want MalformedSettingError for r", err)
		}
	})
}

func TestResolve_NonCanonicalSeverity(t *testing.T) {
	local, err := FromMap(map[string]any{"rules": map[string]any{"eqeqeq": "Error"}})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}

	res := mustResolve(t, MapLoader{}, nil, local, Options{})
	if got := ruleSeverity(t, res.Config, "eqeqeq"); got != SeverityError {
		t.Errorf("eqeqeq = %s, want error", got)
	}
	if !hasDiagnostic(res.Diagnostics, KindNonCanonicalSeverity, "eqeqeq") {
		t.Errorf("diagnostics = %v, want non-canonical-severity", res.Diagnostics)
	}

	_, err = NewResolver(MapLoader{}, nil).Resolve(context.Background(), nil, local, Options{Strict: true})
	var malformed *MalformedSettingError
	if !errors.As(err, &malformed) {
		t.Fatalf("strict err = %v, want MalformedSettingError", err)
	}
}

func TestResolve_SeverityDemotionIsAdvisory(t *testing.T) {
	loader := MapLoader{
		"strict":  {Rules: map[string]Setting{"no-console": Bare(SeverityError)}},
		"relaxed": {Rules: map[string]Setting{"no-console": Bare(SeverityOff)}},
	}

	for _, strict := range []bool{false, true} {
		res := mustResolve(t, loader, []string{"strict", "relaxed"}, nil, Options{Strict: strict})
		if !hasDiagnostic(res.Diagnostics, KindSeverityDemoted, "no-console") {
			t.Errorf("strict=%v: diagnostics = %v, want severity-demoted", strict, res.Diagnostics)
		}
		for _, d := range res.Diagnostics {
			if d.Kind == KindSeverityDemoted && d.Level != LevelWarning {
				t.Errorf("demotion level = %s, want warning", d.Level)
			}
		}
	}
}

func TestResolve_UnusedPlugin(t *testing.T) {
	local := &Config{
		Plugins: []string{"sonarjs", "promise"},
		Rules:   map[string]Setting{"promise/always-return": Bare(SeverityError)},
	}

	res := mustResolve(t, MapLoader{}, nil, local, Options{Strict: true})
	if !hasPluginDiagnostic(res.Diagnostics, KindUnusedPlugin, "sonarjs") {
		t.Errorf("diagnostics = %v, want unused-plugin for sonarjs", res.Diagnostics)
	}
	if hasPluginDiagnostic(res.Diagnostics, KindUnusedPlugin, "promise") {
		t.Errorf("promise is used but reported unused")
	}
}

func TestResolve_PreserveOptions(t *testing.T) {
	loader := MapLoader{
		"base": {Rules: map[string]Setting{"quotes": WithOptions(SeverityError, "single")}},
	}
	local := &Config{Rules: map[string]Setting{"quotes": Bare(SeverityWarn)}}

	plain := mustResolve(t, loader, []string{"base"}, local, Options{})
	if s, _ := plain.Config.Rule("quotes"); s.Kind() != SettingBare {
		t.Errorf("without PreserveOptions: quotes = %v, want bare", s)
	}

	kept := mustResolve(t, loader, []string{"base"}, local, Options{PreserveOptions: true})
	s, _ := kept.Config.Rule("quotes")
	if s.Severity != SeverityWarn || !reflect.DeepEqual(s.Options, []any{"single"}) {
		t.Errorf("with PreserveOptions: quotes = %v, want [warn single]", s)
	}
}

func TestResolve_ScalarsAndMappings(t *testing.T) {
	loader := MapLoader{
		"A": {
			Parser:         "espree",
			ParserOptions:  map[string]any{"ecmaVersion": 2020, "ecmaFeatures": map[string]any{"jsx": true}},
			Root:           boolPtr(true),
			Globals:        map[string]string{"window": "readonly"},
			IgnorePatterns: []string{"dist/"},
			NoInlineConfig: boolPtr(true),
		},
		"B": {
			ParserOptions:  map[string]any{"ecmaFeatures": map[string]any{"globalReturn": true}},
			Globals:        map[string]string{"window": "off"},
			IgnorePatterns: []string{"dist/", "coverage/"},
		},
	}
	local := &Config{
		Parser:        "@typescript-eslint/parser",
		ParserOptions: map[string]any{"project": "tsconfig.json", "sourceType": "module"},
		Root:          boolPtr(false),
	}

	res := mustResolve(t, loader, []string{"A", "B"}, local, Options{})
	eff := res.Config

	if eff.Parser() != "@typescript-eslint/parser" {
		t.Errorf("parser = %q", eff.Parser())
	}
	if eff.Root() {
		t.Errorf("root = true, want local false to win")
	}
	if !eff.NoInlineConfig() {
		t.Errorf("noInlineConfig lost: unset layers must not override")
	}
	wantOpts := map[string]any{
		"ecmaVersion":  2020,
		"ecmaFeatures": map[string]any{"jsx": true, "globalReturn": true},
		"project":      "tsconfig.json",
		"sourceType":   "module",
	}
	if got := eff.ParserOptions(); !reflect.DeepEqual(got, wantOpts) {
		t.Errorf("parserOptions = %v, want %v", got, wantOpts)
	}
	if got := eff.Globals()["window"]; got != "off" {
		t.Errorf("globals.window = %q, want off", got)
	}
	if got := eff.IgnorePatterns(); !reflect.DeepEqual(got, []string{"dist/", "coverage/"}) {
		t.Errorf("ignorePatterns = %v", got)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	loader := MapLoader{
		"A": {
			Plugins: []string{"sonarjs", "promise"},
			Env:     map[string]bool{"node": true, "jest": true},
			Rules: map[string]Setting{
				"sonarjs/cognitive-complexity": WithOptions(SeverityError, 15),
				"promise/always-return":        Bare(SeverityWarn),
				"curly":                        WithOptions(SeverityError, "all"),
			},
		},
	}
	local := &Config{
		ParserOptions: map[string]any{"sourceType": "module"},
		Rules: map[string]Setting{
			"max-len": WithOptions(SeverityError, map[string]any{"code": 120, "ignoreUrls": true}),
		},
	}

	encode := func(format Format) []byte {
		res := mustResolve(t, loader, []string{"A"}, local, Options{})
		var buf bytes.Buffer
		if err := res.Config.Encode(&buf, format); err != nil {
			t.Fatalf("encode %s: %v", format, err)
		}
		return buf.Bytes()
	}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		first, second := encode(format), encode(format)
		if !bytes.Equal(first, second) {
			t.Errorf("%s output differs between runs:\n%s\n---\n%s", format, first, second)
		}
	}
}

func TestEffectiveConfig_AccessorsReturnCopies(t *testing.T) {
	local := &Config{
		Plugins: []string{"p"},
		Rules:   map[string]Setting{"p/r": WithOptions(SeverityError, map[string]any{"k": 1})},
	}
	res := mustResolve(t, MapLoader{}, nil, local, Options{})

	rules := res.Config.Rules()
	rules["p/r"].Options[0].(map[string]any)["k"] = 99
	delete(rules, "p/r")
	res.Config.Plugins()[0] = "mutated"

	s, ok := res.Config.Rule("p/r")
	if !ok || s.Options[0].(map[string]any)["k"] != 1 {
		t.Errorf("effective config was mutated through an accessor: %v", s)
	}
	if res.Config.Plugins()[0] != "p" {
		t.Errorf("plugins mutated")
	}

	// Mutating the input after resolution must not leak in either.
	local.Rules["p/r"].Options[0].(map[string]any)["k"] = 42
	if s, _ := res.Config.Rule("p/r"); s.Options[0].(map[string]any)["k"] != 1 {
		t.Errorf("effective config shares option storage with its input")
	}
}

func TestResolver_ConcurrentUse(t *testing.T) {
	loader := MapLoader{
		"A": {Rules: map[string]Setting{"r": Bare(SeverityError)}},
		"B": {Extends: []string{"A"}, Rules: map[string]Setting{"s": Bare(SeverityWarn)}},
	}
	r := NewResolver(loader, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Resolve(context.Background(), []string{"B"}, nil, Options{})
			if err != nil {
				errs <- err
				return
			}
			if !res.Config.Enabled("r") || !res.Config.Enabled("s") {
				errs <- errors.New("missing rules")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func hasDiagnostic(diags []Diagnostic, kind DiagnosticKind, rule string) bool {
	for _, d := range diags {
		if d.Kind == kind && d.Rule == rule {
			return true
		}
	}
	return false
}

func hasPluginDiagnostic(diags []Diagnostic, kind DiagnosticKind, plugin string) bool {
	for _, d := range diags {
		if d.Kind == kind && d.Plugin == plugin {
			return true
		}
	}
	return false
}
