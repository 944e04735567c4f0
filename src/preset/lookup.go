package preset

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// extensions are tried in this order for every candidate path.
var extensions = []string{".yml", ".yaml", ".json", ".toml"}

// source is the read side of a preset tree.
type source interface {
	ReadFile(name string) ([]byte, error)
	Glob(pattern string) ([]string, error)
}

type fsSource struct{ fsys fs.FS }

func (s fsSource) ReadFile(name string) ([]byte, error)  { return fs.ReadFile(s.fsys, name) }
func (s fsSource) Glob(pattern string) ([]string, error) { return fs.Glob(s.fsys, pattern) }

// match is a located preset file.
type match struct {
	File    string
	Version *semver.Version
	data    []byte
}

// locate finds the file a reference points at. Without a constraint an
// unversioned file wins over versioned ones; with a constraint only
// versioned files (<path>@<version>.<ext>) are considered and the highest
// satisfying version is chosen.
func locate(src source, ref Ref) (*match, error) {
	p, err := ref.Path()
	if err != nil {
		return nil, err
	}

	if ref.Kind == RefFile {
		if _, ok := ruleset.FormatFromPath(p); ok {
			return readMatch(src, ref, p, nil)
		}
	}

	if ref.Constraint == nil {
		for _, ext := range extensions {
			m, err := readMatch(src, ref, p+ext, nil)
			if err == nil {
				return m, nil
			}
			if !errors.Is(err, ruleset.ErrNotFound) {
				return nil, err
			}
		}
	}

	var best *match
	for _, ext := range extensions {
		names, err := src.Glob(globEscape(p) + "@*" + ext)
		if err != nil {
			return nil, fmt.Errorf("listing versions of %q: %w", ref.Raw, err)
		}
		for _, name := range names {
			raw := strings.TrimSuffix(strings.TrimPrefix(name, p+"@"), ext)
			v, err := semver.NewVersion(raw)
			if err != nil {
				continue
			}
			if ref.Constraint != nil && !ref.Constraint.Check(v) {
				continue
			}
			if best == nil || v.GreaterThan(best.Version) {
				best = &match{File: name, Version: v}
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%q: %w", ref.Raw, ruleset.ErrNotFound)
	}
	return readMatch(src, ref, best.File, best.Version)
}

func readMatch(src source, ref Ref, name string, v *semver.Version) (*match, error) {
	data, err := src.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", ref.Raw, ruleset.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return &match{File: name, Version: v, data: data}, nil
}

// decode parses a located preset file.
func (m *match) decode() (*ruleset.Config, error) {
	format, ok := ruleset.FormatFromPath(m.File)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported preset format", m.File)
	}
	cfg, err := ruleset.Parse(m.data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.File, err)
	}
	return cfg, nil
}

// globEscape quotes path.Match metacharacters.
func globEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// matchPattern reports whether name matches a path.Match pattern.
func matchPattern(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
