package preset

import (
	"context"
	"io/fs"
	"log/slog"
	"os"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// DirLoader serves presets from a directory tree laid out as
//
//	builtin/<name>.<ext>
//	plugins/<plugin>/<name>.<ext>
//	configs/<name>.<ext>
//
// with optional versioned variants <path>@<version>.<ext>. File references
// are resolved relative to the tree root.
type DirLoader struct {
	src    fsSource
	name   string
	logger *slog.Logger
}

// NewDirLoader serves presets from fsys. name identifies the tree in logs.
func NewDirLoader(fsys fs.FS, name string, logger *slog.Logger) *DirLoader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DirLoader{src: fsSource{fsys: fsys}, name: name, logger: logger}
}

// OpenDir serves presets from a directory on disk.
func OpenDir(dir string, logger *slog.Logger) *DirLoader {
	return NewDirLoader(os.DirFS(dir), dir, logger)
}

func (l *DirLoader) Load(ctx context.Context, raw string) (*ruleset.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := l.find(raw)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("preset located", "ref", raw, "source", l.name, "file", m.File)
	return m.decode()
}

// Locate reports the file a reference resolves to without decoding it.
func (l *DirLoader) Locate(raw string) (string, error) {
	m, err := l.find(raw)
	if err != nil {
		return "", err
	}
	return l.name + ":" + m.File, nil
}

func (l *DirLoader) find(raw string) (*match, error) {
	ref, err := ParseRef(raw)
	if err != nil {
		return nil, err
	}
	return locate(l.src, ref)
}
