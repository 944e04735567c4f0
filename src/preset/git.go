package preset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/sofmeright/rulestack/src/ruleset"
)

// GitLoader serves presets from the tree of a fixed git revision, using the
// same layout as DirLoader.
type GitLoader struct {
	mu     sync.Mutex // go-git object storage is not safe for concurrent reads
	tree   *object.Tree
	commit plumbing.Hash
	rev    string
	logger *slog.Logger
}

// OpenGit opens the repository containing repoPath and pins rev (default
// HEAD). subdir selects a preset root inside the repository.
func OpenGit(repoPath, rev, subdir string, logger *slog.Logger) (*GitLoader, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening git repository %s: %w", repoPath, err)
	}
	return NewGitLoader(repo, rev, subdir, logger)
}

// NewGitLoader pins rev of an already opened repository.
func NewGitLoader(repo *git.Repository, rev, subdir string, logger *slog.Logger) (*GitLoader, error) {
	if rev == "" {
		rev = "HEAD"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving revision %q: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", hash, err)
	}
	if subdir != "" {
		tree, err = tree.Tree(subdir)
		if err != nil {
			return nil, fmt.Errorf("preset root %q at %s: %w", subdir, rev, err)
		}
	}

	logger.Debug("git preset source pinned", "rev", rev, "commit", hash.String())
	return &GitLoader{tree: tree, commit: *hash, rev: rev, logger: logger}, nil
}

// Commit is the resolved commit presets are read from.
func (l *GitLoader) Commit() string { return l.commit.String() }

func (l *GitLoader) Load(ctx context.Context, raw string) (*ruleset.Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := l.find(raw)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("preset located", "ref", raw, "rev", l.rev, "file", m.File)
	return m.decode()
}

// Locate reports the file a reference resolves to without decoding it.
func (l *GitLoader) Locate(raw string) (string, error) {
	m, err := l.find(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", l.commit.String()[:12], m.File), nil
}

func (l *GitLoader) find(raw string) (*match, error) {
	ref, err := ParseRef(raw)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return locate(treeSource{tree: l.tree}, ref)
}

type treeSource struct{ tree *object.Tree }

func (s treeSource) ReadFile(name string) ([]byte, error) {
	f, err := s.tree.File(name)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, object.ErrDirectoryNotFound) {
			return nil, fs.ErrNotExist
		}
		return nil, err
	}
	r, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s treeSource) Glob(pattern string) ([]string, error) {
	var names []string
	err := s.tree.Files().ForEach(func(f *object.File) error {
		if matchPattern(pattern, f.Name) {
			names = append(names, f.Name)
		}
		return nil
	})
	return names, err
}
