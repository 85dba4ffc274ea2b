package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/panbanda/scry/internal/scanner"
	"github.com/panbanda/scry/pkg/config"
)

// CorpusOption configures the Directory and GitRef corpora.
type CorpusOption func(*corpusOptions)

type corpusOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report skipped files.
func WithLogger(l *slog.Logger) CorpusOption {
	return func(o *corpusOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []CorpusOption) corpusOptions {
	o := corpusOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Directory is a Corpus reading the working tree of a project directory.
type Directory struct {
	config *config.Config
	source ContentSource
	opts   corpusOptions
}

// NewDirectory creates a filesystem corpus honoring cfg's exclusions.
func NewDirectory(cfg *config.Config, opts ...CorpusOption) *Directory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Directory{
		config: cfg,
		source: NewFilesystem(),
		opts:   buildOptions(opts),
	}
}

// Enumerate implements Corpus. Paths in the result are slash-separated and
// relative to projectPath. Unreadable files are skipped.
func (d *Directory) Enumerate(ctx context.Context, projectPath string) ([]File, error) {
	info, err := os.Stat(projectPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", projectPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", projectPath, ErrNotDirectory)
	}

	s := scanner.NewScanner(d.config, scanner.WithFilter(Analyzable))
	paths, err := s.ScanDir(projectPath)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", projectPath, err)
	}

	paths, skipped := scanner.FilterBySize(paths, d.config.Analysis.MaxFileSize)
	if skipped > 0 {
		d.opts.logger.Debug("skipped oversized files", "count", skipped, "max_bytes", d.config.Analysis.MaxFileSize)
	}

	files := make([]File, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := d.source.Read(path)
		if err != nil {
			d.opts.logger.Debug("skipping unreadable file", "path", path, "error", err)
			continue
		}
		rel, err := filepath.Rel(projectPath, path)
		if err != nil {
			rel = path
		}
		files = append(files, File{Path: filepath.ToSlash(rel), Content: string(content)})
	}

	return files, nil
}

// GitRef is a Corpus reading the tree of a git revision instead of the
// working tree. Exclusion patterns from the config still apply; .gitignore
// is irrelevant since only tracked files are visible.
type GitRef struct {
	ref    string
	config *config.Config
	opts   corpusOptions
}

// NewGitRef creates a corpus for the given revision (branch, tag, SHA,
// or expressions like HEAD~3).
func NewGitRef(ref string, cfg *config.Config, opts ...CorpusOption) *GitRef {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &GitRef{ref: ref, config: cfg, opts: buildOptions(opts)}
}

// open resolves the revision in the repository containing projectPath.
// prefix is projectPath relative to the worktree root.
func (g *GitRef) open(projectPath string) (tree *object.Tree, prefix string, err error) {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, "", err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", projectPath, err)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("%s: %w", projectPath, ErrNotDirectory)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, "", fmt.Errorf("open repository at %s: %w", projectPath, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(g.ref))
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", g.ref, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, "", fmt.Errorf("commit %s: %w", hash, err)
	}
	tree, err = commit.Tree()
	if err != nil {
		return nil, "", fmt.Errorf("tree of %s: %w", hash, err)
	}

	prefix, err = repoPrefix(repo, absPath)
	if err != nil {
		return nil, "", err
	}
	return tree, prefix, nil
}

// FS implements FSCorpus. The result holds the files below projectPath as
// they were at the revision.
func (g *GitRef) FS(_ context.Context, projectPath string) (fs.FS, error) {
	tree, prefix, err := g.open(projectPath)
	if err != nil {
		return nil, err
	}
	return NewTreeFS(NewTree(tree), prefix), nil
}

// Enumerate implements Corpus. projectPath may be the repository root or
// any directory inside it; only files below projectPath are returned.
func (g *GitRef) Enumerate(ctx context.Context, projectPath string) ([]File, error) {
	tree, prefix, err := g.open(projectPath)
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, p := range g.config.ExcludePatterns() {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	matcher := gitignore.NewMatcher(patterns)

	type entry struct{ name, rel string }
	var entries []entry
	err = tree.Files().ForEach(func(f *object.File) error {
		rel := f.Name
		if prefix != "" {
			if !strings.HasPrefix(f.Name, prefix+"/") {
				return nil
			}
			rel = strings.TrimPrefix(f.Name, prefix+"/")
		}
		if !Analyzable(rel) || matcher.Match(strings.Split(rel, "/"), false) {
			return nil
		}
		if limit := g.config.Analysis.MaxFileSize; limit > 0 && f.Size > limit {
			return nil
		}
		entries = append(entries, entry{name: f.Name, rel: rel})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk tree of %s: %w", g.ref, err)
	}

	src := NewTree(tree)
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := src.Read(e.name)
		if err != nil {
			g.opts.logger.Debug("skipping unreadable blob", "path", e.name, "error", err)
			continue
		}
		files = append(files, File{Path: e.rel, Content: string(content)})
	}

	return files, nil
}

// repoPrefix returns the slash path of dir relative to the worktree root,
// or "" when dir is the root itself.
func repoPrefix(repo *git.Repository, dir string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return "", nil
		}
		return "", fmt.Errorf("worktree: %w", err)
	}

	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}
