package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/scry/pkg/config"
)

// Scanner finds candidate files in a directory tree, honoring config
// exclusions and .gitignore files.
type Scanner struct {
	config *config.Config
	accept func(path string) bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithFilter restricts results to paths accepted by fn.
func WithFilter(fn func(path string) bool) Option {
	return func(s *Scanner) {
		s.accept = fn
	}
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config, opts ...Option) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Scanner{
		config: cfg,
		accept: func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// matcher builds the exclusion matcher for root. Config patterns are
// parsed as gitignore syntax and combined with every .gitignore under root.
func (s *Scanner) matcher(root string) gitignore.Matcher {
	var patterns []gitignore.Pattern
	for _, p := range s.config.ExcludePatterns() {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	if s.config.Exclude.Gitignore {
		if gitPatterns, err := gitignore.ReadPatterns(osfs.New(root), nil); err == nil {
			patterns = append(patterns, gitPatterns...)
		}
	}

	return gitignore.NewMatcher(patterns)
}

func excluded(m gitignore.Matcher, rel string, isDir bool) bool {
	if rel == "." || rel == "" {
		return false
	}
	return m.Match(strings.Split(filepath.ToSlash(rel), "/"), isDir)
}

// ScanDir recursively scans root and returns the accepted file paths in
// lexical walk order. Paths are joined onto root.
// Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	m := s.matcher(root)
	files := make([]string, 0, 256)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if excluded(m, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if excluded(m, relPath, false) {
			return nil
		}
		if s.accept(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, walkErr
}

// ScanFile reports whether the file at path, located under root, would be
// returned by ScanDir(root).
func (s *Scanner) ScanFile(root, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false, nil
	}

	m := s.matcher(root)
	parts := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	for i := range parts {
		if parts[0] == "." {
			break
		}
		if excluded(m, filepath.Join(parts[:i+1]...), true) {
			return false, nil
		}
	}
	if excluded(m, rel, false) {
		return false, nil
	}

	return s.accept(path), nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// FilterBySize drops files larger than maxSize bytes.
// Returns the filtered list and the count of files that were skipped.
// A maxSize of 0 or less disables the check.
func FilterBySize(files []string, maxSize int64) ([]string, int) {
	if maxSize <= 0 {
		return files, 0
	}

	filtered := make([]string, 0, len(files))
	skipped := 0

	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil || info.Size() > maxSize {
			skipped++
			continue
		}
		filtered = append(filtered, f)
	}

	return filtered, skipped
}
