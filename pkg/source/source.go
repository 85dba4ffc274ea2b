// Package source defines the project snapshot consumed by the analyzers and
// the collaborators that produce it.
package source

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNotDirectory is returned when a project path does not name a directory.
var ErrNotDirectory = errors.New("project path is not a directory")

// File is an immutable snapshot of a single project file.
// Analyzers borrow it read-only for the duration of one report run.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Lines splits the content on newlines. A trailing newline yields a final
// empty line, which keeps line counts consistent across analyzers.
func (f File) Lines() []string {
	return strings.Split(f.Content, "\n")
}

// Corpus enumerates the files of a project snapshot.
// Implementations must return each file at most once.
type Corpus interface {
	Enumerate(ctx context.Context, projectPath string) ([]File, error)
}

// FSCorpus is a Corpus whose snapshot is not the working tree. FS exposes
// the same snapshot so files the analyzers do not parse, such as dependency
// manifests, are read from it too.
type FSCorpus interface {
	Corpus
	FS(ctx context.Context, projectPath string) (fs.FS, error)
}

// analyzableExtensions lists the file types the analyzers understand.
var analyzableExtensions = map[string]bool{
	".ts":   true,
	".tsx":  true,
	".js":   true,
	".jsx":  true,
	".py":   true,
	".java": true,
	".go":   true,
	".rs":   true,
	".cs":   true,
	".php":  true,
}

// Analyzable reports whether path has an analyzable extension.
func Analyzable(path string) bool {
	return analyzableExtensions[strings.ToLower(filepath.Ext(path))]
}

// Filter drops non-analyzable files and repeated paths, keeping corpus order.
func Filter(files []File) []File {
	out := make([]File, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		if !Analyzable(f.Path) {
			continue
		}
		if _, dup := seen[f.Path]; dup {
			continue
		}
		seen[f.Path] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Snapshot is a Corpus over files that were already read.
// The project path passed to Enumerate is ignored.
type Snapshot []File

// Enumerate implements Corpus.
func (s Snapshot) Enumerate(ctx context.Context, _ string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]File, len(s))
	copy(out, s)
	return out, nil
}

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// TreeSource reads files from a git tree.
// It is safe for concurrent use by multiple goroutines.
type TreeSource struct {
	tree *object.Tree
	mu   sync.Mutex
}

// NewTree creates a source that reads from a git tree.
func NewTree(tree *object.Tree) *TreeSource {
	return &TreeSource{tree: tree}
}

// Read implements ContentSource.
func (t *TreeSource) Read(path string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := t.tree.File(filepath.ToSlash(path))
	if err != nil {
		return nil, err
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

// TreeFS is a read-only fs.FS over the files of a git tree below dir.
// Only regular files can be opened.
type TreeFS struct {
	src *TreeSource
	dir string
}

// NewTreeFS roots src at dir, a slash path inside the tree ("" for the root).
func NewTreeFS(src *TreeSource, dir string) *TreeFS {
	return &TreeFS{src: src, dir: dir}
}

// Open implements fs.FS.
func (t *TreeFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	data, err := t.src.Read(path.Join(t.dir, name))
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &treeFile{
		Reader: bytes.NewReader(data),
		info:   treeFileInfo{name: path.Base(name), size: int64(len(data))},
	}, nil
}

type treeFile struct {
	*bytes.Reader
	info treeFileInfo
}

func (f *treeFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *treeFile) Close() error               { return nil }

type treeFileInfo struct {
	name string
	size int64
}

func (i treeFileInfo) Name() string       { return i.name }
func (i treeFileInfo) Size() int64        { return i.size }
func (i treeFileInfo) Mode() fs.FileMode  { return 0o444 }
func (i treeFileInfo) ModTime() time.Time { return time.Time{} }
func (i treeFileInfo) IsDir() bool        { return false }
func (i treeFileInfo) Sys() any           { return nil }
