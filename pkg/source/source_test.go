package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzable(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"src/app.ts", true},
		{"src/App.TSX", true},
		{"lib/index.js", true},
		{"view.jsx", true},
		{"main.py", true},
		{"Main.java", true},
		{"main.go", true},
		{"lib.rs", true},
		{"Program.cs", true},
		{"index.php", true},
		{"README.md", false},
		{"package.json", false},
		{"style.css", false},
		{"Makefile", false},
		{"script.rb", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyzable(tt.path))
		})
	}
}

func TestFilter(t *testing.T) {
	files := []File{
		{Path: "b.ts", Content: "b"},
		{Path: "notes.txt", Content: "x"},
		{Path: "a.go", Content: "a"},
		{Path: "b.ts", Content: "again"},
	}

	got := Filter(files)
	require.Len(t, got, 2)
	assert.Equal(t, "b.ts", got[0].Path)
	assert.Equal(t, "b", got[0].Content)
	assert.Equal(t, "a.go", got[1].Path)
}

func TestFileLines(t *testing.T) {
	f := File{Path: "a.go", Content: "one\ntwo\n"}
	assert.Equal(t, []string{"one", "two", ""}, f.Lines())

	empty := File{Path: "b.go"}
	assert.Equal(t, []string{""}, empty.Lines())
}

func TestSnapshotEnumerate(t *testing.T) {
	snap := Snapshot{{Path: "a.go", Content: "package a"}}

	files, err := snap.Enumerate(context.Background(), "ignored")
	require.NoError(t, err)
	require.Len(t, files, 1)

	files[0].Content = "mutated"
	assert.Equal(t, "package a", snap[0].Content, "Enumerate must return a copy")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = snap.Enumerate(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilesystemSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0644))

	src := NewFilesystem()
	content, err := src.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(content))

	_, err = src.Read(filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}

func TestContentSourceImplementations(t *testing.T) {
	var _ ContentSource = (*FilesystemSource)(nil)
	var _ ContentSource = (*TreeSource)(nil)
	var _ Corpus = Snapshot(nil)
}
