// Package testutil provides fixture helpers shared by block tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// File is a named fixture file.
type File struct {
	Name    string
	Content []byte
}

// WriteFile creates name under dir with content and returns its full path.
// Parent directories are created as needed.
func WriteFile(tb testing.TB, dir, name string, content []byte) string {
	tb.Helper()
	fullPath := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(tb, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(tb, os.WriteFile(fullPath, content, 0o644))
	return fullPath
}

// WriteFiles writes every file under dir and returns their paths in order.
func WriteFiles(tb testing.TB, dir string, files []File) []string {
	tb.Helper()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = WriteFile(tb, dir, f.Name, f.Content)
	}
	return paths
}

// PatchFile overwrites the bytes of path starting at off with data.
func PatchFile(tb testing.TB, path string, off int64, data []byte) {
	tb.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(tb, err)
	defer f.Close()
	_, err = f.WriteAt(data, off)
	require.NoError(tb, err)
}

// RequireNotExist fails the test if path exists.
func RequireNotExist(tb testing.TB, path string) {
	tb.Helper()
	_, err := os.Lstat(path)
	require.ErrorIs(tb, err, os.ErrNotExist)
}

// HelloWorld is the two-file fixture used across tests: "1.bin" holding
// "Hello" and "2.bin" holding "World".
func HelloWorld() []File {
	return []File{
		{Name: "1.bin", Content: []byte("Hello")},
		{Name: "2.bin", Content: []byte("World")},
	}
}
