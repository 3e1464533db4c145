// Package testutil holds fixtures shared by the package tests: file trees,
// archives of them, and an HTTP server handing them out.
package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mholt/archives"
	"github.com/stretchr/testify/require"
)

// WriteTree creates files (slash separated relative path -> content) below
// dir. Paths under a bin/ directory are made executable.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		perm := os.FileMode(0o644)
		if filepath.Base(filepath.Dir(full)) == "bin" {
			perm = 0o755
		}
		require.NoError(t, os.WriteFile(full, []byte(content), perm))
	}
}

// Format returns the archive format for a file name ending in .zip,
// .tar.gz or .tar.xz.
func Format(name string) archives.Archiver {
	switch {
	case filepath.Ext(name) == ".zip":
		return archives.Zip{}
	case filepath.Ext(name) == ".xz":
		return archives.CompressedArchive{Compression: archives.Xz{}, Archival: archives.Tar{}}
	default:
		return archives.CompressedArchive{Compression: archives.Gz{}, Archival: archives.Tar{}}
	}
}

// WriteArchive packs files into an archive at path, in the format its
// extension names.
func WriteArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()
	src := t.TempDir()
	WriteTree(t, src, files)

	ctx := context.Background()
	entries, err := archives.FilesFromDisk(ctx, nil, map[string]string{src + string(os.PathSeparator): ""})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	out, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = out.Close() }()

	require.NoError(t, Format(path).Archive(ctx, out, entries))
}

// NewFileServer serves dir over HTTP until the test ends.
func NewFileServer(t *testing.T, dir string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.FileServer(http.Dir(dir)))
	t.Cleanup(server.Close)
	return server
}
