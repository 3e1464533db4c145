package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove_File(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "agda")
	dst := filepath.Join(dir, "bin", "agda")
	require.NoError(t, os.WriteFile(src, []byte("binary"), FileModeExec))

	require.NoError(t, Move(src, dst))
	assert.NoFileExists(t, src)
	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "binary", string(content))
}

func TestMove_Directory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "stage")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), DirModeDefault))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "agda"), []byte("x"), FileModeExec))

	dst := filepath.Join(dir, "agda", "2.6.4")
	require.NoError(t, Move(src, dst))
	assert.NoDirExists(t, src)
	assert.FileExists(t, filepath.Join(dst, "bin", "agda"))
}

func TestMove_Errors(t *testing.T) {
	assert.Error(t, Move("", "x"))
	assert.Error(t, Move("x", ""))
	assert.Error(t, Move(filepath.Join(t.TempDir(), "missing"), filepath.Join(t.TempDir(), "dst")))
}

func TestCopyFile_PreservesMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits differ on Windows")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "agda-mode")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\n"), FileModeExec))

	dst := filepath.Join(dir, "out", "agda-mode")
	require.NoError(t, CopyFile(src, dst))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FileModeExec), info.Mode().Perm())
}

func TestCopyDir_KeepsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lib", "prim"), DirModeDefault))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib", "prim", "Agda.agda"), []byte("module Agda where"), FileModeDefault))
	require.NoError(t, os.Symlink("lib", filepath.Join(src, "current")))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, CopyDir(src, dst))

	assert.FileExists(t, filepath.Join(dst, "lib", "prim", "Agda.agda"))
	link, err := os.Readlink(filepath.Join(dst, "current"))
	require.NoError(t, err)
	assert.Equal(t, "lib", link)
}

func TestAppendLineAndReadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agda", "libraries")

	lines, err := ReadLines(path)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.NotNil(t, lines)

	require.NoError(t, AppendLine(path, "/a/one.agda-lib"))
	require.NoError(t, AppendLine(path, "/b/two.agda-lib"))

	lines, err = ReadLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a/one.agda-lib", "/b/two.agda-lib"}, lines)
}

func TestAppendLine_TerminatesLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults")
	require.NoError(t, os.WriteFile(path, []byte("standard-library"), FileModeDefault))

	require.NoError(t, AppendLine(path, "cubical"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "standard-library\ncubical\n", string(content))
}
