package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/agdaup/pkg/errutils"
)

func writeLib(t *testing.T, dir, file, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegisterLibrary(t *testing.T) {
	m := New(t.TempDir(), t.TempDir())
	dir := m.LibraryDir("standard-library", Tagged("v1.7.3"))
	path := writeLib(t, dir, "standard-library.agda-lib", "name: standard-library\ninclude: src\n")

	reg, err := m.RegisterLibrary(path, true)
	require.NoError(t, err)
	assert.Equal(t, "standard-library", reg.Name)
	assert.Equal(t, "v1.7.3", reg.Version.String())

	libs, err := m.Libraries()
	require.NoError(t, err)
	require.Len(t, libs, 1)
	assert.Equal(t, path, libs[0].Path)

	defaults, err := m.Defaults()
	require.NoError(t, err)
	assert.Equal(t, []string{"standard-library"}, defaults)
}

func TestRegisterLibrary_InvalidManifestLeavesRegistries(t *testing.T) {
	m := New(t.TempDir(), t.TempDir())
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{name: "wrong extension", path: writeLib(t, dir, "lib.yaml", "name: foo\n")},
		{name: "missing file", path: filepath.Join(dir, "missing.agda-lib")},
		{name: "directory", path: func() string {
			p := filepath.Join(dir, "dir.agda-lib")
			require.NoError(t, os.MkdirAll(p, 0o755))
			return p
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.RegisterLibrary(tt.path, true)
			require.ErrorIs(t, err, errutils.ErrInvalidLibraryManifest)
			assert.NoFileExists(t, m.LibrariesFile())
			assert.NoFileExists(t, m.DefaultsFile())
		})
	}
}

func TestRegisterLibrary_DuplicateNameIsKept(t *testing.T) {
	m := New(t.TempDir(), t.TempDir())
	first := writeLib(t, t.TempDir(), "a.agda-lib", "name: cubical\n")
	second := writeLib(t, t.TempDir(), "b.agda-lib", "name: cubical\n")

	_, err := m.RegisterLibrary(first, false)
	require.NoError(t, err)
	_, err = m.RegisterLibrary(second, false)
	require.NoError(t, err)

	libs, err := m.Libraries()
	require.NoError(t, err)
	require.Len(t, libs, 2)
	assert.Equal(t, "cubical", libs[1].Name)
	assert.NoFileExists(t, m.DefaultsFile())
}

func TestRegisterExecutable_AppendOnly(t *testing.T) {
	m := New(t.TempDir(), t.TempDir())
	require.NoError(t, m.RegisterExecutable("/opt/agda/bin/agda"))
	require.NoError(t, m.RegisterExecutable("/opt/agda/bin/agda"))

	exes, err := m.Executables()
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/agda/bin/agda", "/opt/agda/bin/agda"}, exes)
}

func TestLibraryName(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{name: "yaml", file: "x.agda-lib", content: "name: agda-categories\ndepend: standard-library\n", want: "agda-categories"},
		{name: "not yaml", file: "y.agda-lib", content: "name: cubical\ndepend:\n\tfoo\n  bar: [\n", want: "cubical"},
		{name: "no name", file: "fallback.agda-lib", content: "include: src\n", want: "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LibraryName(writeLib(t, dir, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistries_MissingFilesAreEmpty(t *testing.T) {
	m := New(t.TempDir(), filepath.Join(t.TempDir(), "never-created"))

	libs, err := m.Libraries()
	require.NoError(t, err)
	assert.Empty(t, libs)

	defaults, err := m.Defaults()
	require.NoError(t, err)
	assert.Empty(t, defaults)

	exes, err := m.Executables()
	require.NoError(t, err)
	assert.Empty(t, exes)
}
