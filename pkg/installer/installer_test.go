package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/platform"
	"github.com/cperrin88/agdaup/pkg/process"
	"github.com/cperrin88/agdaup/pkg/process/mocks"
	"github.com/cperrin88/agdaup/pkg/relocate"
	"github.com/cperrin88/agdaup/pkg/state"
)

var macX64 = platform.Platform{OS: platform.OSMacOS, Arch: platform.ArchX64}

func prebuilt(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"bin/agda":                          "agda",
		"data/lib/prim/Agda/Primitive.agda": "module Agda.Primitive where\n",
		"lib/libgmp.10.dylib":               "gmp",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	}
	return dir
}

func stage(t *testing.T) *state.Staging {
	t.Helper()
	s, err := state.New(t.TempDir(), t.TempDir()).Stage("2.6.4")
	require.NoError(t, err)
	return s
}

func TestInstall_CopiesWithoutRewrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	s := stage(t)

	require.NoError(t, New(runner, macX64, nil, nil).Install(context.Background(), prebuilt(t), s))

	assert.FileExists(t, filepath.Join(s.BinDir, "agda"))
	assert.FileExists(t, filepath.Join(s.DataDir, "lib", "prim", "Agda", "Primitive.agda"))
	assert.FileExists(t, filepath.Join(s.Dir, "lib", "libgmp.10.dylib"))
}

func TestInstall_Relocates(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	s := stage(t)
	bin := filepath.Join(s.BinDir, "agda")
	rewrites := []relocate.Rewrite{{From: "/usr/local/opt/gmp/lib", To: s.Final().Dir + "/lib"}}

	otool := bin + ":\n\t/usr/local/opt/gmp/lib/libgmp.10.dylib (compatibility version 15.0.0, current version 15.1.0)\n"
	gomock.InOrder(
		runner.EXPECT().Run(gomock.Any(), "otool", []string{"-L", bin}, gomock.Any()).
			Return(process.Result{Stdout: []byte(otool)}, nil),
		runner.EXPECT().Run(gomock.Any(), "install_name_tool",
			[]string{"-change", "/usr/local/opt/gmp/lib/libgmp.10.dylib", s.Final().Dir + "/lib/libgmp.10.dylib", bin},
			gomock.Any()).Return(process.Result{}, nil),
	)

	require.NoError(t, New(runner, macX64, rewrites, nil).Install(context.Background(), prebuilt(t), s))
}

func TestInstall_RelocatesOnlyReferencingBinaries(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	src := prebuilt(t)
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "agda-mode"), []byte("agda-mode"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "agda-wrapper.sh"), []byte("#!/bin/sh\n"), 0o755))
	s := stage(t)
	agda := filepath.Join(s.BinDir, "agda")
	mode := filepath.Join(s.BinDir, "agda-mode")
	script := filepath.Join(s.BinDir, "agda-wrapper.sh")
	rewrites := []relocate.Rewrite{{From: "/usr/local/opt/gmp/lib", To: s.Final().Dir + "/lib"}}

	runner.EXPECT().Run(gomock.Any(), "otool", []string{"-L", agda}, gomock.Any()).
		Return(process.Result{Stdout: []byte(agda + ":\n\t/usr/local/opt/gmp/lib/libgmp.10.dylib (compatibility version 15.0.0)\n")}, nil)
	runner.EXPECT().Run(gomock.Any(), "otool", []string{"-L", mode}, gomock.Any()).
		Return(process.Result{Stdout: []byte(mode + ":\n\t/usr/lib/libSystem.B.dylib (compatibility version 1.0.0)\n")}, nil)
	runner.EXPECT().Run(gomock.Any(), "otool", []string{"-L", script}, gomock.Any()).
		Return(process.Result{}, &errutils.ProcessError{Command: "otool", Cause: errors.New("is not an object file")})
	runner.EXPECT().Run(gomock.Any(), "install_name_tool",
		[]string{"-change", "/usr/local/opt/gmp/lib/libgmp.10.dylib", s.Final().Dir + "/lib/libgmp.10.dylib", agda},
		gomock.Any()).Return(process.Result{}, nil)

	require.NoError(t, New(runner, macX64, rewrites, nil).Install(context.Background(), src, s))
	assert.FileExists(t, script)
}

func TestInstall_RelocationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)
	s := stage(t)

	runner.EXPECT().Run(gomock.Any(), "otool", gomock.Any(), gomock.Any()).
		Return(process.Result{}, &errutils.ProcessError{Command: "otool", Cause: os.ErrNotExist})

	err := New(runner, macX64, []relocate.Rewrite{{From: "/a", To: "/b"}}, nil).
		Install(context.Background(), prebuilt(t), s)
	require.ErrorIs(t, err, errutils.ErrRelocation)
}

func TestInstall_MissingExecutable(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockRunner(ctrl)

	err := New(runner, macX64, nil, nil).Install(context.Background(), t.TempDir(), stage(t))
	require.ErrorIs(t, err, errutils.ErrInvalidPath)
}
