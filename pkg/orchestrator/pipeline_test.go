package orchestrator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/agdaup/pkg/data"
	"github.com/cperrin88/agdaup/pkg/dist"
	"github.com/cperrin88/agdaup/pkg/download"
	"github.com/cperrin88/agdaup/pkg/hooks"
	"github.com/cperrin88/agdaup/pkg/installer"
	"github.com/cperrin88/agdaup/pkg/orchestrator"
	"github.com/cperrin88/agdaup/pkg/platform"
	"github.com/cperrin88/agdaup/pkg/state"
	"github.com/cperrin88/agdaup/test/testutil"
)

// newPipeline wires the real resolver, fetcher and prebuilt installer
// against idx.
func newPipeline(t *testing.T, idx data.Index, hm hooks.HookManager) (*orchestrator.Orchestrator, *state.Manager) {
	t.Helper()
	p := platform.Platform{OS: platform.OSLinux, Arch: platform.ArchX64}
	st := state.New(t.TempDir(), t.TempDir())
	work := t.TempDir()

	fetcher := download.NewDistFetcher(download.NewManager(0, "", nil), t.TempDir(), work, nil)
	o := orchestrator.New(dist.NewResolver(idx, p), fetcher, st, nil, installer.New(nil, p, nil, nil), orchestrator.Hooks{}, nil)
	o.HookManager = hm
	o.Platform = p
	o.WorkDir = work
	return o, st
}

func TestPipeline_InstallPrebuiltFromServer(t *testing.T) {
	served := t.TempDir()
	testutil.WriteArchive(t, filepath.Join(served, "agda-2.6.4-x64-linux.zip"), map[string]string{
		"agda-2.6.4/bin/agda":                     "#!/bin/sh\necho 2.6.4\n",
		"agda-2.6.4/data/lib/prim/Agda/Primitive": "",
	})
	server := testutil.NewFileServer(t, served)

	hm := hooks.NewHookManager(nil)
	require.NoError(t, hm.AddHook(hooks.Hook{
		Type:    hooks.PostInstall,
		Content: `if agdaVersion != "2.6.4" { err = "unexpected version " + agdaVersion }`,
	}))

	o, st := newPipeline(t, data.Index{
		data.Key("agda", "2.6.4", platform.ArchX64, platform.OSLinux): server.URL + "/agda-2.6.4-x64-linux.zip",
	}, hm)

	iv, err := o.Install(context.Background(), "2.6.4", orchestrator.InstallOptions{SetActive: true})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(iv.BinDir, "agda"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100, "agda stays executable")
	assert.DirExists(t, filepath.Join(iv.DataDir, "lib", "prim"))

	active, ok, err := st.Active()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2.6.4", active.Version)

	exes, err := st.Executables()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(iv.BinDir, "agda")}, exes)

	entries, err := os.ReadDir(o.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "extraction directories are removed")
}
