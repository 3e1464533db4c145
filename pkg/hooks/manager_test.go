package hooks_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/hooks"
)

func TestAddHook(t *testing.T) {
	manager := hooks.NewHookManager(nil)

	tests := []struct {
		name    string
		hook    hooks.Hook
		wantErr error
	}{
		{name: "post-install", hook: hooks.Hook{Type: hooks.PostInstall, Content: `// nothing`}},
		{name: "post-set", hook: hooks.Hook{Type: hooks.PostSet, Content: `// nothing`}},
		{name: "empty type", hook: hooks.Hook{Content: "x := 1"}, wantErr: hooks.ErrHookTypeEmpty},
		{name: "unknown type", hook: hooks.Hook{Type: "pre-remove"}, wantErr: errutils.ErrHookExecution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := manager.AddHook(tt.hook)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, manager.HasHook(tt.hook.Type))
		})
	}
}

func TestRemoveHook(t *testing.T) {
	manager := hooks.NewHookManager(nil)
	require.NoError(t, manager.AddHook(hooks.Hook{Type: hooks.PostSet, Content: `// Test hooks`}))

	require.NoError(t, manager.RemoveHook(hooks.PostSet))
	assert.False(t, manager.HasHook(hooks.PostSet))
	assert.ErrorIs(t, manager.RemoveHook(""), hooks.ErrHookTypeEmpty)
}

func TestExecute_NoHookIsNoop(t *testing.T) {
	manager := hooks.NewHookManager(nil)
	assert.NoError(t, manager.Execute(context.Background(), hooks.PostInstall, hooks.HookContext{}))
}

func TestLoadHooksFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post-set.tengo"), []byte(`x := agdaVersion`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pre-remove.tengo"), []byte(`x := 1`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte(`docs`), 0o644))

	manager := hooks.NewHookManager(nil)
	require.NoError(t, hooks.LoadHooksFromDir(manager, dir))
	assert.True(t, manager.HasHook(hooks.PostSet))
	assert.False(t, manager.HasHook(hooks.PostInstall))

	require.NoError(t, hooks.LoadHooksFromDir(manager, filepath.Join(dir, "missing")))
}

func TestLoadHookFile_Missing(t *testing.T) {
	err := hooks.LoadHookFile(hooks.NewHookManager(nil), hooks.PostInstall, filepath.Join(t.TempDir(), "nope.tengo"))
	assert.ErrorIs(t, err, hooks.ErrHookLoad)
}
