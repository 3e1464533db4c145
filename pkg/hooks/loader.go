package hooks

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/agdaup/pkg/errutils"
)

// HookFileExtension is the extension of hook scripts.
const HookFileExtension = ".tengo"

// LoadHooksFromDir loads <dir>/<hook-type>.tengo for every supported hook
// type. A missing directory loads nothing; unknown file names are skipped.
func LoadHooksFromDir(manager HookManager, dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errutils.Wrapf(err, "failed to read hooks directory %s", dir)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != HookFileExtension {
			continue
		}
		hookType := HookType(strings.TrimSuffix(entry.Name(), HookFileExtension))
		if !hookType.Valid() {
			continue
		}
		if err := LoadHookFile(manager, hookType, filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// LoadHookFile adds the script at path as the hook of hookType.
func LoadHookFile(manager HookManager, hookType HookType, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errutils.Wrapf(errors.Join(ErrHookLoad, err), "error reading hooks file %s", path)
	}
	if err := manager.AddHook(Hook{Type: hookType, Content: string(content), Source: path}); err != nil {
		return errutils.Wrapf(err, "error adding hooks %s", hookType)
	}
	return nil
}
