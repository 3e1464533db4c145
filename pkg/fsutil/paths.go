package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
)

const (
	// AppName is the name of the application used in paths
	AppName = "agdaup"
)

// GetCacheDir returns the platform-specific cache directory for the application
// On Linux: ~/.cache/agdaup/
// On macOS: ~/Library/Caches/agdaup/
// On Windows: %LOCALAPPDATA%\agdaup\
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetDataDir returns the directory install roots live under.
// On Linux: $XDG_DATA_HOME/agdaup or ~/.local/share/agdaup
// On macOS: ~/Library/Application Support/agdaup
// On Windows: %LOCALAPPDATA%\agdaup
func GetDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, AppName), nil
		}
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	case "darwin":
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, AppName), nil
		}
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", AppName), nil
	}
}

// GetAgdaDir returns the directory Agda reads its registries from:
// $AGDA_DIR when set, otherwise ~/.agda (%APPDATA%\agda on Windows).
func GetAgdaDir() (string, error) {
	if dir := os.Getenv("AGDA_DIR"); dir != "" {
		return dir, nil
	}
	if runtime.GOOS == "windows" {
		if dir := os.Getenv("APPDATA"); dir != "" {
			return filepath.Join(dir, "agda"), nil
		}
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".agda"), nil
}

// IsWithin reports whether path lies strictly inside root once both are
// cleaned. root itself does not count.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
