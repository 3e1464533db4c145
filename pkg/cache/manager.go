// Package cache manages the agdaup cache directory: downloaded archives in
// downloads/ and extraction and build trees in build/.
package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
)

// Subdirectories of the cache directory.
const (
	DownloadsDirName = "downloads"
	BuildDirName     = "build"
)

// DefaultManager implements the Manager interface for cache operations.
type DefaultManager struct {
	directory string
}

var _ Manager = (*DefaultManager)(nil)

// NewManager creates a new cache manager.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{
		directory: directory,
	}
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// DownloadsDir returns the directory archives are cached in.
func (cm *DefaultManager) DownloadsDir() string {
	return filepath.Join(cm.directory, DownloadsDirName)
}

// BuildDir returns the directory archives are extracted and built in.
func (cm *DefaultManager) BuildDir() string {
	return filepath.Join(cm.directory, BuildDirName)
}

// Clean removes cached files according to the specified options.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	if cm.directory == "" {
		return nil, errutils.ErrInvalidPath
	}
	all := !options.Downloads && !options.Build
	result := &CleanResult{}

	if all || options.Downloads {
		size, err := cleanDirectory(cm.DownloadsDir(), fsutil.DirModeSecure)
		if err != nil {
			return nil, errutils.Wrapf(err, "failed to clean download cache")
		}
		result.DownloadsFreed = size
		result.TotalFreed += size
	}

	if all || options.Build {
		size, err := cleanDirectory(cm.BuildDir(), fsutil.DirModeDefault)
		if err != nil {
			return nil, errutils.Wrapf(err, "failed to clean build directory")
		}
		result.BuildFreed = size
		result.TotalFreed += size
	}

	return result, nil
}

// GetInfo returns information about the cache.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: cm.directory}

	var err error
	info.DownloadsSize, info.DownloadsFiles, err = dirSizeAndFiles(cm.DownloadsDir())
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to get download cache info")
	}
	info.BuildSize, info.BuildFiles, err = dirSizeAndFiles(cm.BuildDir())
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to get build directory info")
	}
	info.TotalSize = info.DownloadsSize + info.BuildSize

	return info, nil
}

// cleanDirectory empties dir and returns the bytes freed. The directory is
// recreated with perm.
func cleanDirectory(dir string, perm os.FileMode) (int64, error) {
	size, _, err := dirSizeAndFiles(dir)
	if err != nil {
		return 0, err
	}
	if err := os.RemoveAll(dir); err != nil {
		return 0, errutils.Wrapf(err, "failed to remove directory %s", dir)
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return size, errutils.Wrapf(err, "failed to recreate directory %s", dir)
	}
	return size, nil
}

// dirSizeAndFiles sums the sizes of the regular files below dir. A missing
// directory is empty.
func dirSizeAndFiles(dir string) (size int64, count int, err error) {
	if !fsutil.IsDir(dir) {
		return 0, 0, nil
	}
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		count++
		return nil
	})
	if err != nil {
		err = fmt.Errorf("error walking directory %s: %w", dir, err)
	}
	return size, count, err
}

// FormatBytes converts bytes to a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	if exp < len(units) {
		return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
	}
	return fmt.Sprintf("%d B", bytes)
}
