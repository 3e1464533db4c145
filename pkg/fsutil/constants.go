// Package fsutil provides the file system helpers shared by the install
// layout, the registries and the download cache.
package fsutil

// File and directory permission constants.
const (
	FileModeDefault = 0o644 // -rw-r--r--: registries, licenses, config
	FileModeSecure  = 0o640 // -rw-r-----: downloaded archives
	FileModeExec    = 0o755 // -rwxr-xr-x: installed executables

	DirModeDefault = 0o755 // drwxr-xr-x: install tree
	DirModeSecure  = 0o750 // drwxr-x---: download cache
)
