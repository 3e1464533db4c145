// Package state owns the on-disk layout of agdaup: one directory per
// installed Agda version, the library tree, the registries Agda reads from
// its application directory, and the pointer to the active version.
//
// Nothing here locks. Two agdaup processes calling Set or the Register*
// methods at the same time may race.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/cperrin88/agdaup/internal/logger"
	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
	"github.com/cperrin88/agdaup/pkg/version"
)

const (
	agdaDirName      = "agda"
	librariesDirName = "libraries.d"
	stagingDirName   = ".staging"
	currentName      = "current"
	binDirName       = "bin"
	dataDirName      = "data"
)

// Manager manages the install root and the Agda application directory.
type Manager struct {
	// Root holds agda/<version> and libraries.d/<name>/<version>.
	Root string
	// AgdaDir is where Agda looks for the libraries, defaults and
	// executables registries.
	AgdaDir string

	log   *slog.Logger
	clock Clock
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithClock sets the clock used to stamp experimental library versions.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// New creates a Manager for root and agdaDir.
func New(root, agdaDir string, opts ...Option) *Manager {
	m := &Manager{Root: root, AgdaDir: agdaDir, clock: RealClock{}}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logger.OrDiscard(m.log)
	return m
}

// VersionDir returns the install directory of v.
func (m *Manager) VersionDir(v string) string {
	return filepath.Join(m.Root, agdaDirName, v)
}

// BinDir returns the binary directory of v.
func (m *Manager) BinDir(v string) string {
	return filepath.Join(m.VersionDir(v), binDirName)
}

// DataDir returns the data directory of v.
func (m *Manager) DataDir(v string) string {
	return filepath.Join(m.VersionDir(v), dataDirName)
}

// PointerPath returns the location of the active version pointer.
func (m *Manager) PointerPath() string {
	return filepath.Join(m.Root, agdaDirName, currentName)
}

// LibrariesDir returns the root of the library tree.
func (m *Manager) LibrariesDir() string {
	return filepath.Join(m.Root, librariesDirName)
}

// LibraryDir returns the directory of one library version.
func (m *Manager) LibraryDir(name string, v LibraryVersion) string {
	return filepath.Join(m.LibrariesDir(), name, v.String())
}

// NewLibraryVersion returns Tagged(tag) when tag is set, and otherwise an
// experimental version of ref stamped with the manager's clock. Path
// separators in ref become '-', so "feature/x" is stored as feature-x. A
// tag must already be a plain directory name.
func (m *Manager) NewLibraryVersion(tag, ref string) (LibraryVersion, error) {
	if tag != "" {
		if err := checkDirName(tag); err != nil {
			return LibraryVersion{}, fmt.Errorf("library tag %q: %w", tag, err)
		}
		return Tagged(tag), nil
	}
	ref = refSeparators.Replace(ref)
	if ref != "" {
		if err := checkDirName(ref); err != nil {
			return LibraryVersion{}, fmt.Errorf("library ref %q: %w", ref, err)
		}
	}
	return Experimental(ref, m.clock.Now()), nil
}

var refSeparators = strings.NewReplacer("/", "-", `\`, "-")

// checkDirName rejects names that are not a single visible path element.
func checkDirName(name string) error {
	if strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`+"\x00") {
		return errutils.ErrInvalidPath
	}
	return nil
}

func (m *Manager) installed(v string) InstalledVersion {
	return InstalledVersion{
		Version: v,
		Dir:     m.VersionDir(v),
		BinDir:  m.BinDir(v),
		DataDir: m.DataDir(v),
	}
}

// InstalledVersion returns the install of v, or ErrNotInstalled.
func (m *Manager) InstalledVersion(v string) (InstalledVersion, error) {
	if _, err := version.Parse(v); err != nil {
		return InstalledVersion{}, err
	}
	if !fsutil.IsDir(m.VersionDir(v)) {
		return InstalledVersion{}, fmt.Errorf("agda %s: %w", v, errutils.ErrNotInstalled)
	}
	return m.installed(v), nil
}

// IsInstalled reports whether v has an install directory.
func (m *Manager) IsInstalled(v string) bool {
	_, err := m.InstalledVersion(v)
	return err == nil
}

// Installed lists the installed versions in ascending order. Entries that
// are not version directories are skipped.
func (m *Manager) Installed() ([]InstalledVersion, error) {
	entries, err := os.ReadDir(filepath.Join(m.Root, agdaDirName))
	if errors.Is(err, fs.ErrNotExist) {
		return []InstalledVersion{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list installed versions: %w", err)
	}

	type parsed struct {
		v   version.Version
		raw string
	}
	var found []parsed
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := version.Parse(entry.Name())
		if err != nil {
			continue
		}
		found = append(found, parsed{v: v, raw: entry.Name()})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].v.Compare(found[j].v) < 0 })

	result := make([]InstalledVersion, 0, len(found))
	for _, p := range found {
		result = append(result, m.installed(p.raw))
	}
	return result, nil
}

// Active returns the version the pointer designates. ok is false when no
// version is active.
func (m *Manager) Active() (v InstalledVersion, ok bool, err error) {
	path := m.PointerPath()
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return InstalledVersion{}, false, nil
	}
	if err != nil {
		return InstalledVersion{}, false, err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return InstalledVersion{}, false, fmt.Errorf("%s is not a symlink: %w", path, errutils.ErrCorruptState)
	}
	target, err := os.Readlink(path)
	if err != nil {
		return InstalledVersion{}, false, err
	}
	name := filepath.Base(target)
	if _, err := version.Parse(name); err != nil {
		return InstalledVersion{}, false, fmt.Errorf("%s points at %s: %w", path, target, errutils.ErrCorruptState)
	}
	return m.installed(name), true, nil
}

// Set makes v the active version. v must be installed. An existing pointer
// must be a symlink; it is removed before the new one is created, so a crash
// in between leaves no active version until the next Set.
func (m *Manager) Set(v string) (InstalledVersion, error) {
	iv, err := m.InstalledVersion(v)
	if err != nil {
		return InstalledVersion{}, err
	}

	path := m.PointerPath()
	info, err := os.Lstat(path)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink == 0 {
			return InstalledVersion{}, fmt.Errorf("%s is not a symlink: %w", path, errutils.ErrCorruptState)
		}
		if err := os.Remove(path); err != nil {
			return InstalledVersion{}, fmt.Errorf("failed to remove active version pointer: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return InstalledVersion{}, fmt.Errorf("failed to inspect active version pointer: %w", err)
	}

	// Relative target so the root can be moved as a whole.
	if err := os.Symlink(v, path); err != nil {
		return InstalledVersion{}, pointerError(runtime.GOOS, err)
	}
	m.log.Info("active agda version set", "version", v, "pointer", path)
	return iv, nil
}

// pointerError explains a failed pointer creation. Windows only lets
// administrators, or users with Developer Mode enabled, create symlinks.
func pointerError(goos string, err error) error {
	if goos == "windows" {
		return fmt.Errorf("failed to create active version pointer (Windows requires Developer Mode or an elevated shell for symlinks): %w", err)
	}
	return fmt.Errorf("failed to create active version pointer: %w", err)
}

// Staging is a version directory under construction.
type Staging struct {
	Version string
	Dir     string
	BinDir  string
	DataDir string

	m *Manager
}

// Stage creates an empty staging directory for v. Install into it and then
// call Commit, or Discard on failure.
func (m *Manager) Stage(v string) (*Staging, error) {
	if _, err := version.Parse(v); err != nil {
		return nil, err
	}
	base := filepath.Join(m.Root, stagingDirName)
	if err := fsutil.EnsureDir(base); err != nil {
		return nil, fmt.Errorf("failed to create staging area: %w", err)
	}
	dir, err := os.MkdirTemp(base, v+"-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	s := &Staging{
		Version: v,
		Dir:     dir,
		BinDir:  filepath.Join(dir, binDirName),
		DataDir: filepath.Join(dir, dataDirName),
		m:       m,
	}
	for _, d := range []string{s.BinDir, s.DataDir} {
		if err := fsutil.EnsureDir(d); err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
	}
	return s, nil
}

// Final returns where the staged version will live once committed.
func (s *Staging) Final() InstalledVersion {
	return s.m.installed(s.Version)
}

// Commit moves the staged directory into place, replacing an older install
// of the same version.
func (s *Staging) Commit() (InstalledVersion, error) {
	final := s.m.VersionDir(s.Version)
	if _, err := os.Lstat(final); err == nil {
		if err := os.RemoveAll(final); err != nil {
			return InstalledVersion{}, fmt.Errorf("failed to replace %s: %w", final, err)
		}
	}
	if err := fsutil.Move(s.Dir, final); err != nil {
		return InstalledVersion{}, fmt.Errorf("failed to commit agda %s: %w", s.Version, err)
	}
	s.m.log.Debug("committed install", "version", s.Version, "dir", final)
	return s.m.installed(s.Version), nil
}

// Discard removes the staging directory.
func (s *Staging) Discard() {
	if err := os.RemoveAll(s.Dir); err != nil {
		s.m.log.Warn("failed to remove staging directory", "dir", s.Dir, "error", err)
	}
}
