package state

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cperrin88/agdaup/pkg/errutils"
	"github.com/cperrin88/agdaup/pkg/fsutil"
)

// LibraryExt is the extension of Agda library descriptors.
const LibraryExt = ".agda-lib"

const (
	librariesFile   = "libraries"
	defaultsFile    = "defaults"
	executablesFile = "executables"
)

// LibrariesFile returns the path of the libraries registry.
func (m *Manager) LibrariesFile() string { return filepath.Join(m.AgdaDir, librariesFile) }

// DefaultsFile returns the path of the defaults registry.
func (m *Manager) DefaultsFile() string { return filepath.Join(m.AgdaDir, defaultsFile) }

// ExecutablesFile returns the path of the executables registry.
func (m *Manager) ExecutablesFile() string { return filepath.Join(m.AgdaDir, executablesFile) }

// RegisterLibrary appends the descriptor at path to the libraries registry,
// and its name to the defaults registry when makeDefault is set. A name that
// is already registered is logged and registered again.
func (m *Manager) RegisterLibrary(path string, makeDefault bool) (LibraryRegistration, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return LibraryRegistration{}, fmt.Errorf("%s: %w", path, errutils.ErrInvalidPath)
	}
	if err := validateManifest(abs); err != nil {
		return LibraryRegistration{}, err
	}

	name, err := LibraryName(abs)
	if err != nil {
		return LibraryRegistration{}, err
	}

	existing, err := m.Libraries()
	if err != nil {
		return LibraryRegistration{}, err
	}
	for _, lib := range existing {
		if lib.Name == name {
			m.log.Warn("library name already registered", "name", name, "existing", lib.Path, "new", abs)
			break
		}
	}

	if err := fsutil.AppendLine(m.LibrariesFile(), abs); err != nil {
		return LibraryRegistration{}, fmt.Errorf("failed to update libraries registry: %w", err)
	}
	if makeDefault {
		if err := fsutil.AppendLine(m.DefaultsFile(), name); err != nil {
			return LibraryRegistration{}, fmt.Errorf("failed to update defaults registry: %w", err)
		}
	}

	reg := LibraryRegistration{Name: name, Version: m.libraryVersionOf(abs), Path: abs}
	m.log.Info("registered library", "name", name, "path", abs, "default", makeDefault)
	return reg, nil
}

// RegisterExecutable appends path to the executables registry.
func (m *Manager) RegisterExecutable(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, errutils.ErrInvalidPath)
	}
	if err := fsutil.AppendLine(m.ExecutablesFile(), abs); err != nil {
		return fmt.Errorf("failed to update executables registry: %w", err)
	}
	m.log.Debug("registered executable", "path", abs)
	return nil
}

// Libraries returns the libraries registry in registration order.
func (m *Manager) Libraries() ([]LibraryRegistration, error) {
	lines, err := fsutil.ReadLines(m.LibrariesFile())
	if err != nil {
		return nil, fmt.Errorf("failed to read libraries registry: %w", err)
	}
	libs := make([]LibraryRegistration, 0, len(lines))
	for _, line := range lines {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		name, err := LibraryName(path)
		if err != nil {
			name = stem(path)
		}
		libs = append(libs, LibraryRegistration{Name: name, Version: m.libraryVersionOf(path), Path: path})
	}
	return libs, nil
}

// Defaults returns the names in the defaults registry.
func (m *Manager) Defaults() ([]string, error) {
	return readRegistry(m.DefaultsFile())
}

// Executables returns the paths in the executables registry.
func (m *Manager) Executables() ([]string, error) {
	return readRegistry(m.ExecutablesFile())
}

func readRegistry(path string) ([]string, error) {
	lines, err := fsutil.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}

// libraryVersionOf derives the version from the libraries.d/<name>/<version>
// layout. Descriptors outside the library tree have a zero version.
func (m *Manager) libraryVersionOf(path string) LibraryVersion {
	rel, err := filepath.Rel(m.LibrariesDir(), path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return LibraryVersion{}
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 {
		return LibraryVersion{}
	}
	return ParseLibraryVersion(parts[1])
}

func validateManifest(path string) error {
	if filepath.Ext(path) != LibraryExt {
		return fmt.Errorf("%s: expected a %s file: %w", path, LibraryExt, errutils.ErrInvalidLibraryManifest)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %v: %w", path, err, errutils.ErrInvalidLibraryManifest)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, errutils.ErrInvalidLibraryManifest)
	}
	return nil
}

type libraryFile struct {
	Name string `yaml:"name"`
}

// LibraryName reads the name field of an .agda-lib descriptor. Descriptors
// that are not valid YAML are scanned line by line; without a name field the
// file stem is used.
func LibraryName(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	var lib libraryFile
	if err := yaml.Unmarshal(content, &lib); err == nil && strings.TrimSpace(lib.Name) != "" {
		return strings.TrimSpace(lib.Name), nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(key) == "name" {
			if name := strings.TrimSpace(value); name != "" {
				return name, nil
			}
		}
	}
	return stem(path), nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
