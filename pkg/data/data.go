// Package data holds the read-only metadata shipped with agdaup: the index of
// prebuilt distributions and the GHC compatibility table.
package data

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed index.yaml
var indexYAML []byte

//go:embed compat.yaml
var compatYAML []byte

// Index maps "<package>-<version>-<arch>-<os>" to a download URL.
type Index map[string]string

// Key builds an index key.
func Key(pkg, version, arch, os string) string {
	return fmt.Sprintf("%s-%s-%s-%s", pkg, version, arch, os)
}

// Lookup returns the URL for key. A missing key is not an error: it only means
// no prebuilt artifact exists.
func (idx Index) Lookup(key string) (string, bool) {
	url, ok := idx[key]
	return url, ok && url != ""
}

// Table maps a package name and version to a GHC version constraint.
type Table map[string]map[string]string

// Constraint returns the GHC constraint recorded for pkg at version.
func (t Table) Constraint(pkg, version string) (string, bool) {
	c, ok := t[pkg][version]
	return c, ok && c != ""
}

// Versions returns the versions known for pkg, sorted as strings.
func (t Table) Versions(pkg string) []string {
	out := make([]string, 0, len(t[pkg]))
	for v := range t[pkg] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ParseIndex decodes a YAML index.
func ParseIndex(b []byte) (Index, error) {
	idx := Index{}
	if err := yaml.Unmarshal(b, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse prebuilt index: %w", err)
	}
	return idx, nil
}

// ParseTable decodes a YAML compatibility table.
func ParseTable(b []byte) (Table, error) {
	t := Table{}
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("failed to parse compatibility table: %w", err)
	}
	return t, nil
}

// BuiltinIndex returns the embedded prebuilt index.
func BuiltinIndex() Index {
	idx, err := ParseIndex(indexYAML)
	if err != nil {
		panic(err)
	}
	return idx
}

// BuiltinTable returns the embedded compatibility table.
func BuiltinTable() Table {
	t, err := ParseTable(compatYAML)
	if err != nil {
		panic(err)
	}
	return t
}
