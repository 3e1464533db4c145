package state

import (
	"fmt"
	"regexp"
	"time"
)

// InstalledVersion is an Agda version materialized on disk.
type InstalledVersion struct {
	Version string `json:"version" yaml:"version"`
	Dir     string `json:"dir" yaml:"dir"`
	BinDir  string `json:"bin_dir" yaml:"bin_dir"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// LibraryVersion is either a release tag or an experimental date stamp.
// The stamp is fixed when the value is created, never recomputed.
type LibraryVersion struct {
	tag          string
	ref          string
	stamp        string
	experimental bool
}

const stampLayout = "20060102"

var experimentalPattern = regexp.MustCompile(`^(.+)-([0-9]{8})$`)

// Tagged returns the version of a tagged release.
func Tagged(tag string) LibraryVersion {
	return LibraryVersion{tag: tag}
}

// Experimental returns an untagged version stamped with the day of now.
// ref names the branch or commit it was taken from; empty means "experimental".
func Experimental(ref string, now time.Time) LibraryVersion {
	if ref == "" {
		ref = "experimental"
	}
	return LibraryVersion{ref: ref, stamp: now.Format(stampLayout), experimental: true}
}

// ParseLibraryVersion reads a library version back from its directory name.
func ParseLibraryVersion(s string) LibraryVersion {
	if m := experimentalPattern.FindStringSubmatch(s); m != nil {
		if _, err := time.Parse(stampLayout, m[2]); err == nil {
			return LibraryVersion{ref: m[1], stamp: m[2], experimental: true}
		}
	}
	return Tagged(s)
}

// IsExperimental reports whether v carries a date stamp instead of a tag.
func (v LibraryVersion) IsExperimental() bool { return v.experimental }

// Stamp returns the YYYYMMDD stamp of an experimental version.
func (v LibraryVersion) Stamp() string { return v.stamp }

// IsZero reports whether v is unknown.
func (v LibraryVersion) IsZero() bool { return v == LibraryVersion{} }

// String returns the directory name of the version.
func (v LibraryVersion) String() string {
	if v.experimental {
		return fmt.Sprintf("%s-%s", v.ref, v.stamp)
	}
	return v.tag
}

// LibraryRegistration is one entry of the libraries registry.
type LibraryRegistration struct {
	Name    string
	Version LibraryVersion
	Path    string
}
