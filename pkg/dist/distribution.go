//go:generate mockgen -destination=./mocks/fetcher.go -package=mocks . Fetcher

// Package dist resolves the distributions a version can be installed from and
// attempts them in order.
package dist

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tells how a distribution turns into an installed version.
type Kind string

const (
	// KindPrebuilt archives contain ready bin and data directories.
	KindPrebuilt Kind = "prebuilt"
	// KindSource archives contain a cabal package to build.
	KindSource Kind = "source"
)

// Distribution is a source a version may be obtained from. A missing Tag
// marks an experimental install.
type Distribution struct {
	URL  string `yaml:"url" json:"url"`
	Dir  string `yaml:"dir,omitempty" json:"dir,omitempty"`
	Tag  string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Kind Kind   `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// FromURL builds a distribution from a bare URL.
func FromURL(u string) Distribution {
	return Distribution{URL: u}
}

// Experimental reports whether no release tag was given.
func (d Distribution) Experimental() bool { return d.Tag == "" }

// Validate checks that URL is an absolute URL or a local path.
func (d Distribution) Validate() error {
	if strings.TrimSpace(d.URL) == "" {
		return fmt.Errorf("distribution URL cannot be empty")
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return fmt.Errorf("invalid distribution URL %q: %w", d.URL, err)
	}
	switch u.Scheme {
	case "http", "https", "file", "":
		return nil
	default:
		return fmt.Errorf("unsupported distribution URL scheme %q", u.Scheme)
	}
}

// String identifies the distribution in messages.
func (d Distribution) String() string {
	s := d.URL
	if d.Dir != "" {
		s += "#" + d.Dir
	}
	if d.Tag != "" {
		s += "@" + d.Tag
	}
	return s
}

// UnmarshalYAML accepts either a bare URL scalar or a mapping.
func (d *Distribution) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*d = FromURL(node.Value)
		return nil
	}
	type plain Distribution
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = Distribution(p)
	return nil
}

// Fetcher materializes a distribution as a local directory holding its
// extracted contents. The caller owns the returned directory.
type Fetcher interface {
	FetchDist(ctx context.Context, d Distribution) (string, error)
}
