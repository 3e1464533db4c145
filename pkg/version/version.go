// Package version implements the total order over Agda and GHC version
// identifiers used for feature gating and compatibility checks.
//
// An identifier is a dotted list of numeric segments optionally followed by a
// qualifier introduced by '-': "2.6.3", "2.6.2.2", "2.6.4-rc1". Comparison is
// structural: segments compare as integers with missing segments read as zero,
// then the qualifier compares as a plain string.
package version

import (
	"fmt"
	"regexp"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/cperrin88/agdaup/pkg/errutils"
)

var grammar = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)*)(?:-([0-9A-Za-z][0-9A-Za-z.-]*))?$`)

// Version is a parsed version identifier.
type Version struct {
	raw       string
	segments  []int64
	qualifier string
}

// Parse validates s against the version grammar.
func Parse(s string) (Version, error) {
	m := grammar.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", errutils.ErrInvalidVersion, s)
	}
	core, err := goversion.NewVersion(m[1])
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %v", errutils.ErrInvalidVersion, s, err)
	}
	n := strings.Count(m[1], ".") + 1
	segs := core.Segments64()
	if len(segs) > n {
		segs = segs[:n]
	}
	return Version{raw: m[0], segments: segs, qualifier: m[2]}, nil
}

// MustParse is like Parse but panics on malformed input. Meant for constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the identifier as it was parsed.
func (v Version) String() string { return v.raw }

// Segments returns a copy of the numeric segments.
func (v Version) Segments() []int64 {
	out := make([]int64, len(v.segments))
	copy(out, v.segments)
	return out
}

// Qualifier returns the text after '-', or "".
func (v Version) Qualifier() string { return v.qualifier }

// Compare returns -1, 0 or 1.
func (v Version) Compare(o Version) int {
	n := max(len(v.segments), len(o.segments))
	for i := 0; i < n; i++ {
		a, b := segmentAt(v.segments, i), segmentAt(o.segments, i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return strings.Compare(v.qualifier, o.qualifier)
}

// HasPrefix reports whether the leading segments of v equal all segments of p.
// The qualifier of p must match as well when p has one.
func (v Version) HasPrefix(p Version) bool {
	for i, seg := range p.segments {
		if segmentAt(v.segments, i) != seg {
			return false
		}
	}
	return p.qualifier == "" || p.qualifier == v.qualifier
}

// Bump returns the smallest version greater than every version sharing the
// first n segments of v: Bump(9.4.7, 2) == 9.5.
func (v Version) Bump(n int) Version {
	if n < 1 {
		n = 1
	}
	segs := make([]int64, n)
	for i := range segs {
		segs[i] = segmentAt(v.segments, i)
	}
	segs[n-1]++
	parts := make([]string, n)
	for i, s := range segs {
		parts[i] = fmt.Sprint(s)
	}
	return Version{raw: strings.Join(parts, "."), segments: segs}
}

// Len returns the number of numeric segments as written.
func (v Version) Len() int { return len(v.segments) }

func segmentAt(segs []int64, i int) int64 {
	if i < len(segs) {
		return segs[i]
	}
	return 0
}

// Compare parses both identifiers and compares them.
func Compare(a, b string) (int, error) {
	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// GTE reports a >= b.
func GTE(a, b string) (bool, error) {
	c, err := Compare(a, b)
	return c >= 0, err
}

// GT reports a > b.
func GT(a, b string) (bool, error) {
	c, err := Compare(a, b)
	return c > 0, err
}

// LTE reports a <= b.
func LTE(a, b string) (bool, error) {
	c, err := Compare(a, b)
	return c <= 0, err
}

// LT reports a < b.
func LT(a, b string) (bool, error) {
	c, err := Compare(a, b)
	return c < 0, err
}
