package license

import (
	"bufio"
	"regexp"
	"strings"
)

// The dependency is a Hackage package id such as zlib or ghc-prim-0.6.1:
// alphanumeric words joined by '-' or '.'. It later names a directory under
// the output tree, so any other spelling is kept as a plain warning.
var notCopiedPattern = regexp.MustCompile(`^WARNING: license files for ([A-Za-z0-9]+(?:[-.][A-Za-z0-9]+)*) \(([^)]*)\) not copied$`)

// Missing is a dependency the report generator could not copy a license for.
type Missing struct {
	Dependency string
	Reason     string
}

// ParseDiagnostics splits the generator's diagnostic stream into dependencies
// that need a fallback fetch and other non-blank lines, kept as warnings.
func ParseDiagnostics(output string) (missing []Missing, warnings []string) {
	seen := map[string]bool{}
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		m := notCopiedPattern.FindStringSubmatch(line)
		if m == nil {
			warnings = append(warnings, line)
			continue
		}
		if !seen[m[1]] {
			seen[m[1]] = true
			missing = append(missing, Missing{Dependency: m[1], Reason: m[2]})
		}
	}
	return missing, warnings
}
