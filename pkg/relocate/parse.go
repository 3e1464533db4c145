package relocate

import (
	"bufio"
	"fmt"
	"strings"
)

func lines(output string) []string {
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		out = append(out, strings.TrimRight(scanner.Text(), "\r"))
	}
	return out
}

// ParseOtool parses `otool -L` output. The first line names the binary
// itself and is always dropped; if it does not match binary a diagnostic is
// returned alongside the dependencies.
func ParseOtool(output, binary string) (deps, diagnostics []string) {
	all := lines(output)
	if len(all) == 0 {
		return nil, []string{"otool printed nothing for " + binary}
	}
	self := strings.TrimSuffix(strings.TrimSpace(all[0]), ":")
	if self != binary {
		diagnostics = append(diagnostics, fmt.Sprintf("otool header %q does not name %s", all[0], binary))
	}
	for _, line := range all[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// "<path> (compatibility version 1.0.0, current version 1.0.0)"
		if i := strings.Index(line, " (compatibility version"); i >= 0 {
			line = line[:i]
		} else if i := strings.LastIndex(line, " ("); i >= 0 {
			line = line[:i]
		} else {
			diagnostics = append(diagnostics, "unrecognized otool line: "+line)
		}
		deps = append(deps, strings.TrimSpace(line))
	}
	return deps, diagnostics
}

// ParsePatchelfNeeded parses `patchelf --print-needed` output, one library
// per line.
func ParsePatchelfNeeded(output string) (deps, diagnostics []string) {
	for _, line := range lines(output) {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.ContainsAny(line, " \t"):
			diagnostics = append(diagnostics, "unrecognized patchelf line: "+line)
		default:
			deps = append(deps, line)
		}
	}
	return deps, diagnostics
}

// ParseRPath splits a colon separated run path.
func ParseRPath(output string) []string {
	var out []string
	for _, entry := range strings.Split(strings.TrimSpace(output), ":") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// ParseDumpbin parses `dumpbin /DEPENDENTS` output. Both the regular and the
// delay load dependency blocks are collected.
func ParseDumpbin(output string) (deps, diagnostics []string) {
	inBlock := false
	sawHeader := false
	for _, raw := range lines(output) {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasSuffix(line, "dependencies:"):
			inBlock, sawHeader = true, true
		case !inBlock:
		case line == "":
			// The header is followed by one blank line before the list.
		case strings.EqualFold(line, "Summary"):
			inBlock = false
		case strings.Contains(line, " "):
			inBlock = false
		default:
			deps = append(deps, line)
		}
	}
	if !sawHeader {
		diagnostics = append(diagnostics, "dumpbin output has no dependency list")
	}
	return deps, diagnostics
}
