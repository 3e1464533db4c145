// Package errutils defines the error taxonomy shared by the agdaup packages.
//
// Every failure kind is a sentinel value. Failures that carry structured data
// (the rejected distribution, both compiler versions, the missing library
// reference) are concrete types whose Is method reports the sentinel of their
// kind, so callers can always branch with errors.Is and only reach for
// errors.As when they need the fields.
package errutils

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds.
var (
	// Version errors.
	ErrInvalidVersion = fmt.Errorf("invalid version")

	// Install state errors.
	ErrNotInstalled           = fmt.Errorf("version is not installed")
	ErrCorruptState           = fmt.Errorf("corrupt install state")
	ErrInvalidLibraryManifest = fmt.Errorf("invalid library manifest")

	// Distribution errors.
	ErrRejectedDist     = fmt.Errorf("distribution rejected")
	ErrRejectedAllDists = fmt.Errorf("all distributions rejected")

	// Build toolchain gating errors.
	ErrGhcNotFound                  = fmt.Errorf("ghc not found")
	ErrGhcVersionMismatch           = fmt.Errorf("ghc version mismatch")
	ErrGhcVersionConstraintNotFound = fmt.Errorf("no ghc version constraint known")
	ErrInvalidConstraint            = fmt.Errorf("invalid version constraint")

	// Relocation errors.
	ErrUnknownLibraryReference = fmt.Errorf("unknown library reference")
	ErrRelocation              = fmt.Errorf("relocation failed")

	// License bundling errors.
	ErrLicenseFetchFailed = fmt.Errorf("license fetch failed")

	// Process and network errors.
	ErrTimeout        = fmt.Errorf("operation timed out")
	ErrProcessFailed  = fmt.Errorf("process failed")
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrInvalidPath    = fmt.Errorf("invalid path")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
)

// RejectedDistError records why a single distribution could not be installed.
type RejectedDistError struct {
	Version string
	Dist    string
	Cause   error
}

func (e *RejectedDistError) Error() string {
	return fmt.Sprintf("agda %s: rejected distribution %s: %v", e.Version, e.Dist, e.Cause)
}

func (e *RejectedDistError) Unwrap() error { return e.Cause }

// Is reports the ErrRejectedDist kind.
func (e *RejectedDistError) Is(target error) bool { return target == ErrRejectedDist }

// RejectDist wraps cause as a rejection of dist. A cause that already is a
// rejection (of a single distribution or of all of them) is returned as is.
func RejectDist(version, dist string, cause error) error {
	var single *RejectedDistError
	if errors.As(cause, &single) {
		return cause
	}
	var all *RejectedAllDistsError
	if errors.As(cause, &all) {
		return cause
	}
	return &RejectedDistError{Version: version, Dist: dist, Cause: cause}
}

// RejectedAllDistsError is returned once every candidate distribution failed.
// Causes keeps the per-candidate failures in attempt order.
type RejectedAllDistsError struct {
	Version string
	Causes  []error
}

func (e *RejectedAllDistsError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "agda %s: all %d distributions rejected", e.Version, len(e.Causes))
	for i, cause := range e.Causes {
		fmt.Fprintf(&b, "\n  %d. %v", i+1, cause)
	}
	return b.String()
}

// Unwrap exposes the per-candidate causes to errors.Is and errors.As.
func (e *RejectedAllDistsError) Unwrap() []error { return e.Causes }

// Is reports the ErrRejectedAllDists kind.
func (e *RejectedAllDistsError) Is(target error) bool { return target == ErrRejectedAllDists }

// GhcVersionMismatchError carries both sides of a failed compiler check.
type GhcVersionMismatchError struct {
	Required  string
	Installed string
}

func (e *GhcVersionMismatchError) Error() string {
	return fmt.Sprintf("ghc %s does not satisfy required %s", e.Installed, e.Required)
}

// Is reports the ErrGhcVersionMismatch kind.
func (e *GhcVersionMismatchError) Is(target error) bool { return target == ErrGhcVersionMismatch }

// UnknownLibraryReferenceError names a rewrite whose source was not among the
// dependencies of the binary.
type UnknownLibraryReferenceError struct {
	Binary    string
	Reference string
	Known     []string
}

func (e *UnknownLibraryReferenceError) Error() string {
	return fmt.Sprintf("%s: no dependency matches %s (dependencies: %s)",
		e.Binary, e.Reference, strings.Join(e.Known, ", "))
}

// Is reports both ErrUnknownLibraryReference and the broader ErrRelocation.
func (e *UnknownLibraryReferenceError) Is(target error) bool {
	return target == ErrUnknownLibraryReference || target == ErrRelocation
}

// LicenseFetchError records a failed fallback fetch for one dependency.
type LicenseFetchError struct {
	Dependency string
	URL        string
	Cause      error
}

func (e *LicenseFetchError) Error() string {
	return fmt.Sprintf("license for %s from %s: %v", e.Dependency, e.URL, e.Cause)
}

func (e *LicenseFetchError) Unwrap() error { return e.Cause }

// Is reports the ErrLicenseFetchFailed kind.
func (e *LicenseFetchError) Is(target error) bool { return target == ErrLicenseFetchFailed }

// ProcessError describes a command that could not run to a zero exit status.
type ProcessError struct {
	Command  string
	Args     []string
	ExitCode int
	Stderr   string
	TimedOut bool
	Cause    error
}

func (e *ProcessError) Error() string {
	cmd := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	switch {
	case e.TimedOut:
		return fmt.Sprintf("%s: timed out", cmd)
	case e.ExitCode > 0:
		msg := fmt.Sprintf("%s: exit status %d", cmd, e.ExitCode)
		if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
			msg += ": " + stderr
		}
		return msg
	default:
		return fmt.Sprintf("%s: %v", cmd, e.Cause)
	}
}

func (e *ProcessError) Unwrap() error { return e.Cause }

// Is reports ErrTimeout for expired deadlines and ErrProcessFailed otherwise.
func (e *ProcessError) Is(target error) bool {
	if e.TimedOut {
		return target == ErrTimeout
	}
	return target == ErrProcessFailed
}

// Wrap wraps an error with additional context.
// If the error is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
