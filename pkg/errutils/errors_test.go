package errutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{name: "wrap nil error", err: nil, msg: "context", expected: ""},
		{name: "wrap standard error", err: errors.New("original error"), msg: "context", expected: "context: original error"},
		{name: "wrap with empty message", err: errors.New("original error"), msg: "", expected: ": original error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				assert.NoError(t, result)
				return
			}
			assert.Equal(t, tt.expected, result.Error())
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestWrapf(t *testing.T) {
	base := errors.New("boom")
	err := Wrapf(base, "step %d of %s", 2, "install")
	require.Error(t, err)
	assert.Equal(t, "step 2 of install: boom", err.Error())
	assert.ErrorIs(t, err, base)
	assert.NoError(t, Wrapf(nil, "ignored %s", "x"))
}

func TestRejectDist_WrapsOnce(t *testing.T) {
	cause := errors.New("404")

	first := RejectDist("2.6.3", "https://example/agda.tar.gz", cause)
	assert.ErrorIs(t, first, ErrRejectedDist)
	assert.ErrorIs(t, first, cause)

	second := RejectDist("2.6.3", "https://example/other.tar.gz", first)
	assert.Same(t, first, second)

	var rejected *RejectedDistError
	require.ErrorAs(t, second, &rejected)
	assert.Equal(t, "https://example/agda.tar.gz", rejected.Dist)
	assert.Equal(t, cause, rejected.Cause)
}

func TestRejectDist_KeepsAggregate(t *testing.T) {
	all := &RejectedAllDistsError{Version: "2.6.3", Causes: []error{errors.New("a")}}
	got := RejectDist("2.6.3", "src", all)
	assert.Same(t, error(all), got)
	assert.NotErrorIs(t, got, ErrRejectedDist)
}

func TestRejectedAllDistsError(t *testing.T) {
	inner := errors.New("no ghc")
	causes := []error{
		RejectDist("2.6.3", "prebuilt", errors.New("404")),
		RejectDist("2.6.3", "source", fmt.Errorf("build: %w", inner)),
	}
	err := &RejectedAllDistsError{Version: "2.6.3", Causes: causes}

	assert.ErrorIs(t, err, ErrRejectedAllDists)
	assert.ErrorIs(t, err, ErrRejectedDist)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "all 2 distributions rejected")
	assert.Contains(t, err.Error(), "1. agda 2.6.3: rejected distribution prebuilt: 404")
	assert.Contains(t, err.Error(), "2. agda 2.6.3: rejected distribution source: build: no ghc")
}

func TestProcessError_Kinds(t *testing.T) {
	timeout := &ProcessError{Command: "cabal", Args: []string{"build"}, TimedOut: true}
	assert.ErrorIs(t, timeout, ErrTimeout)
	assert.NotErrorIs(t, timeout, ErrProcessFailed)
	assert.Equal(t, "cabal build: timed out", timeout.Error())

	exit := &ProcessError{Command: "ghc", Args: []string{"--numeric-version"}, ExitCode: 1, Stderr: "bad\n"}
	assert.ErrorIs(t, exit, ErrProcessFailed)
	assert.Equal(t, "ghc --numeric-version: exit status 1: bad", exit.Error())
}

func TestUnknownLibraryReferenceError_IsRelocation(t *testing.T) {
	err := fmt.Errorf("relocate: %w", &UnknownLibraryReferenceError{Binary: "agda", Reference: "/tmp/build/lib"})
	assert.ErrorIs(t, err, ErrUnknownLibraryReference)
	assert.ErrorIs(t, err, ErrRelocation)
}

func TestGhcVersionMismatchError(t *testing.T) {
	err := &GhcVersionMismatchError{Required: "9.4", Installed: "9.2.8"}
	assert.ErrorIs(t, err, ErrGhcVersionMismatch)
	assert.Equal(t, "ghc 9.2.8 does not satisfy required 9.4", err.Error())
}
